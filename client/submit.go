package client

import (
	"gerador/session"
	tea "github.com/charmbracelet/bubbletea"
)

// submit hands the form to the controller. The POST runs off the update loop
// and comes back as a settledMsg.
func (m *model) submit() tea.Cmd {
	pending, err := m.ctrl.Submit(m.form.Form())
	if err != nil {
		if alert := m.ctrl.TakeAlert(); alert != "" {
			m.alert = alert
		}
		m.log().Infof("submit: %s", err.Error())
		return nil
	}
	m.refreshLogs()

	ctx := m.ctx
	return func() tea.Msg {
		return settledMsg(pending(ctx))
	}
}

// probeImages checks every image of the current result; a failed probe
// swaps the placeholder in for that image.
func (m *model) probeImages() tea.Cmd {
	v := m.ctrl.View()
	if v == nil || len(v.Images) == 0 {
		return nil
	}
	ctx, backend := m.ctx, m.backend
	cmds := make([]tea.Cmd, 0, len(v.Images))
	for _, img := range v.Images {
		id, name, url := v.ID, img.Filename, img.URL
		cmds = append(cmds, func() tea.Msg {
			if err := backend.Probe(ctx, url); err != nil {
				m.log().Warnf("imagem %s indisponível: %s", name, err.Error())
				return imageFailedMsg{resultID: id, filename: name}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m *model) exportJSON() {
	path, err := m.ctrl.ExportJSON(m.downloadDir)
	switch {
	case err != nil:
		m.alert = "Falha ao exportar JSON: " + err.Error()
	case path != "":
		m.notice = "JSON salvo em " + path
	}
}

func (m *model) downloadImages() tea.Cmd {
	downloads := m.ctrl.ImageDownloads()
	if len(downloads) == 0 {
		return nil
	}
	ctx, backend, dir := m.ctx, m.backend, m.downloadDir
	return func() tea.Msg {
		paths, err := session.FetchImages(ctx, backend, downloads, dir)
		return exportedMsg{paths: paths, err: err}
	}
}
