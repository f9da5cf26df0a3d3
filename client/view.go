package client

import (
	"fmt"
	"strings"

	"gerador/session"
	"github.com/charmbracelet/lipgloss"
)

var tabTitles = map[string]string{
	session.TabPreview:     "Preview",
	session.TabDescHotmart: "Desc. Hotmart",
	session.TabArtigo:      "Artigo",
	session.TabLegenda:     "Legenda",
	session.TabImagens:     "Imagens",
	session.TabJSON:        "JSON",
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(m.header() + "\n\n")
	b.WriteString(paneStyle.Render(m.form.view(m.ctrl.Submitter())) + "\n")

	switch {
	case m.confirmQuit:
		b.WriteString(alertStyle.Render("Uma geração está em andamento. Sair mesmo assim? (s/N)") + "\n")
	case m.alert != "":
		b.WriteString(alertStyle.Render(m.alert) + "\n")
	case m.notice != "":
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}

	if m.ctrl.LogsVisible() {
		b.WriteString(titleStyle.Render("📋 Logs") + "\n")
		b.WriteString(paneStyle.Render(m.logs.View()) + "\n")
	}
	if m.ctrl.ResultVisible() {
		b.WriteString(m.resultPane() + "\n")
	}
	b.WriteString(hintStyle.Render("tab/shift+tab navegar • espaço marcar • ◂ ▸ ajustar • ctrl+s gerar • esc sair"))
	return b.String()
}

func (m *model) header() string {
	st := m.ctrl.Status()
	dot := statusDotStyle[st.Kind].Render("●")
	status := dot + " " + st.Text
	if m.ctrl.Busy() {
		status = m.spinner.View() + " " + status
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("🎯 Gerador de Conteúdos"), "   ", status)
}

func (m *model) resultPane() string {
	v := m.ctrl.View()
	if v == nil {
		return ""
	}
	score := tierStyle[v.Tier].Render(v.Score)
	head := fmt.Sprintf("%s  %s  %s  %s", titleStyle.Render(v.Name), labelStyle.Render(v.Type), score, labelStyle.Render(v.Iterations))
	if v.QualityPending {
		head += "  " + alertStyle.Render("⚠ qualidade pendente")
	}

	tabs := m.ctrl.Tabs()
	var heads []string
	for _, name := range tabs.Names() {
		style := tabStyle
		if tabs.IsActive(name) {
			style = activeTabStyle
		}
		heads = append(heads, style.Render(tabTitles[name]))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		head,
		lipgloss.JoinHorizontal(lipgloss.Top, heads...),
		m.result.View(),
	)
	pane := paneStyle
	if m.form.focus == fieldResult {
		pane = pane.BorderForeground(lipgloss.Color("212"))
		body += "\n" + hintStyle.Render("◂ ▸ abas • ↑ ↓ rolar • j exportar JSON • d baixar imagens")
	}
	return pane.Render(body)
}

func renderLogs(entries []session.LogEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		ts := hintStyle.Render("[" + e.At.Format("15:04:05") + "]")
		lines = append(lines, ts+" "+logKindStyle[e.Kind].Render(e.Text))
	}
	return strings.Join(lines, "\n")
}

// renderTab is the body of the result pane for the active tab.
func renderTab(v *session.ResultView, tab string) string {
	if v == nil {
		return ""
	}
	switch tab {
	case session.TabPreview:
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Nome:"), v.Preview.Name)
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Tipo:"), v.Preview.Type)
		if v.Preview.SalesDesc != "" {
			fmt.Fprintf(&b, "\n%s\n%s\n", labelStyle.Render("Página de vendas:"), v.Preview.SalesDesc)
		}
		if v.Extra != "" {
			fmt.Fprintf(&b, "\n%s\n%s\n", labelStyle.Render("Extra:"), v.Extra)
		}
		return b.String()
	case session.TabDescHotmart:
		return v.DescHotmart
	case session.TabArtigo:
		return v.Article
	case session.TabLegenda:
		return v.Caption
	case session.TabImagens:
		return renderImages(v)
	case session.TabJSON:
		return v.JSON
	}
	return ""
}

func renderImages(v *session.ResultView) string {
	if v.NoImages {
		return hintStyle.Render(session.NoImagesNotice)
	}
	var b strings.Builder
	for _, img := range v.Images {
		b.WriteString(labelStyle.Render(img.Title) + "\n")
		if img.Failed {
			b.WriteString(alertStyle.Render("✖ Imagem não disponível") + "\n\n")
			continue
		}
		b.WriteString("  " + img.URL + "\n\n")
	}
	if v.BulkDownload {
		b.WriteString(hintStyle.Render("d: baixar todas as imagens"))
	}
	return b.String()
}
