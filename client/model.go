package client

import (
	"context"
	"io"

	"gerador/config"
	"gerador/connect"
	"gerador/session"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Backend is the HTTP side of the server as the terminal UI needs it.
type Backend interface {
	session.Generator
	Probe(ctx context.Context, rawURL string) error
	Download(ctx context.Context, rawURL string, w io.Writer) error
}

type (
	wsOpenMsg  struct{}
	wsErrorMsg struct{ err error }
	wsCloseMsg struct{}
	wsDataMsg  []byte

	settledMsg     session.Settled
	imageFailedMsg struct{ resultID, filename string }
	exportedMsg    struct {
		paths []string
		err   error
	}
)

// Hooks forwards connection events into the program's event channel, so the
// controller is only ever touched from Update.
func Hooks(ctx context.Context, events chan<- tea.Msg) connect.Hooks {
	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}
	return connect.Hooks{
		OnOpen:    func() { send(wsOpenMsg{}) },
		OnMessage: func(payload []byte) { send(wsDataMsg(payload)) },
		OnError:   func(err error) { send(wsErrorMsg{err: err}) },
		OnClose:   func() { send(wsCloseMsg{}) },
	}
}

func listen(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

type model struct {
	ctx         context.Context
	ctrl        *session.Controller
	backend     Backend
	events      <-chan tea.Msg
	downloadDir string

	form    formModel
	logs    viewport.Model
	result  viewport.Model
	spinner spinner.Model

	width, height int
	alert         string
	notice        string
	confirmQuit   bool
}

func newModel(ctx context.Context, ctrl *session.Controller, backend Backend, events <-chan tea.Msg, cfg *config.Config) *model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &model{
		ctx:         ctx,
		ctrl:        ctrl,
		backend:     backend,
		events:      events,
		downloadDir: cfg.Client.DownloadDir,
		form:        newFormModel(cfg.Defaults),
		logs:        viewport.New(80, 8),
		result:      viewport.New(80, 16),
		spinner:     sp,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(listen(m.events), textinput.Blink, m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case wsOpenMsg:
		m.ctrl.ConnectionOpened()
		return m, listen(m.events)
	case wsErrorMsg:
		m.ctrl.ConnectionError(msg.err)
		return m, listen(m.events)
	case wsCloseMsg:
		m.ctrl.ConnectionClosed()
		return m, listen(m.events)
	case wsDataMsg:
		_ = m.ctrl.HandleMessage(msg)
		m.refreshLogs()
		var probe tea.Cmd
		if m.ctrl.TakeScroll() {
			m.refreshResult()
			m.result.GotoTop()
			probe = m.probeImages()
		}
		return m, tea.Batch(listen(m.events), probe)

	case settledMsg:
		m.ctrl.Settle(session.Settled(msg))
		m.refreshLogs()
		return m, nil
	case imageFailedMsg:
		m.ctrl.ImageFailed(msg.resultID, msg.filename)
		m.refreshResult()
		return m, nil
	case exportedMsg:
		if msg.err != nil {
			m.alert = "Falha ao baixar imagens: " + msg.err.Error()
		}
		if len(msg.paths) > 0 {
			m.notice = "Imagens salvas em " + m.downloadDir
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, m.form.update(msg)
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if m.confirmQuit {
		m.confirmQuit = false
		switch key {
		case "s", "S", "y", "Y":
			return tea.Quit
		}
		return nil
	}
	m.alert, m.notice = "", ""

	switch key {
	case "ctrl+c", "esc":
		if m.ctrl.Busy() {
			m.confirmQuit = true
			return nil
		}
		return tea.Quit
	case "tab":
		return m.form.move(1, m.ctrl.ResultVisible())
	case "shift+tab":
		return m.form.move(-1, m.ctrl.ResultVisible())
	case "ctrl+s":
		return m.submit()
	}

	switch f := m.form.focus; {
	case f == fieldSubmit:
		if key == "enter" || key == " " {
			return m.submit()
		}
	case f == fieldResult:
		return m.resultKey(msg)
	case f == fieldIteracoes || f == fieldLLM || f == fieldImage:
		switch key {
		case "left", "h", "-":
			m.form.adjust(-1)
		case "right", "l", "+":
			m.form.adjust(1)
		}
	case m.form.checkbox(f) != nil:
		if key == " " || key == "enter" {
			m.form.toggle()
		}
	default:
		return m.form.update(msg)
	}
	return nil
}

func (m *model) resultKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h":
		m.ctrl.Tabs().Prev()
		m.refreshResult()
		m.result.GotoTop()
	case "right", "l":
		m.ctrl.Tabs().Next()
		m.refreshResult()
		m.result.GotoTop()
	case "j":
		m.exportJSON()
	case "d":
		return m.downloadImages()
	default:
		var cmd tea.Cmd
		m.result, cmd = m.result.Update(msg)
		return cmd
	}
	return nil
}

func (m *model) resize(w, h int) {
	m.width, m.height = w, h
	inner := w - 4
	if inner < 20 {
		inner = 20
	}
	m.form.setWidth(inner / 2)
	m.logs.Width = inner
	m.result.Width = inner
	if h > 30 {
		m.result.Height = h - 24
	}
	m.refreshLogs()
	m.refreshResult()
}

func (m *model) refreshLogs() {
	m.logs.SetContent(renderLogs(m.ctrl.Logs()))
	m.logs.GotoBottom()
}

func (m *model) refreshResult() {
	m.result.SetContent(renderTab(m.ctrl.View(), m.ctrl.Tabs().Active()))
}

func (m *model) log() *logrus.Entry {
	return logrus.WithField("component", "tui")
}
