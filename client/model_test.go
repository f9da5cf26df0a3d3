package client

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"gerador/config"
	"gerador/internal/proto"
	"gerador/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
)

type fakeChannel struct {
	open bool
	sent []any
}

func (f *fakeChannel) IsOpen() bool { return f.open }

func (f *fakeChannel) Send(v any) error {
	f.sent = append(f.sent, v)
	return nil
}

type fakeBackend struct {
	mu     sync.Mutex
	posts  []proto.JobConfig
	broken map[string]bool
}

func (f *fakeBackend) Generate(ctx context.Context, cfg proto.JobConfig) (*proto.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, cfg)
	return &proto.GenerateResponse{Status: "success"}, nil
}

func (f *fakeBackend) Probe(ctx context.Context, rawURL string) error {
	if f.broken[rawURL] {
		return errors.New("404")
	}
	return nil
}

func (f *fakeBackend) Download(ctx context.Context, rawURL string, w io.Writer) error {
	_, err := io.WriteString(w, "png")
	return err
}

func newTestModel(t *testing.T, open bool) (*model, *fakeChannel, *fakeBackend) {
	t.Helper()
	ch := &fakeChannel{open: open}
	backend := &fakeBackend{broken: map[string]bool{}}
	ctrl := session.New(ch, backend, nil, nil)
	cfg := &config.Config{
		Client:   config.ClientConfig{DownloadDir: t.TempDir()},
		Defaults: config.FormDefaults{LLMProvider: "anthropic", ImageProvider: "openai", MaxIteracoes: 3},
	}
	m := newModel(context.Background(), ctrl, backend, make(chan tea.Msg), cfg)
	m.Update(wsOpenMsg{})
	return m, ch, backend
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func fill(m *model, radical, insumos string) {
	m.form.radical.SetValue(radical)
	m.form.insumos.SetValue(insumos)
}

func TestSubmitRoundTrip(t *testing.T) {
	m, ch, backend := newTestModel(t, true)
	fill(m, "Curso X", "PDF base")

	_, cmd := m.Update(key("ctrl+s"))
	if cmd == nil {
		t.Fatalf("expected the POST command")
	}
	if len(ch.sent) != 1 || !m.ctrl.Busy() {
		t.Fatalf("expected notification sent and busy state")
	}
	if !strings.Contains(m.View(), session.LabelBusy) {
		t.Fatalf("busy label not rendered")
	}

	msg := cmd()
	if _, ok := msg.(settledMsg); !ok {
		t.Fatalf("expected settledMsg, got %T", msg)
	}
	if len(backend.posts) != 1 || backend.posts[0].Radical != "Curso X" {
		t.Fatalf("unexpected posts %+v", backend.posts)
	}
	m.Update(msg)
	if m.ctrl.Busy() || m.ctrl.Status() != session.StatusReady {
		t.Fatalf("settlement must restore the submit control")
	}
}

func TestSubmitValidationAlert(t *testing.T) {
	m, ch, _ := newTestModel(t, true)
	_, cmd := m.Update(key("ctrl+s"))
	if cmd != nil || len(ch.sent) != 0 {
		t.Fatalf("validation failure must not touch the network")
	}
	if m.alert != session.AlertMissingFields {
		t.Fatalf("alert = %q", m.alert)
	}
	if !strings.Contains(m.View(), session.AlertMissingFields) {
		t.Fatalf("alert not rendered")
	}
}

func TestSubmitNotConnected(t *testing.T) {
	m, _, backend := newTestModel(t, false)
	fill(m, "Curso X", "PDF base")
	if _, cmd := m.Update(key("ctrl+s")); cmd != nil {
		t.Fatalf("no POST may be issued while disconnected")
	}
	if len(backend.posts) != 0 || m.alert != session.AlertNotConnected {
		t.Fatalf("unexpected posts=%d alert=%q", len(backend.posts), m.alert)
	}
}

func TestConnectionMessages(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	m.Update(wsErrorMsg{err: errors.New("reset")})
	if m.ctrl.Status() != session.StatusConnError {
		t.Fatalf("status = %+v", m.ctrl.Status())
	}
	m.Update(wsCloseMsg{})
	if m.ctrl.Status() != session.StatusDisconnected {
		t.Fatalf("status = %+v", m.ctrl.Status())
	}
	if !strings.Contains(m.header(), "Desconectado") {
		t.Fatalf("status not rendered: %q", m.header())
	}
}

func TestResultMessageProbesImages(t *testing.T) {
	m, _, backend := newTestModel(t, true)
	backend.broken["/outputs/d/imagens/q.png"] = true

	raw := `{"type":"resultado","data":{"id_conteudos":"r1","nome_criativo":"Criativo","nota_conteudo":8.5,
		"nome_imagem_vert":"v.png","nome_imagem_quad":"q.png","output_dir":"d"}}`
	_, cmd := m.Update(wsDataMsg(raw))
	if !m.ctrl.ResultVisible() {
		t.Fatalf("result must be visible")
	}
	if cmd == nil {
		t.Fatalf("expected listen and probe commands")
	}

	failed := m.probeImages()().(tea.BatchMsg)
	var got []tea.Msg
	for _, c := range failed {
		if msg := c(); msg != nil {
			got = append(got, msg)
		}
	}
	if len(got) != 1 {
		t.Fatalf("expected one failed probe, got %v", got)
	}
	m.Update(got[0])
	imgs := m.ctrl.View().Images
	if imgs[0].Failed || !imgs[1].Failed {
		t.Fatalf("expected only the square image to fail: %+v", imgs)
	}
}

func TestTabsAndExport(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	m.Update(wsDataMsg(`{"type":"resultado","data":{"id_conteudos":"r1","legenda":"minha legenda","output_dir":"d","nome_imagem_vert":"v.png"}}`))

	m.form.focusOn(fieldResult)
	for i := 0; i < 3; i++ {
		m.Update(key("right"))
	}
	if m.ctrl.Tabs().Active() != session.TabLegenda {
		t.Fatalf("active tab = %q", m.ctrl.Tabs().Active())
	}
	if !strings.Contains(m.result.View(), "minha legenda") {
		t.Fatalf("caption not rendered in result pane")
	}

	m.Update(key("j"))
	if !strings.Contains(m.notice, "conteudo_r1.json") {
		t.Fatalf("notice = %q alert = %q", m.notice, m.alert)
	}

	_, cmd := m.Update(key("d"))
	if cmd == nil {
		t.Fatalf("expected image download command")
	}
	msg, ok := cmd().(exportedMsg)
	if !ok || msg.err != nil || len(msg.paths) != 1 {
		t.Fatalf("unexpected export %+v", msg)
	}
}

func TestQuitNeedsConfirmationWhileBusy(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	fill(m, "Curso X", "PDF base")
	m.Update(key("ctrl+s"))

	if _, cmd := m.Update(key("esc")); cmd != nil {
		t.Fatalf("quit while busy must ask first")
	}
	if !m.confirmQuit {
		t.Fatalf("expected confirmation prompt")
	}
	if _, cmd := m.Update(key("n")); cmd != nil || m.confirmQuit {
		t.Fatalf("answering no must cancel the prompt")
	}

	m.Update(key("esc"))
	_, cmd := m.Update(key("s"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestFormNavigation(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	for m.form.focus != fieldExtra {
		m.Update(key("tab"))
	}
	m.Update(key("tab"))
	if m.form.focus != fieldSubmit {
		t.Fatalf("prompt must be skipped while extra is off, focus=%d", m.form.focus)
	}

	m.form.focusOn(fieldExtra)
	m.Update(key(" "))
	if !m.form.values.Extra {
		t.Fatalf("space must toggle the checkbox")
	}
	m.Update(key("tab"))
	if m.form.focus != fieldPromptExtra {
		t.Fatalf("prompt must be reachable once extra is on, focus=%d", m.form.focus)
	}

	m.form.focusOn(fieldIteracoes)
	for i := 0; i < 20; i++ {
		m.Update(key("right"))
	}
	if m.form.values.MaxIteracoes != proto.MaxIteracoes {
		t.Fatalf("iterations = %d", m.form.values.MaxIteracoes)
	}

	m.form.focusOn(fieldLLM)
	m.Update(key("right"))
	if m.form.values.LLMProvider != proto.LLMOpenAI {
		t.Fatalf("provider = %q", m.form.values.LLMProvider)
	}
}

func TestHooksForwardEvents(t *testing.T) {
	events := make(chan tea.Msg, 4)
	h := Hooks(context.Background(), events)
	h.OnOpen()
	h.OnMessage([]byte(`{"type":"info","message":"x"}`))
	h.OnError(errors.New("boom"))
	h.OnClose()

	want := []string{"client.wsOpenMsg", "client.wsDataMsg", "client.wsErrorMsg", "client.wsCloseMsg"}
	for _, w := range want {
		got := <-events
		if name := fmt.Sprintf("%T", got); name != w {
			t.Fatalf("got %s, want %s", name, w)
		}
	}
}
