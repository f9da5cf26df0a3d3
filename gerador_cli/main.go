package gerador_cli

import (
	"context"
	"io"
	"time"

	"gerador/api"
	"gerador/config"
	"gerador/connect"
	"gerador/internal/proto"
	"gerador/session"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// Options is one headless generation.
type Options struct {
	Form         session.Form
	ExportJSON   bool
	ExportImages bool
}

// NewFlagSet declares the `run` flags. The returned func validates them
// once the set has been parsed.
func NewFlagSet(d config.FormDefaults) (*pflag.FlagSet, func() (Options, error)) {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	def := session.DefaultForm(d)
	o := Options{Form: def}
	f := &o.Form
	llm := fs.String("llm", string(def.LLMProvider), "LLM provider")
	img := fs.String("image", string(def.ImageProvider), "image provider")

	fs.StringVar(&f.Radical, "radical", "", "product radical (required)")
	fs.StringVar(&f.Insumos, "insumos", "", "source material (required)")
	fs.IntVar(&f.MaxIteracoes, "iteracoes", def.MaxIteracoes, "max refinement iterations (1-10)")
	fs.BoolVar(&f.TipoMaterial, "tipo-material", def.TipoMaterial, "generate the material type")
	fs.BoolVar(&f.DescHotmart, "desc-hotmart", def.DescHotmart, "generate the Hotmart description")
	fs.BoolVar(&f.Artigo, "artigo", def.Artigo, "generate the article")
	fs.BoolVar(&f.Legenda, "legenda", def.Legenda, "generate the caption")
	fs.BoolVar(&f.ImagemVert, "imagem-vert", def.ImagemVert, "generate the vertical image")
	fs.BoolVar(&f.ImagemQuad, "imagem-quad", def.ImagemQuad, "generate the square image")
	fs.BoolVar(&f.NomeCriativo, "nome-criativo", def.NomeCriativo, "generate the creative name")
	fs.BoolVar(&f.DescPV, "desc-pv", def.DescPV, "generate the sales page description")
	fs.BoolVar(&f.Extra, "extra", def.Extra, "generate the extra item")
	fs.StringVar(&f.PromptExtra, "prompt-extra", "", "prompt for the extra item")
	fs.BoolVar(&o.ExportJSON, "export-json", false, "save the result json into client.download_dir")
	fs.BoolVar(&o.ExportImages, "export-images", false, "download the images into client.download_dir")

	return fs, func() (Options, error) {
		var ok bool
		if f.LLMProvider, ok = proto.ParseLLMProvider(*llm); !ok {
			return o, errors.Errorf("unknown llm provider %q", *llm)
		}
		if f.ImageProvider, ok = proto.ParseImageProvider(*img); !ok {
			return o, errors.Errorf("unknown image provider %q", *img)
		}
		f.MaxIteracoes = proto.ClampIteracoes(f.MaxIteracoes)
		return o, nil
	}
}

type eventKind int

const (
	evOpen eventKind = iota
	evMessage
	evError
	evClose
)

type event struct {
	kind    eventKind
	payload []byte
	err     error
}

type runner struct {
	cfg     *config.Config
	out     printer
	ctrl    *session.Controller
	backend *api.Client
	events  chan event

	printed int
	result  bool
}

// Run submits one job and follows it to the end. It returns the process
// exit code: 0 once a result arrived, 1 otherwise.
func Run(ctx context.Context, cfg *config.Config, opts Options, w io.Writer) int {
	p := printer{w: w}
	backend, err := api.NewClient(cfg.Client.Origin, cfg.Client.RequestTimeout)
	if err != nil {
		p.err("%v", err)
		return 1
	}
	wsURL, err := connect.WebsocketURL(cfg.Client.Origin)
	if err != nil {
		p.err("%v", err)
		return 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &runner{cfg: cfg, out: p, backend: backend, events: make(chan event, 64)}
	send := func(e event) {
		select {
		case r.events <- e:
		case <-ctx.Done():
		}
	}
	hooks := connect.Hooks{
		OnOpen:    func() { send(event{kind: evOpen}) },
		OnMessage: func(payload []byte) { send(event{kind: evMessage, payload: payload}) },
		OnError:   func(err error) { send(event{kind: evError, err: err}) },
		OnClose:   func() { send(event{kind: evClose}) },
	}
	reg := metrics.NewRegistry()
	mgr := connect.NewManager(wsURL, hooks, connect.OptionsFromConfig(cfg), reg)
	r.ctrl = session.New(mgr, backend, backend, reg)

	p.header(backend.Origin())
	mgr.Start(ctx)
	defer mgr.Close()

	if !r.waitOpen(ctx) {
		return 1
	}
	return r.generate(ctx, opts)
}

func (r *runner) waitOpen(ctx context.Context) bool {
	timer := time.NewTimer(r.cfg.Client.ConnectWait)
	defer timer.Stop()
	for {
		select {
		case ev := <-r.events:
			if r.apply(ev) == evOpen {
				return true
			}
		case <-timer.C:
			r.out.err("websocket não conectou em %s", r.cfg.Client.ConnectWait)
			return false
		case <-ctx.Done():
			return false
		}
	}
}

func (r *runner) generate(ctx context.Context, opts Options) int {
	pending, err := r.ctrl.Submit(opts.Form)
	if err != nil {
		if alert := r.ctrl.TakeAlert(); alert != "" {
			r.out.err("%s", alert)
		} else {
			r.out.err("%v", err)
		}
		return 1
	}
	r.printed = 0
	r.out.system("geração enviada: %s", opts.Form.Radical)

	settled := make(chan session.Settled, 1)
	go func() { settled <- pending(ctx) }()

	var (
		settledCh  = settled
		resultWait <-chan time.Time
		done       bool
	)
	for {
		select {
		case ev := <-r.events:
			r.apply(ev)
			if r.result && done {
				return r.finish(ctx, opts)
			}
		case s := <-settledCh:
			settledCh = nil
			done = true
			r.ctrl.Settle(s)
			r.flushLogs()
			if s.Err != nil || s.Response == nil || s.Response.Status != "success" {
				r.out.err("geração falhou")
				return 1
			}
			if r.result {
				return r.finish(ctx, opts)
			}
			t := time.NewTimer(r.cfg.Client.ResultWait)
			defer t.Stop()
			resultWait = t.C
		case <-resultWait:
			r.out.err("nenhum resultado recebido em %s", r.cfg.Client.ResultWait)
			return 1
		case <-ctx.Done():
			r.out.warn("interrompido")
			return 1
		}
	}
}

func (r *runner) apply(ev event) eventKind {
	switch ev.kind {
	case evOpen:
		r.ctrl.ConnectionOpened()
		r.out.ok("conectado")
	case evError:
		r.ctrl.ConnectionError(ev.err)
		r.out.err("erro de conexão: %v", ev.err)
	case evClose:
		r.ctrl.ConnectionClosed()
		r.out.warn("desconectado, nova tentativa em %s", r.cfg.Client.ReconnectDelay)
	case evMessage:
		if err := r.ctrl.HandleMessage(ev.payload); err != nil {
			logrus.Debugf("[run] mensagem ignorada: %s", err.Error())
		}
		r.flushLogs()
		if r.ctrl.TakeScroll() {
			r.result = true
			r.out.result(r.ctrl.View())
		}
	}
	return ev.kind
}

func (r *runner) flushLogs() {
	logs := r.ctrl.Logs()
	if r.printed > len(logs) {
		r.printed = 0
	}
	for _, e := range logs[r.printed:] {
		r.out.entry(e)
	}
	r.printed = len(logs)
}

func (r *runner) finish(ctx context.Context, opts Options) int {
	dir := r.cfg.Client.DownloadDir
	code := 0
	if opts.ExportJSON {
		path, err := r.ctrl.ExportJSON(dir)
		if err != nil {
			r.out.err("exportar JSON: %v", err)
			code = 1
		} else if path != "" {
			r.out.ok("JSON salvo em %s", path)
		}
	}
	if opts.ExportImages {
		paths, err := session.FetchImages(ctx, r.backend, r.ctrl.ImageDownloads(), dir)
		for _, p := range paths {
			r.out.ok("imagem salva em %s", p)
		}
		if err != nil {
			r.out.err("baixar imagens: %v", err)
			code = 1
		}
	}
	return code
}
