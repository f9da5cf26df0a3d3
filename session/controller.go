package session

import (
	"context"
	"time"

	"gerador/internal/proto"
	"gerador/internal/tools"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
)

// Channel is the bidirectional connection as the controller sees it.
type Channel interface {
	IsOpen() bool
	Send(v any) error
}

// Generator issues the synchronous job request.
type Generator interface {
	Generate(ctx context.Context, cfg proto.JobConfig) (*proto.GenerateResponse, error)
}

// ImageResolver turns an output dir and filename into a fetchable URL.
type ImageResolver interface {
	ImageURL(outputDir, filename string) string
}

// Pending is the deferred POST of a submission. It may run on any goroutine;
// its Settled value must be handed back through Controller.Settle.
type Pending func(ctx context.Context) Settled

type Settled struct {
	Response *proto.GenerateResponse
	Err      error
}

// Controller owns all client session state. It is not safe for concurrent
// use: connection hooks, stream messages, POST settlement and user input
// must all be applied from one goroutine.
type Controller struct {
	ch     Channel
	gen    Generator
	images ImageResolver
	log    *logrus.Entry

	malformed metrics.Counter
	results   metrics.Counter

	state  State
	status Status
	submit SubmitControl

	logs          []LogEntry
	logsVisible   bool
	resultVisible bool
	scroll        bool

	result    *proto.GenerationResult
	outputDir string
	view      *ResultView
	tabs      *Tabs
	alert     string
}

func New(ch Channel, gen Generator, images ImageResolver, reg metrics.Registry) *Controller {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Controller{
		ch:        ch,
		gen:       gen,
		images:    images,
		log:       logrus.WithField("component", "session"),
		malformed: metrics.GetOrRegisterCounter("session.malformed_messages", reg),
		results:   metrics.GetOrRegisterCounter("session.results", reg),
		state:     StateIdle,
		status:    StatusConnecting,
		submit:    submitIdle,
		tabs:      NewTabs(DefaultTabs...),
	}
}

// Submit validates the form and, when the socket is open, moves to
// processing: the notification goes out immediately and the returned Pending
// performs the POST with the same config.
func (c *Controller) Submit(form Form) (Pending, error) {
	if !c.submit.Enabled {
		return nil, ErrBusy
	}
	cfg := form.JobConfig()
	if !cfg.HasRequired() {
		c.alert = AlertMissingFields
		return nil, ErrMissingFields
	}

	c.state = StateSubmitting
	if c.ch == nil || !c.ch.IsOpen() {
		c.state = StateRejected
		c.alert = AlertNotConnected
		c.submit = submitIdle
		c.status = StatusRejected
		c.log.Warn("submit rejected: websocket not open")
		c.state = StateIdle
		return nil, ErrNotConnected
	}

	c.state = StateProcessing
	c.logs = nil
	c.resultVisible = false
	c.logsVisible = true
	c.submit = submitBusy
	c.status = StatusBusy

	if err := c.ch.Send(proto.NewNotify(cfg)); err != nil {
		c.log.Warnf("notify send err: %s", err.Error())
	}
	c.log.WithField("radical", cfg.Radical).Info("job submitted")

	gen := c.gen
	return func(ctx context.Context) Settled {
		resp, err := gen.Generate(ctx, cfg)
		return Settled{Response: resp, Err: err}
	}, nil
}

// Settle applies the outcome of the POST. Whatever the outcome, the submit
// control comes back and status returns to ready, even if the job's
// resultado has not arrived yet.
func (c *Controller) Settle(s Settled) {
	if s.Err != nil {
		c.log.Errorf("geração err: %s", s.Err.Error())
		c.appendLog(proto.EventError, "Erro: "+s.Err.Error())
	} else if s.Response != nil {
		c.log.Infof("geração finalizada: %s", s.Response.Status)
	}
	c.submit = submitIdle
	c.status = StatusReady
	c.state = StateIdle
}

func (c *Controller) ConnectionOpened() {
	c.status = StatusReady
}

func (c *Controller) ConnectionError(err error) {
	if err != nil {
		c.log.Errorf("websocket err: %s", err.Error())
	}
	c.status = StatusConnError
}

func (c *Controller) ConnectionClosed() {
	c.log.Info("websocket disconnected")
	c.status = StatusDisconnected
}

// HandleMessage applies one inbound payload. A malformed payload is logged
// and dropped; the returned error is informational only.
func (c *Controller) HandleMessage(raw []byte) error {
	ev, err := proto.DecodeStreamEvent(raw)
	if err != nil {
		c.malformed.Inc(1)
		c.log.Warnf("erro ao processar mensagem: %s", err.Error())
		return err
	}
	switch {
	case ev.Type.IsLog():
		c.appendLog(ev.Type, ev.Message)
	case ev.Type == proto.EventResultado:
		c.ShowResult(ev.Data)
	default:
		c.log.Debugf("ignoring stream event type %q", ev.Type)
	}
	return nil
}

// ShowResult makes r the current result, replacing any previous one.
func (c *Controller) ShowResult(r *proto.GenerationResult) {
	if r == nil {
		return
	}
	cp := *r
	c.result = &cp
	c.outputDir = proto.OutputDirName(cp.OutputDir)
	c.view = Render(&cp, c.images)
	c.resultVisible = true
	c.scroll = true
	c.results.Inc(1)
}

// ImageFailed swaps the placeholder in for a broken image of the current
// result. Reports for an older result are ignored.
func (c *Controller) ImageFailed(resultID, filename string) {
	if c.view == nil || c.view.ID != resultID {
		return
	}
	for i := range c.view.Images {
		if c.view.Images[i].Filename == filename {
			c.view.Images[i].Fail()
		}
	}
}

// ActivateTab switches the result view mode.
func (c *Controller) ActivateTab(name string) bool {
	return c.tabs.Activate(name)
}

func (c *Controller) appendLog(kind proto.EventKind, text string) {
	c.logs = append(c.logs, LogEntry{
		ID:   tools.GetSnowflakeIdForInt64(),
		Kind: kind,
		Text: text,
		At:   time.Now(),
	})
}

func (c *Controller) State() State             { return c.state }
func (c *Controller) Status() Status           { return c.status }
func (c *Controller) Submitter() SubmitControl { return c.submit }
func (c *Controller) LogsVisible() bool        { return c.logsVisible }
func (c *Controller) ResultVisible() bool      { return c.resultVisible }
func (c *Controller) OutputDir() string        { return c.outputDir }
func (c *Controller) View() *ResultView        { return c.view }
func (c *Controller) Tabs() *Tabs              { return c.tabs }

// Busy reports whether a submission is in flight.
func (c *Controller) Busy() bool { return !c.submit.Enabled }

// Logs returns a copy of the log view in display order.
func (c *Controller) Logs() []LogEntry {
	out := make([]LogEntry, len(c.logs))
	copy(out, c.logs)
	return out
}

// Result returns the current result or nil.
func (c *Controller) Result() *proto.GenerationResult { return c.result }

// TakeAlert returns the pending user-facing alert and clears it.
func (c *Controller) TakeAlert() string {
	a := c.alert
	c.alert = ""
	return a
}

// TakeScroll reports once that the result view should be scrolled into view.
func (c *Controller) TakeScroll() bool {
	s := c.scroll
	c.scroll = false
	return s
}
