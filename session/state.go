package session

import (
	"time"

	"gerador/internal/proto"
	"github.com/pkg/errors"
)

// State is the submission state machine:
// idle -> submitting -> (processing | rejected) -> idle.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateProcessing
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateProcessing:
		return "processing"
	case StateRejected:
		return "rejected"
	}
	return "unknown"
}

// StatusKind doubles as the status dot class.
type StatusKind string

const (
	StatusSuccess    StatusKind = "success"
	StatusError      StatusKind = "error"
	StatusProcessing StatusKind = "processing"
)

type Status struct {
	Text string
	Kind StatusKind
}

var (
	StatusReady        = Status{Text: "Pronto", Kind: StatusSuccess}
	StatusConnError    = Status{Text: "Erro de conexão", Kind: StatusError}
	StatusDisconnected = Status{Text: "Desconectado", Kind: StatusError}
	StatusBusy         = Status{Text: "Processando", Kind: StatusProcessing}
	StatusRejected     = Status{Text: "Erro", Kind: StatusError}
	// before the first open event
	StatusConnecting = Status{Text: "Conectando...", Kind: StatusProcessing}
)

const (
	LabelIdle = "🎯 Gerar Conteúdos"
	LabelBusy = "⏳ Gerando..."
)

// SubmitControl is the state of the submit button.
type SubmitControl struct {
	Enabled bool
	Label   string
}

var (
	submitIdle = SubmitControl{Enabled: true, Label: LabelIdle}
	submitBusy = SubmitControl{Enabled: false, Label: LabelBusy}
)

const (
	AlertMissingFields = "Por favor, preencha os campos obrigatórios: Radical e Insumos"
	AlertNotConnected  = "Conexão WebSocket não está disponível. Aguarde a reconexão e tente novamente."
)

var (
	ErrMissingFields = errors.New("radical and insumos are required")
	ErrNotConnected  = errors.New("websocket connection is not open")
	ErrBusy          = errors.New("a submission is already in flight")
)

// LogEntry is one line of the log view.
type LogEntry struct {
	ID   int64
	Kind proto.EventKind
	Text string
	At   time.Time
}
