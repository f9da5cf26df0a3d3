package proto

import "strings"

// ActionGerar is the only action the client ever sends over the socket.
const ActionGerar = "gerar"

type LLMProvider string

const (
	LLMAnthropic LLMProvider = "anthropic"
	LLMOpenAI    LLMProvider = "openai"
	LLMGoogle    LLMProvider = "google"
	LLMDeepSeek  LLMProvider = "deepseek"
	LLMGrok      LLMProvider = "grok"
	LLMQwen      LLMProvider = "qwen"
)

// LLMProviders lists the selector options in display order.
var LLMProviders = []LLMProvider{LLMAnthropic, LLMOpenAI, LLMGoogle, LLMDeepSeek, LLMGrok, LLMQwen}

type ImageProvider string

const (
	ImageOpenAI ImageProvider = "openai"
	ImageGoogle ImageProvider = "google"
)

var ImageProviders = []ImageProvider{ImageOpenAI, ImageGoogle}

const (
	MinIteracoes     = 1
	MaxIteracoes     = 10
	DefaultIteracoes = 3
)

// JobConfig is the full set of generation options sent to the backend. It is
// built fresh for every submission.
type JobConfig struct {
	Radical       string        `json:"radical" binding:"required"`
	Insumos       string        `json:"insumos" binding:"required"`
	MaxIteracoes  int           `json:"max_iteracoes"`
	LLMProvider   LLMProvider   `json:"llm_provider"`
	ImageProvider ImageProvider `json:"image_provider"`

	GerarTipoMaterial bool `json:"gerar_tipo_material"`
	GerarDescHotmart  bool `json:"gerar_desc_hotmart"`
	GerarArtigo       bool `json:"gerar_artigo"`
	GerarLegenda      bool `json:"gerar_legenda"`
	GerarImagemVert   bool `json:"gerar_imagem_vert"`
	GerarImagemQuad   bool `json:"gerar_imagem_quad"`
	GerarNomeCriativo bool `json:"gerar_nome_criativo"`
	GerarDescPV       bool `json:"gerar_desc_pv"`

	GerarExtra  bool    `json:"gerar_extra"`
	PromptExtra *string `json:"prompt_extra"` // nil unless GerarExtra
}

// SetExtra keeps PromptExtra non-nil exactly when the extra flag is set.
func (c *JobConfig) SetExtra(enabled bool, prompt string) {
	c.GerarExtra = enabled
	if !enabled {
		c.PromptExtra = nil
		return
	}
	p := prompt
	c.PromptExtra = &p
}

// HasRequired reports whether radical and insumos are non-blank.
func (c JobConfig) HasRequired() bool {
	return strings.TrimSpace(c.Radical) != "" && strings.TrimSpace(c.Insumos) != ""
}

// Notify is the fire-and-forget message sent over the socket on submission.
type Notify struct {
	Action string    `json:"action"`
	Config JobConfig `json:"config"`
}

func NewNotify(cfg JobConfig) Notify {
	return Notify{Action: ActionGerar, Config: cfg}
}

// GenerateResponse is the reply of POST /gerar.
type GenerateResponse struct {
	Status string `json:"status"` // "success" | "error"
}

func ParseLLMProvider(s string) (LLMProvider, bool) {
	for _, p := range LLMProviders {
		if string(p) == strings.ToLower(strings.TrimSpace(s)) {
			return p, true
		}
	}
	return LLMAnthropic, false
}

func ParseImageProvider(s string) (ImageProvider, bool) {
	for _, p := range ImageProviders {
		if string(p) == strings.ToLower(strings.TrimSpace(s)) {
			return p, true
		}
	}
	return ImageOpenAI, false
}

// ClampIteracoes keeps n inside the range the backend accepts.
func ClampIteracoes(n int) int {
	switch {
	case n < MinIteracoes:
		return MinIteracoes
	case n > MaxIteracoes:
		return MaxIteracoes
	}
	return n
}
