package session

import (
	"strings"

	"gerador/config"
	"gerador/internal/proto"
)

// Form is the raw state of the input form.
type Form struct {
	Radical       string
	Insumos       string
	MaxIteracoes  int
	LLMProvider   proto.LLMProvider
	ImageProvider proto.ImageProvider

	TipoMaterial bool
	DescHotmart  bool
	Artigo       bool
	Legenda      bool
	ImagemVert   bool
	ImagemQuad   bool
	NomeCriativo bool
	DescPV       bool

	Extra       bool
	PromptExtra string
}

// DefaultForm mirrors the backend's defaults: everything on except the
// sales-page description and the extra item.
func DefaultForm(d config.FormDefaults) Form {
	llm, _ := proto.ParseLLMProvider(d.LLMProvider)
	img, _ := proto.ParseImageProvider(d.ImageProvider)
	n := d.MaxIteracoes
	if n == 0 {
		n = proto.DefaultIteracoes
	}
	return Form{
		MaxIteracoes:  proto.ClampIteracoes(n),
		LLMProvider:   llm,
		ImageProvider: img,
		TipoMaterial:  true,
		DescHotmart:   true,
		Artigo:        true,
		Legenda:       true,
		ImagemVert:    true,
		ImagemQuad:    true,
		NomeCriativo:  true,
	}
}

// JobConfig builds a fresh config from the current form state.
func (f Form) JobConfig() proto.JobConfig {
	cfg := proto.JobConfig{
		Radical:           strings.TrimSpace(f.Radical),
		Insumos:           strings.TrimSpace(f.Insumos),
		MaxIteracoes:      f.MaxIteracoes,
		LLMProvider:       f.LLMProvider,
		ImageProvider:     f.ImageProvider,
		GerarTipoMaterial: f.TipoMaterial,
		GerarDescHotmart:  f.DescHotmart,
		GerarArtigo:       f.Artigo,
		GerarLegenda:      f.Legenda,
		GerarImagemVert:   f.ImagemVert,
		GerarImagemQuad:   f.ImagemQuad,
		GerarNomeCriativo: f.NomeCriativo,
		GerarDescPV:       f.DescPV,
	}
	cfg.SetExtra(f.Extra, f.PromptExtra)
	return cfg
}
