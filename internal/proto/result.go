package proto

import (
	"fmt"
	"math"
	"path"
	"strings"
)

// GenerationResult is the backend's final output for one job.
type GenerationResult struct {
	DataGeracao         string  `json:"data_geracao"`
	IdConteudos         string  `json:"id_conteudos"`
	TipoMaterial        string  `json:"tipo_material"`
	DescHotmart         string  `json:"desc_hotmart"`
	Artigo              string  `json:"artigo"` // HTML
	Legenda             string  `json:"legenda"`
	NomeImagemVert      *string `json:"nome_imagem_vert"`
	NomeImagemQuad      *string `json:"nome_imagem_quad"`
	NomeCriativo        string  `json:"nome_criativo"`
	DescPV              string  `json:"desc_pv"`
	Extra               *string `json:"extra"`
	NotaConteudo        float64 `json:"nota_conteudo"`
	IteracoesRealizadas int     `json:"iteracoes_realizadas"`
	QualidadePendente   bool    `json:"qualidade_pendente"`
	OutputDir           string  `json:"output_dir"`
	JSONPath            string  `json:"json_path,omitempty"`
}

// HasImages reports whether at least one image was generated.
func (r *GenerationResult) HasImages() bool {
	return nonEmpty(r.NomeImagemVert) || nonEmpty(r.NomeImagemQuad)
}

// VertImage and QuadImage return "" when that image type was not generated.
func (r *GenerationResult) VertImage() string { return deref(r.NomeImagemVert) }
func (r *GenerationResult) QuadImage() string { return deref(r.NomeImagemQuad) }

// Tier is the severity bucket of a content score; values double as style
// class names.
type Tier string

const (
	TierHigh   Tier = "high-score"
	TierMedium Tier = "medium-score"
	TierLow    Tier = "low-score"
)

// TierFor buckets a score: >=8 high, >=6 medium, anything else low.
func TierFor(score float64) Tier {
	switch {
	case score >= 8:
		return TierHigh
	case score >= 6:
		return TierMedium
	default:
		return TierLow
	}
}

// FormatScore renders a score with one decimal place.
func FormatScore(score float64) string {
	if math.IsNaN(score) {
		score = 0
	}
	return fmt.Sprintf("Nota: %.1f/10", score)
}

const outputsRoot = "outputs"

// OutputDirName strips the "outputs/" root the backend sometimes prefixes,
// leaving the directory name the image template expects.
func OutputDirName(dir string) string {
	dir = strings.Trim(strings.ReplaceAll(strings.TrimSpace(dir), "\\", "/"), "/")
	return strings.TrimPrefix(dir, outputsRoot+"/")
}

// ImagePath builds /outputs/<output_dir>/imagens/<filename>.
func ImagePath(outputDir, filename string) string {
	return "/" + path.Join(outputsRoot, OutputDirName(outputDir), "imagens", filename)
}

// JSONFileName is the export name for a result.
func JSONFileName(id string) string {
	return "conteudo_" + id + ".json"
}

func nonEmpty(s *string) bool { return s != nil && *s != "" }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
