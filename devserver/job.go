package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gerador/internal/proto"
	"gerador/internal/tools"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	scriptedIterations = 2
	passingScore       = 8.0
)

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", " ", "_")

// process replays a scripted generation: progress events, image files and
// finally the resultado. It mirrors the real backend's event sequence
// without calling any model.
func (s *Server) process(ctx context.Context, cfg proto.JobConfig) (*proto.GenerationResult, error) {
	s.emit(ctx, proto.LogEvent(proto.EventInfo, "🚀 Iniciando geração de conteúdos..."))
	s.emit(ctx, proto.LogEvent(proto.EventInfo, fmt.Sprintf("🤖 Usando LLM: %s", cfg.LLMProvider)))

	iterations := min(scriptedIterations, max(cfg.MaxIteracoes, proto.MinIteracoes))
	score := passingScore + 0.5
	if iterations < scriptedIterations {
		score = passingScore - 0.5
	}
	for i := 1; i <= iterations; i++ {
		ts := time.Now().Format("15:04:05")
		s.emit(ctx, proto.LogEvent(proto.EventLog, fmt.Sprintf("[%s] Iteração %d/%d: gerando conteúdo", ts, i, cfg.MaxIteracoes)))
		s.emit(ctx, proto.LogEvent(proto.EventLog, fmt.Sprintf("[%s] Avaliação da iteração %d concluída", ts, i)))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()[:10]
	stamp := tools.GetNowStamp()
	dirName := stamp + "_" + id
	outputDir := path.Join("outputs", dirName)
	imagesDir := filepath.Join(s.cfg.OutputsDir, dirName, "imagens")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output dir")
	}
	s.emit(ctx, proto.LogEvent(proto.EventInfo, "📁 Pasta criada: "+outputDir))

	r := &proto.GenerationResult{
		DataGeracao:         tools.GetNowDateTime(),
		IdConteudos:         id,
		NotaConteudo:        score,
		IteracoesRealizadas: iterations,
		QualidadePendente:   score < passingScore && iterations >= cfg.MaxIteracoes,
		OutputDir:           outputDir,
	}
	fillContent(r, cfg)

	if cfg.GerarImagemVert || cfg.GerarImagemQuad {
		s.emit(ctx, proto.LogEvent(proto.EventInfo, "🎨 Gerando imagens..."))
	}
	tipo := strings.ReplaceAll(r.TipoMaterial, " ", "")
	for _, img := range []struct {
		enabled bool
		suffix  string
		target  **string
		label   string
	}{
		{cfg.GerarImagemVert, "Vert", &r.NomeImagemVert, "vertical"},
		{cfg.GerarImagemQuad, "Quad", &r.NomeImagemQuad, "quadrada"},
	} {
		if !img.enabled {
			continue
		}
		name := fileNameReplacer.Replace(fmt.Sprintf("%s_%s_%s_%s.png", cfg.Radical, tipo, img.suffix, stamp))
		if err := writePNG(filepath.Join(imagesDir, name)); err != nil {
			return nil, err
		}
		*img.target = &name
		s.emit(ctx, proto.LogEvent(proto.EventSuccess, fmt.Sprintf("✅ Imagem %s gerada: %s", img.label, name)))
	}

	jsonPath := path.Join(outputDir, "conteudo.json")
	r.JSONPath = jsonPath
	if err := writeJSON(filepath.Join(s.cfg.OutputsDir, dirName, "conteudo.json"), r); err != nil {
		return nil, err
	}
	s.emit(ctx, proto.LogEvent(proto.EventSuccess, "✅ JSON salvo: "+jsonPath))

	s.emit(ctx, proto.ResultEvent(r))
	s.emit(ctx, proto.LogEvent(proto.EventSuccess, fmt.Sprintf("🎉 Geração concluída! Nota final: %.1f/10", score)))
	return r, nil
}

// emit broadcasts ev and then waits the configured step delay.
func (s *Server) emit(ctx context.Context, ev proto.StreamEvent) {
	if err := s.hub.Broadcast(ev); err != nil {
		s.log.Warnf("broadcast err:%s", err.Error())
	}
	if s.cfg.StepDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.cfg.StepDelay):
	}
}

func fillContent(r *proto.GenerationResult, cfg proto.JobConfig) {
	if cfg.GerarTipoMaterial {
		r.TipoMaterial = "Ebook"
	}
	if cfg.GerarNomeCriativo {
		r.NomeCriativo = "Guia Definitivo: " + cfg.Radical
	}
	if cfg.GerarDescHotmart {
		r.DescHotmart = fmt.Sprintf("Domine %s com um material direto ao ponto.", cfg.Radical)
	}
	if cfg.GerarArtigo {
		r.Artigo = fmt.Sprintf("<h2>%s</h2><p>Conteúdo elaborado a partir de: %s</p><ul><li>Teoria</li><li>Prática</li></ul>",
			cfg.Radical, cfg.Insumos)
	}
	if cfg.GerarLegenda {
		r.Legenda = fmt.Sprintf("📚 %s: tudo o que você precisa em um só lugar!", cfg.Radical)
	}
	if cfg.GerarDescPV {
		r.DescPV = "Página de vendas: " + cfg.Radical
	}
	if cfg.GerarExtra && cfg.PromptExtra != nil && *cfg.PromptExtra != "" {
		extra := "Extra: " + *cfg.PromptExtra
		r.Extra = &extra
	}
}

func writePNG(name string) error {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 0x66, G: 0x7e, B: 0xea, A: 0xff})
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "create image")
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrap(err, "encode image")
	}
	return f.Close()
}

func writeJSON(name string, r *proto.GenerationResult) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal result")
	}
	return errors.Wrap(os.WriteFile(name, b, 0o644), "write result")
}

func fileExists(name string) bool {
	st, err := os.Stat(name)
	return err == nil && !st.IsDir()
}
