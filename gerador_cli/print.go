package gerador_cli

import (
	"fmt"
	"io"
	"strings"

	"gerador/internal/proto"
	"gerador/session"
)

// terminal styles
const (
	reset = "\x1b[0m"
	bold  = "\x1b[1m"
	dim   = "\x1b[2m"

	fgGray    = "\x1b[90m"
	fgRed     = "\x1b[31m"
	fgGreen   = "\x1b[32m"
	fgYellow  = "\x1b[33m"
	fgBlue    = "\x1b[34m"
	fgMagenta = "\x1b[35m"
	fgCyan    = "\x1b[36m"
)

var kindColor = map[proto.EventKind]string{
	proto.EventLog:     fgGray,
	proto.EventInfo:    fgCyan,
	proto.EventSuccess: fgGreen,
	proto.EventError:   fgRed,
}

var tierColor = map[proto.Tier]string{
	proto.TierHigh:   fgGreen,
	proto.TierMedium: fgYellow,
	proto.TierLow:    fgRed,
}

type printer struct {
	w io.Writer
}

func (p printer) header(origin string) {
	bar := strings.Repeat("─", 38)
	fmt.Fprintf(p.w, "%s%s%s\n", fgGray, bar, reset)
	fmt.Fprintf(p.w, "%s%sGerador de Conteúdos%s  •  %s%s%s\n", bold, fgCyan, reset, fgYellow, origin, reset)
	fmt.Fprintf(p.w, "%s%s%s\n", fgGray, bar, reset)
}

func (p printer) system(format string, a ...any) {
	fmt.Fprintf(p.w, "%s[sistema]%s %s\n", fgMagenta, reset, fmt.Sprintf(format, a...))
}

func (p printer) ok(format string, a ...any) {
	fmt.Fprintf(p.w, "%s✔%s %s\n", fgGreen, reset, fmt.Sprintf(format, a...))
}

func (p printer) warn(format string, a ...any) {
	fmt.Fprintf(p.w, "%s⚠%s %s\n", fgYellow, reset, fmt.Sprintf(format, a...))
}

func (p printer) err(format string, a ...any) {
	fmt.Fprintf(p.w, "%s✖%s %s\n", fgRed, reset, fmt.Sprintf(format, a...))
}

func (p printer) entry(e session.LogEntry) {
	fmt.Fprintf(p.w, "%s[%s]%s %s%s%s\n", fgGray, e.At.Format("15:04:05"), reset, kindColor[e.Kind], e.Text, reset)
}

func (p printer) result(v *session.ResultView) {
	bar := strings.Repeat("═", 38)
	fmt.Fprintf(p.w, "\n%s%s%s\n", fgBlue, bar, reset)
	fmt.Fprintf(p.w, "%s%s%s  %s%s%s\n", bold, v.Name, reset, dim, v.Type, reset)
	fmt.Fprintf(p.w, "%s%s%s  •  %s  •  id %s\n", tierColor[v.Tier], v.Score, reset, v.Iterations, v.ID)
	if v.QualityPending {
		p.warn("qualidade pendente: nota abaixo do esperado após todas as iterações")
	}
	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		fmt.Fprintf(p.w, "\n%s%s%s\n%s\n", fgYellow, title, reset, body)
	}
	section("Descrição Hotmart", v.DescHotmart)
	section("Artigo", v.Article)
	section("Legenda", v.Caption)
	section("Página de vendas", v.SalesDesc)
	section("Extra", v.Extra)

	fmt.Fprintf(p.w, "\n%sImagens%s\n", fgYellow, reset)
	if v.NoImages {
		fmt.Fprintf(p.w, "%s%s%s\n", dim, session.NoImagesNotice, reset)
	}
	for _, img := range v.Images {
		fmt.Fprintf(p.w, "  %s: %s\n", img.Title, img.URL)
	}
	fmt.Fprintf(p.w, "%s%s%s\n", fgBlue, bar, reset)
}
