package session

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gerador/internal/proto"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PlaceholderImage replaces an image that failed to load.
const PlaceholderImage = `data:image/svg+xml,%3Csvg xmlns="http://www.w3.org/2000/svg" width="100" height="100"%3E%3Crect fill="%23ddd" width="100" height="100"/%3E%3Ctext x="50" y="50" text-anchor="middle" dy=".3em"%3EImagem não disponível%3C/text%3E%3C/svg%3E`

const NoImagesNotice = "Nenhuma imagem foi gerada"

const (
	TitleVertical = "Vertical (1080x1920)"
	TitleSquare   = "Quadrada (1080x1080)"
)

type ImageEntry struct {
	Title    string
	Filename string
	URL      string
	Failed   bool
}

// Fail swaps in the placeholder. There is no retry.
func (e *ImageEntry) Fail() {
	e.URL = PlaceholderImage
	e.Failed = true
}

type Preview struct {
	Name      string
	SalesDesc string
	Type      string
}

// ResultView is everything the result pane displays for one result.
type ResultView struct {
	ID         string
	Name       string
	Type       string
	Score      string
	Tier       proto.Tier
	Iterations string
	Preview    Preview

	DescHotmart    string
	ArticleHTML    string
	Article        string // ArticleHTML rendered for the terminal
	Caption        string
	SalesDesc      string
	Extra          string
	QualityPending bool
	JSON           string

	Images       []ImageEntry
	NoImages     bool
	BulkDownload bool
}

// Render builds the view of r. Image URLs come from images, or stay
// site-relative when images is nil.
func Render(r *proto.GenerationResult, images ImageResolver) *ResultView {
	v := &ResultView{
		ID:         r.IdConteudos,
		Name:       r.NomeCriativo,
		Type:       r.TipoMaterial,
		Score:      proto.FormatScore(r.NotaConteudo),
		Tier:       proto.TierFor(r.NotaConteudo),
		Iterations: fmt.Sprintf("%d iterações", r.IteracoesRealizadas),
		Preview: Preview{
			Name:      r.NomeCriativo,
			SalesDesc: r.DescPV,
			Type:      r.TipoMaterial,
		},
		DescHotmart:    r.DescHotmart,
		ArticleHTML:    r.Artigo,
		Article:        RenderHTML(r.Artigo),
		Caption:        r.Legenda,
		SalesDesc:      r.DescPV,
		QualityPending: r.QualidadePendente,
		JSON:           prettyJSON(r),
	}
	if r.Extra != nil {
		v.Extra = *r.Extra
	}

	imageURL := func(name string) string {
		if images != nil {
			return images.ImageURL(r.OutputDir, name)
		}
		return proto.ImagePath(r.OutputDir, name)
	}
	if name := r.VertImage(); name != "" {
		v.Images = append(v.Images, ImageEntry{Title: TitleVertical, Filename: name, URL: imageURL(name)})
	}
	if name := r.QuadImage(); name != "" {
		v.Images = append(v.Images, ImageEntry{Title: TitleSquare, Filename: name, URL: imageURL(name)})
	}
	v.NoImages = len(v.Images) == 0
	v.BulkDownload = !v.NoImages
	return v
}

func prettyJSON(r *proto.GenerationResult) string {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// RenderHTML flattens an HTML fragment to plain text: block elements become
// paragraphs, list items get bullets, scripts and styles are dropped.
func RenderHTML(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return src
	}
	var b strings.Builder
	for _, n := range nodes {
		writeNode(&b, n)
	}
	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	out := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func writeNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		writeText(b, n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head, atom.Title:
			return
		case atom.Br:
			b.WriteString("\n")
			return
		case atom.Li:
			b.WriteString("\n• ")
		case atom.Hr:
			b.WriteString("\n────────\n")
			return
		default:
			if isBlock(n.DataAtom) {
				b.WriteString("\n\n")
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(b, c)
	}
	if n.Type == html.ElementNode && isBlock(n.DataAtom) {
		b.WriteString("\n\n")
	}
}

func writeText(b *strings.Builder, s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			b.WriteString(" ")
		}
		return
	}
	if s[0] == ' ' || s[0] == '\n' || s[0] == '\t' {
		b.WriteString(" ")
	}
	b.WriteString(strings.Join(fields, " "))
	last := s[len(s)-1]
	if last == ' ' || last == '\n' || last == '\t' {
		b.WriteString(" ")
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Ul, atom.Ol, atom.Blockquote, atom.Pre, atom.Table, atom.Tr:
		return true
	}
	return false
}
