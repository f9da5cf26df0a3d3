package client

import (
	"fmt"
	"strings"

	"gerador/config"
	"gerador/internal/proto"
	"gerador/session"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type field int

const (
	fieldRadical field = iota
	fieldInsumos
	fieldIteracoes
	fieldLLM
	fieldImage
	fieldTipoMaterial
	fieldDescHotmart
	fieldArtigo
	fieldLegenda
	fieldImagemVert
	fieldImagemQuad
	fieldNomeCriativo
	fieldDescPV
	fieldExtra
	fieldPromptExtra
	fieldSubmit
	fieldResult
	fieldCount
)

var checkboxLabels = map[field]string{
	fieldTipoMaterial: "Tipo de material",
	fieldDescHotmart:  "Descrição Hotmart",
	fieldArtigo:       "Artigo",
	fieldLegenda:      "Legenda",
	fieldImagemVert:   "Imagem vertical",
	fieldImagemQuad:   "Imagem quadrada",
	fieldNomeCriativo: "Nome criativo",
	fieldDescPV:       "Descrição página de vendas",
	fieldExtra:        "Item extra",
}

// formModel holds the input widgets. Text lives in the widgets, everything
// else in values.
type formModel struct {
	radical textinput.Model
	insumos textarea.Model
	prompt  textinput.Model
	values  session.Form
	focus   field
}

func newFormModel(d config.FormDefaults) formModel {
	radical := textinput.New()
	radical.Placeholder = "Ex: Curso de Marketing Digital"
	radical.CharLimit = 200
	radical.Prompt = ""

	insumos := textarea.New()
	insumos.Placeholder = "Material de referência, tópicos, público-alvo..."
	insumos.ShowLineNumbers = false
	insumos.SetHeight(4)

	prompt := textinput.New()
	prompt.Placeholder = "Descreva o item extra"
	prompt.Prompt = ""

	f := formModel{
		radical: radical,
		insumos: insumos,
		prompt:  prompt,
		values:  session.DefaultForm(d),
	}
	f.radical.Focus()
	return f
}

// Form snapshots the current input state.
func (f *formModel) Form() session.Form {
	form := f.values
	form.Radical = f.radical.Value()
	form.Insumos = f.insumos.Value()
	form.PromptExtra = f.prompt.Value()
	return form
}

func (f *formModel) setWidth(w int) {
	if w < 20 {
		w = 20
	}
	f.radical.Width = w
	f.prompt.Width = w
	f.insumos.SetWidth(w)
}

func (f *formModel) checkbox(fl field) *bool {
	switch fl {
	case fieldTipoMaterial:
		return &f.values.TipoMaterial
	case fieldDescHotmart:
		return &f.values.DescHotmart
	case fieldArtigo:
		return &f.values.Artigo
	case fieldLegenda:
		return &f.values.Legenda
	case fieldImagemVert:
		return &f.values.ImagemVert
	case fieldImagemQuad:
		return &f.values.ImagemQuad
	case fieldNomeCriativo:
		return &f.values.NomeCriativo
	case fieldDescPV:
		return &f.values.DescPV
	case fieldExtra:
		return &f.values.Extra
	}
	return nil
}

// visible reports whether fl can take focus. The extra prompt only exists
// while the extra item is checked.
func (f *formModel) visible(fl field, resultVisible bool) bool {
	switch fl {
	case fieldPromptExtra:
		return f.values.Extra
	case fieldResult:
		return resultVisible
	}
	return true
}

func (f *formModel) move(delta int, resultVisible bool) tea.Cmd {
	next := f.focus
	for i := field(0); i < fieldCount; i++ {
		next = (next + field(delta) + fieldCount) % fieldCount
		if f.visible(next, resultVisible) {
			break
		}
	}
	return f.focusOn(next)
}

func (f *formModel) focusOn(fl field) tea.Cmd {
	f.radical.Blur()
	f.insumos.Blur()
	f.prompt.Blur()
	f.focus = fl
	switch fl {
	case fieldRadical:
		return f.radical.Focus()
	case fieldInsumos:
		return f.insumos.Focus()
	case fieldPromptExtra:
		return f.prompt.Focus()
	}
	return nil
}

// adjust steps the focused selector.
func (f *formModel) adjust(delta int) {
	switch f.focus {
	case fieldIteracoes:
		f.values.MaxIteracoes = proto.ClampIteracoes(f.values.MaxIteracoes + delta)
	case fieldLLM:
		f.values.LLMProvider = cycle(proto.LLMProviders, f.values.LLMProvider, delta)
	case fieldImage:
		f.values.ImageProvider = cycle(proto.ImageProviders, f.values.ImageProvider, delta)
	}
}

func cycle[T comparable](opts []T, cur T, delta int) T {
	i := 0
	for j, o := range opts {
		if o == cur {
			i = j
			break
		}
	}
	return opts[(i+delta%len(opts)+len(opts))%len(opts)]
}

// toggle flips the focused checkbox. Leaving the extra item unchecked hides
// its prompt, but keeps the text for when it is checked again.
func (f *formModel) toggle() bool {
	b := f.checkbox(f.focus)
	if b == nil {
		return false
	}
	*b = !*b
	return true
}

func (f *formModel) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldRadical:
		f.radical, cmd = f.radical.Update(msg)
	case fieldInsumos:
		f.insumos, cmd = f.insumos.Update(msg)
	case fieldPromptExtra:
		f.prompt, cmd = f.prompt.Update(msg)
	}
	return cmd
}

func (f *formModel) label(fl field, text string) string {
	if f.focus == fl {
		return focusStyle.Render("▸ " + text)
	}
	return labelStyle.Render("  " + text)
}

func (f *formModel) view(submit session.SubmitControl) string {
	var b strings.Builder
	b.WriteString(f.label(fieldRadical, "Radical *") + "\n  " + f.radical.View() + "\n")
	b.WriteString(f.label(fieldInsumos, "Insumos *") + "\n" + f.insumos.View() + "\n")
	b.WriteString(f.label(fieldIteracoes, fmt.Sprintf("Máx. iterações: ◂ %d ▸", f.values.MaxIteracoes)) + "\n")
	b.WriteString(f.label(fieldLLM, fmt.Sprintf("Provedor LLM: ◂ %s ▸", f.values.LLMProvider)) + "\n")
	b.WriteString(f.label(fieldImage, fmt.Sprintf("Provedor de imagem: ◂ %s ▸", f.values.ImageProvider)) + "\n")
	for fl := fieldTipoMaterial; fl <= fieldExtra; fl++ {
		mark := "[ ]"
		if *f.checkbox(fl) {
			mark = "[x]"
		}
		b.WriteString(f.label(fl, mark+" "+checkboxLabels[fl]) + "\n")
	}
	if f.values.Extra {
		b.WriteString(f.label(fieldPromptExtra, "Prompt do extra") + "\n  " + f.prompt.View() + "\n")
	}

	style := buttonStyle
	switch {
	case !submit.Enabled:
		style = buttonDisabledStyle
	case f.focus == fieldSubmit:
		style = buttonFocusStyle
	}
	b.WriteString("\n" + style.Render(submit.Label))
	return b.String()
}
