package session

const (
	TabPreview     = "preview"
	TabDescHotmart = "desc-hotmart"
	TabArtigo      = "artigo"
	TabLegenda     = "legenda"
	TabImagens     = "imagens"
	TabJSON        = "json"
)

var DefaultTabs = []string{TabPreview, TabDescHotmart, TabArtigo, TabLegenda, TabImagens, TabJSON}

// Tabs is an exclusive selection: exactly one tab is active.
type Tabs struct {
	names  []string
	active int
}

func NewTabs(names ...string) *Tabs {
	cp := make([]string, len(names))
	copy(cp, names)
	return &Tabs{names: cp}
}

// Activate makes name the only active tab. Unknown names change nothing.
func (t *Tabs) Activate(name string) bool {
	for i, n := range t.names {
		if n == name {
			t.active = i
			return true
		}
	}
	return false
}

func (t *Tabs) Active() string {
	if len(t.names) == 0 {
		return ""
	}
	return t.names[t.active]
}

func (t *Tabs) IsActive(name string) bool {
	return len(t.names) > 0 && t.names[t.active] == name
}

func (t *Tabs) Names() []string { return t.names }

func (t *Tabs) Next() {
	if len(t.names) > 0 {
		t.active = (t.active + 1) % len(t.names)
	}
}

func (t *Tabs) Prev() {
	if len(t.names) > 0 {
		t.active = (t.active - 1 + len(t.names)) % len(t.names)
	}
}
