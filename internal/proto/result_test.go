package proto

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestTierFor_ExactlyOneTier(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		s := float64(i) / 100
		got := TierFor(s)
		var want Tier
		switch {
		case s >= 8:
			want = TierHigh
		case s >= 6 && s < 8:
			want = TierMedium
		case s < 6:
			want = TierLow
		}
		if got != want {
			t.Fatalf("TierFor(%v) = %q, want %q", s, got, want)
		}
	}
}

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Tier
	}{
		{0, TierLow},
		{5.99, TierLow},
		{6, TierMedium},
		{7.999, TierMedium},
		{8, TierHigh},
		{10, TierHigh},
		{math.NaN(), TierLow},
	}
	for _, tc := range tests {
		if got := TierFor(tc.score); got != tc.want {
			t.Fatalf("TierFor(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestFormatScore(t *testing.T) {
	tests := map[float64]string{
		8:     "Nota: 8.0/10",
		7.26:  "Nota: 7.3/10",
		9.96:  "Nota: 10.0/10",
		0:     "Nota: 0.0/10",
		6.049: "Nota: 6.0/10",
	}
	for in, want := range tests {
		if got := FormatScore(in); got != want {
			t.Fatalf("FormatScore(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestImagePath(t *testing.T) {
	tests := []struct {
		dir, file, want string
	}{
		{"20250101_120000_abc", "a.png", "/outputs/20250101_120000_abc/imagens/a.png"},
		{"outputs/20250101_120000_abc", "a.png", "/outputs/20250101_120000_abc/imagens/a.png"},
		{"outputs\\20250101_120000_abc", "b.png", "/outputs/20250101_120000_abc/imagens/b.png"},
		{"/x/", "c.png", "/outputs/x/imagens/c.png"},
	}
	for _, tc := range tests {
		if got := ImagePath(tc.dir, tc.file); got != tc.want {
			t.Fatalf("ImagePath(%q, %q) = %q, want %q", tc.dir, tc.file, got, tc.want)
		}
	}
}

func TestGenerationResult_Images(t *testing.T) {
	vert := "v.png"
	empty := ""
	r := &GenerationResult{NomeImagemVert: &vert}
	if !r.HasImages() || r.VertImage() != "v.png" || r.QuadImage() != "" {
		t.Fatalf("unexpected image accessors: %+v", r)
	}
	r = &GenerationResult{NomeImagemQuad: &empty}
	if r.HasImages() {
		t.Fatalf("empty filename must not count as an image")
	}
}

func TestGenerationResult_KeepsBackendFields(t *testing.T) {
	in := `{"data_geracao":"","id_conteudos":"abc","extra":null,"nome_imagem_vert":null,"nome_imagem_quad":null,"output_dir":"outputs/d1"}`
	var r GenerationResult
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(&r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"data_geracao":""`, `"extra":null`, `"nome_imagem_vert":null`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}
