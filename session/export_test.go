package session

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gerador/internal/proto"
	"github.com/pkg/errors"
)

type fakeFetcher struct {
	mu   sync.Mutex
	fail map[string]bool
	seen []string
}

func (f *fakeFetcher) Download(ctx context.Context, rawURL string, w io.Writer) error {
	f.mu.Lock()
	f.seen = append(f.seen, rawURL)
	f.mu.Unlock()
	if _, err := io.WriteString(w, "partial"); err != nil {
		return err
	}
	if f.fail[rawURL] {
		return errors.New("404 not found")
	}
	return nil
}

func TestExportJSON_NoResult(t *testing.T) {
	c, _, _ := newTestController(true)
	dir := t.TempDir()
	path, err := c.ExportJSON(dir)
	if err != nil || path != "" {
		t.Fatalf("ExportJSON without result = %q, %v", path, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("nothing may be written without a result")
	}
}

func TestExportJSON_WritesResult(t *testing.T) {
	c, _, _ := newTestController(true)
	c.ShowResult(&proto.GenerationResult{IdConteudos: "abc", NomeCriativo: "Criativo", NotaConteudo: 7})

	dir := filepath.Join(t.TempDir(), "downloads")
	path, err := c.ExportJSON(dir)
	if err != nil {
		t.Fatalf("ExportJSON error: %v", err)
	}
	if filepath.Base(path) != "conteudo_abc.json" {
		t.Fatalf("unexpected file name %q", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	var got proto.GenerationResult
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("exported file is not json: %v", err)
	}
	if got.IdConteudos != "abc" || got.NomeCriativo != "Criativo" {
		t.Fatalf("unexpected export %+v", got)
	}
	if !strings.Contains(string(b), "\n  ") {
		t.Fatalf("expected indented json")
	}
}

func TestImageDownloads(t *testing.T) {
	c, _, _ := newTestController(true)
	if got := c.ImageDownloads(); len(got) != 0 {
		t.Fatalf("expected nothing without a result, got %+v", got)
	}

	c.ShowResult(&proto.GenerationResult{IdConteudos: "a", NomeImagemVert: strPtr("v.png")})
	if got := c.ImageDownloads(); len(got) != 0 {
		t.Fatalf("expected nothing without an output dir, got %+v", got)
	}

	c.images = fakeResolver{}
	c.ShowResult(&proto.GenerationResult{
		IdConteudos:    "b",
		NomeImagemVert: strPtr("v.png"),
		NomeImagemQuad: strPtr("q.png"),
		OutputDir:      "outputs/run_3/",
	})
	got := c.ImageDownloads()
	if len(got) != 2 {
		t.Fatalf("expected two downloads, got %+v", got)
	}
	if got[0].URL != "http://backend/outputs/run_3/imagens/v.png" || got[1].Filename != "q.png" {
		t.Fatalf("unexpected downloads %+v", got)
	}
}

func TestImageDownloads_SharedFilenameFetchedOnce(t *testing.T) {
	c, _, _ := newTestController(true)
	c.images = fakeResolver{}
	c.ShowResult(&proto.GenerationResult{
		IdConteudos:    "c",
		NomeImagemVert: strPtr("same.png"),
		NomeImagemQuad: strPtr("same.png"),
		OutputDir:      "outputs/run_4",
	})
	got := c.ImageDownloads()
	if len(got) != 1 || got[0].Filename != "same.png" {
		t.Fatalf("expected a single download, got %+v", got)
	}

	f := &fakeFetcher{}
	dir := t.TempDir()
	written, err := FetchImages(context.Background(), f, got, dir)
	if err != nil {
		t.Fatalf("FetchImages returned error: %v", err)
	}
	if len(written) != 1 || len(f.seen) != 1 {
		t.Fatalf("expected one fetch, got written=%v seen=%v", written, f.seen)
	}
	if _, err := os.Stat(filepath.Join(dir, "same.png")); err != nil {
		t.Fatalf("expected same.png on disk: %v", err)
	}
}

func TestFetchImages_IndependentDownloads(t *testing.T) {
	dir := t.TempDir()
	f := &fakeFetcher{fail: map[string]bool{"u/bad": true}}
	downloads := []Download{
		{URL: "u/good", Filename: "good.png"},
		{URL: "u/bad", Filename: "bad.png"},
		{URL: "u/other", Filename: "other.png"},
	}

	written, err := FetchImages(context.Background(), f, downloads, dir)
	if err == nil || !strings.Contains(err.Error(), "bad.png") {
		t.Fatalf("expected failure naming bad.png, got %v", err)
	}
	if len(f.seen) != 3 {
		t.Fatalf("every download must be attempted, saw %v", f.seen)
	}
	if len(written) != 2 {
		t.Fatalf("expected two files written, got %v", written)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.png")); !os.IsNotExist(err) {
		t.Fatalf("partial file for failed download must be removed")
	}
	for _, name := range []string{"good.png", "other.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestFetchImages_Empty(t *testing.T) {
	written, err := FetchImages(context.Background(), &fakeFetcher{}, nil, t.TempDir())
	if err != nil || written != nil {
		t.Fatalf("FetchImages(nil) = %v, %v", written, err)
	}
}
