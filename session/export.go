package session

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"gerador/internal/proto"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Download is one file to fetch for the image export.
type Download struct {
	URL      string
	Filename string
}

// Fetcher retrieves a URL into w.
type Fetcher interface {
	Download(ctx context.Context, rawURL string, w io.Writer) error
}

// ExportJSON writes the current result as conteudo_<id>.json under dir and
// returns the path. Without a current result it does nothing.
func (c *Controller) ExportJSON(dir string) (string, error) {
	if c.result == nil {
		return "", nil
	}
	return WriteResultJSON(dir, c.result)
}

func WriteResultJSON(dir string, r *proto.GenerationResult) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "ensure download dir")
	}
	path := filepath.Join(dir, filepath.Base(proto.JSONFileName(r.IdConteudos)))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", errors.Wrap(err, "write result json")
	}
	return path, nil
}

// ImageDownloads lists the images of the current result. It is empty when
// there is no result or no output directory.
func (c *Controller) ImageDownloads() []Download {
	if c.result == nil || c.outputDir == "" {
		return nil
	}
	url := func(name string) string {
		if c.images != nil {
			return c.images.ImageURL(c.outputDir, name)
		}
		return proto.ImagePath(c.outputDir, name)
	}
	var out []Download
	if name := c.result.VertImage(); name != "" {
		out = append(out, Download{URL: url(name), Filename: name})
	}
	// both names land in the same directory; a shared name is fetched once
	if name := c.result.QuadImage(); name != "" &&
		(len(out) == 0 || filepath.Base(out[0].Filename) != filepath.Base(name)) {
		out = append(out, Download{URL: url(name), Filename: name})
	}
	return out
}

// FetchImages downloads every entry into dir concurrently. Each download is
// independent: a failure neither cancels nor skips the others. It returns
// the files written and the first error.
func FetchImages(ctx context.Context, f Fetcher, downloads []Download, dir string) ([]string, error) {
	if len(downloads) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "ensure download dir")
	}
	written := make([]string, len(downloads))
	var g errgroup.Group
	for i, d := range downloads {
		i, d := i, d
		g.Go(func() error {
			path := filepath.Join(dir, filepath.Base(d.Filename))
			if err := fetchOne(ctx, f, d.URL, path); err != nil {
				return errors.Wrapf(err, "download %s", d.Filename)
			}
			written[i] = path
			return nil
		})
	}
	err := g.Wait()
	out := written[:0]
	for _, p := range written {
		if p != "" {
			out = append(out, p)
		}
	}
	return out, err
}

func fetchOne(ctx context.Context, f Fetcher, url, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Download(ctx, url, file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}
