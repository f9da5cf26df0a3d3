package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gerador/internal/proto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	generatePath    = "/gerar"
	requestIDHeader = "X-Request-Id"
	maxErrorBody    = 512
)

// StatusError is returned for a non-2xx reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// Client talks to the backend's synchronous endpoints and static files.
type Client struct {
	base  *url.URL
	httpc *http.Client
}

// NewClient roots all requests at origin. A zero timeout leaves the
// transport's own limits in charge.
func NewClient(origin string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return nil, errors.Wrapf(err, "parse origin %q", origin)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("origin %q must be absolute", origin)
	}
	return &Client{
		base:  &url.URL{Scheme: u.Scheme, Host: u.Host},
		httpc: &http.Client{Timeout: timeout},
	}, nil
}

// Origin returns scheme://host.
func (c *Client) Origin() string { return c.base.String() }

// Resolve turns a site-relative path into an absolute URL.
func (c *Client) Resolve(p string) string {
	ref, err := url.Parse(p)
	if err != nil {
		return c.base.String() + p
	}
	return c.base.ResolveReference(ref).String()
}

// ImageURL is the absolute URL of a generated image.
func (c *Client) ImageURL(outputDir, filename string) string {
	return c.Resolve(proto.ImagePath(outputDir, filename))
}

// Generate posts cfg to /gerar and waits for the job to settle. Transport
// failures, non-2xx replies and unparseable bodies are errors. Any other JSON
// reply settles the job, with an empty Status unless the body is an object.
func (c *Client) Generate(ctx context.Context, cfg proto.JobConfig) (*proto.GenerateResponse, error) {
	body, err := json.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "marshal job config")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Resolve(generatePath), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, reqID)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "POST /gerar")
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read /gerar response")
	}
	logrus.WithFields(logrus.Fields{
		"request_id": reqID,
		"status":     resp.StatusCode,
		"elapsed":    time.Since(start).Round(time.Millisecond),
	}).Info("geração finalizada")

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(rb), maxErrorBody)}
	}
	// any JSON value settles the job; only an object can carry a status
	var raw json.RawMessage
	if err := json.Unmarshal(rb, &raw); err != nil {
		return nil, errors.Wrap(err, "decode /gerar response")
	}
	var out proto.GenerateResponse
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, errors.Wrap(err, "decode /gerar response")
		}
	}
	return &out, nil
}

// Probe checks that rawURL is retrievable without downloading it.
func (c *Client) Probe(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "build probe")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "HEAD %s", rawURL)
	}
	resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Download streams rawURL into w.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "build download")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", rawURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return errors.Wrapf(err, "copy %s", rawURL)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
