// Package fetch stages remote assets on local disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/dgallion1/manualgen/internal/sink"
)

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)

// ErrTooLarge is returned when a response body exceeds the size limit.
var ErrTooLarge = errors.New("asset exceeds size limit")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
	Body string // first KiB of the response body
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("get %s: status %d: %s", e.URL, e.Code, e.Body)
}

// Client downloads assets over HTTP.
type Client struct {
	httpClient *http.Client
	maxBytes   int64
	userAgent  string
	log        *slog.Logger
}

// NewClient returns a client whose requests time out after timeout and
// whose bodies are capped at maxBytes (unbounded when <= 0).
func NewClient(timeout time.Duration, maxBytes int64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		userAgent:  "manualgen/1.0",
		log:        slog.Default(),
	}
}

// WithLogger sets the logger used for progress messages.
func (c *Client) WithLogger(log *slog.Logger) *Client {
	c.log = log
	return c
}

// Fetch downloads rawURL and writes the body to dest, replacing any file
// already there. It returns dest.
func (c *Client) Fetch(ctx context.Context, rawURL, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &StatusError{URL: rawURL, Code: resp.StatusCode, Body: string(respBody)}
	}
	if c.maxBytes > 0 && resp.ContentLength > c.maxBytes {
		return "", fmt.Errorf("get %s: %w (%d > %d bytes)", rawURL, ErrTooLarge, resp.ContentLength, c.maxBytes)
	}

	body := io.Reader(resp.Body)
	if c.maxBytes > 0 {
		body = &limitedReader{r: resp.Body, remaining: c.maxBytes}
	}
	n, err := sink.Copy(dest, body, sink.Options{CreateDirs: true})
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", rawURL, err)
	}
	c.log.Debug("asset fetched", "url", rawURL, "dest", dest, "bytes", n)
	return dest, nil
}

// limitedReader fails once more than remaining bytes are read.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

// StageAll fetches every asset into dir, in order, and returns the local
// path of each by name. The first failure aborts.
func (c *Client) StageAll(ctx context.Context, assets []plan.Asset, dir string) (map[string]string, error) {
	staged := make(map[string]string, len(assets))
	for _, a := range assets {
		dest := filepath.Join(dir, a.Name+extension(a.URL))
		c.log.Info("fetching asset", "asset", a.Name, "url", a.URL)
		if _, err := c.Fetch(ctx, a.URL, dest); err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.Name, err)
		}
		staged[a.Name] = dest
	}
	return staged, nil
}

// extension guesses a file extension from the URL path.
func extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".bin"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if !extPattern.MatchString(ext) {
		return ".bin"
	}
	return ext
}
