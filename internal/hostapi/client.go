// Package hostapi talks to a note-taking host's REST document API and
// exposes it as a vault.
package hostapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dgallion1/contextcat/internal/vault"
)

// Client communicates with the host document API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// listing is the response of GET /vault/{dir}/.
type listing struct {
	Files []string `json:"files"`
}

// activeNote is the JSON form of GET /active/.
type activeNote struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Lookup returns the entry at p. Folders are listed recursively, one request
// per folder. A path is classified by its parent's listing, where folder
// names carry a trailing slash.
func (c *Client) Lookup(ctx context.Context, p string) (vault.Entry, error) {
	p = vault.Clean(p)
	if p == "" {
		return c.folder(ctx, p)
	}

	parent, name := path.Split(p)
	names, err := c.list(ctx, vault.Clean(parent))
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		switch n {
		case name + "/":
			return c.folder(ctx, p)
		case name:
			return vault.File{Path: p}, nil
		}
	}
	return nil, fmt.Errorf("lookup %q: %w", p, vault.ErrNotFound)
}

// list returns the raw names of one folder level.
func (c *Client) list(ctx context.Context, p string) ([]string, error) {
	var l listing
	if err := c.getJSON(ctx, c.vaultURL(p)+"/", &l); err != nil {
		return nil, fmt.Errorf("list %q: %w", p, err)
	}
	return l.Files, nil
}

func (c *Client) folder(ctx context.Context, p string) (vault.Folder, error) {
	names, err := c.list(ctx, p)
	if err != nil {
		return vault.Folder{}, err
	}

	folder := vault.Folder{Path: p}
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		if dir, ok := strings.CutSuffix(name, "/"); ok {
			sub, err := c.folder(ctx, path.Join(p, dir))
			if err != nil {
				return vault.Folder{}, err
			}
			folder.Children = append(folder.Children, sub)
			continue
		}
		folder.Children = append(folder.Children, vault.File{Path: path.Join(p, name)})
	}
	return folder, nil
}

// Read returns the raw Markdown of the document at p.
func (c *Client) Read(ctx context.Context, p string) (string, error) {
	p = vault.Clean(p)
	body, err := c.do(ctx, http.MethodGet, c.vaultURL(p), nil, map[string]string{"Accept": "text/markdown"})
	if err != nil {
		return "", fmt.Errorf("read %q: %w", p, err)
	}
	return string(body), nil
}

// Write replaces the document at p.
func (c *Client) Write(ctx context.Context, p string, content string) error {
	p = vault.Clean(p)
	_, err := c.do(ctx, http.MethodPut, c.vaultURL(p), []byte(content), map[string]string{"Content-Type": "text/markdown"})
	if err != nil {
		return fmt.Errorf("write %q: %w", p, err)
	}
	return nil
}

// Active returns the path of the document focused in the host.
func (c *Client) Active(ctx context.Context) (string, error) {
	var note activeNote
	if err := c.getJSON(ctx, c.baseURL+"/active/", &note); err != nil {
		return "", fmt.Errorf("active document: %w", err)
	}
	return vault.Clean(note.Path), nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	body, err := c.do(ctx, http.MethodGet, u, nil, map[string]string{"Accept": "application/vnd.olrapi.note+json, application/json"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do performs one request, retrying transient failures.
func (c *Client) do(ctx context.Context, method, u string, payload []byte, headers map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		body, err := c.once(ctx, method, u, payload, headers)
		if err == nil || !IsRetryable(err) {
			return body, err
		}
		lastErr = err
		if attempt == MaxRetries-1 {
			break
		}
		c.log.Warn("retryable host error", "method", method, "url", u, "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, method, u string, payload []byte, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, vault.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// vaultURL escapes each segment of p under /vault/.
func (c *Client) vaultURL(p string) string {
	if p == "" {
		return c.baseURL + "/vault"
	}
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return c.baseURL + "/vault/" + strings.Join(segs, "/")
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

const maxBodyBytes = 32 << 20

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
