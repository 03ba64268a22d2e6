package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"annotation-stats/internal/annotations"
	"annotation-stats/internal/members"
	"annotation-stats/internal/shared/telemetry"
)

const (
	defaultTimeout = 15 * time.Second
	maxPages       = 1000
	maxErrorBody   = 2048
)

// ErrNotConfigured is returned when the client has no base URL.
var ErrNotConfigured = errors.New("upstream base url not configured")

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// Client reads annotations and members from the annotation tool REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Options configures NewClient.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// Transport overrides the base round tripper. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// NewClient builds a client. A non-empty token is sent as a bearer token.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse upstream base url: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if token := strings.TrimSpace(opts.Token); token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

type annotationWire struct {
	ID          int64  `json:"id"`
	Document    int64  `json:"document"`
	Member      int64  `json:"member"`
	Category    string `json:"category"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Text        string `json:"text"`
	Perspective *int64 `json:"perspective"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type page[T any] struct {
	Results []T    `json:"results"`
	Count   int    `json:"count"`
	Next    string `json:"next"`
}

// ListAnnotations fetches every page of the project's annotations.
func (c *Client) ListAnnotations(ctx context.Context, projectID int64, filters annotations.Filters) (annotations.Page, error) {
	if projectID <= 0 {
		return annotations.Page{}, annotations.ErrInvalidProject
	}
	q := url.Values{}
	setID(q, "dataset", filters.Dataset)
	setID(q, "discussion", filters.Discussion)
	setID(q, "perspective", filters.Perspective)
	setID(q, "member", filters.Member)

	wire, err := listAll[annotationWire](ctx, c, fmt.Sprintf("/projects/%d/annotations/", projectID), q)
	if err != nil {
		return annotations.Page{}, err
	}
	out := make([]annotations.Annotation, 0, len(wire))
	for _, w := range wire {
		a, err := w.toAnnotation()
		if err != nil {
			return annotations.Page{}, fmt.Errorf("annotation %d: %w", w.ID, err)
		}
		out = append(out, a)
	}
	return annotations.Page{Results: out, Count: len(out)}, nil
}

// ListMembers fetches the project's members.
func (c *Client) ListMembers(ctx context.Context, projectID int64) ([]members.Member, error) {
	if projectID <= 0 {
		return nil, members.ErrInvalidProject
	}
	out, err := listAll[members.Member](ctx, c, fmt.Sprintf("/projects/%d/members/", projectID), nil)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []members.Member{}
	}
	return out, nil
}

// listAll follows "next" links until the last page. Endpoints answering with a
// bare JSON array are treated as a single page.
func listAll[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	next := c.baseURL + path
	if len(q) > 0 {
		next += "?" + q.Encode()
	}
	var out []T
	for i := 0; next != ""; i++ {
		if i >= maxPages {
			return nil, fmt.Errorf("upstream %s: more than %d pages", path, maxPages)
		}
		raw, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(string(raw))
		if strings.HasPrefix(trimmed, "[") {
			var items []T
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
			return append(out, items...), nil
		}
		var p page[T]
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		out = append(out, p.Results...)
		next = p.Next
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.Error("upstream.request_failed", map[string]any{"url": target, "error": err})
		return nil, fmt.Errorf("upstream GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		telemetry.Warn("upstream.bad_status", map[string]any{
			"url":    target,
			"status": resp.StatusCode,
		})
		return nil, &StatusError{Method: http.MethodGet, URL: target, StatusCode: resp.StatusCode, Body: string(body)}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	telemetry.Info("upstream.request", map[string]any{
		"url":         target,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return raw, nil
}

func (w annotationWire) toAnnotation() (annotations.Annotation, error) {
	created, err := parseTimestamp(w.CreatedAt)
	if err != nil {
		return annotations.Annotation{}, fmt.Errorf("created_at: %w", err)
	}
	updated, err := parseTimestamp(w.UpdatedAt)
	if err != nil {
		return annotations.Annotation{}, fmt.Errorf("updated_at: %w", err)
	}
	if updated.IsZero() {
		updated = created
	}
	a := annotations.Annotation{
		ID:        w.ID,
		Document:  w.Document,
		Member:    w.Member,
		Category:  w.Category,
		Start:     w.Start,
		End:       w.End,
		Text:      w.Text,
		CreatedAt: created,
		UpdatedAt: updated,
	}
	if w.Perspective != nil {
		a.Perspective = *w.Perspective
	}
	return a, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts RFC 3339 and the naive layouts Django emits without
// USE_TZ. Naive values are read as UTC. Empty input is the zero time.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func setID(q url.Values, key string, v *int64) {
	if v != nil {
		q.Set(key, strconv.FormatInt(*v, 10))
	}
}

var (
	_ annotations.Source = (*Client)(nil)
	_ members.Source     = (*Client)(nil)
)
