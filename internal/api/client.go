// Package api is the HTTP client for the editorial REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/resolver"
	"golang.org/x/oauth2"
)

// Snapshot is one entry of a snapshot list.
type Snapshot struct {
	ID         string            `json:"id"`
	AuthorName string            `json:"author_name"`
	CreatedAt  time.Time         `json:"created_at"`
	FlowCode   domain.FlowCode   `json:"flow_code"`
	StatusCode domain.StatusCode `json:"status_code,omitempty"`
}

// Client provides access to documents, manageable items and snapshots.
type Client interface {
	GetDocument(ctx context.Context, kind domain.DocumentKind, experienceID, languageCode string) (map[string]any, error)
	PatchDocument(ctx context.Context, kind domain.DocumentKind, experienceID string, body any) error

	// CreateItem posts a new item and returns the id the server assigned.
	CreateItem(ctx context.Context, endpoint string, item resolver.Payload) (string, error)
	UpdateItem(ctx context.Context, endpoint, id string, item resolver.Payload) error
	DeleteItem(ctx context.Context, endpoint, id string) error

	// ListSnapshots reads the ndjson snapshot stream of one document.
	ListSnapshots(ctx context.Context, kind domain.DocumentKind, experienceID, languageCode string) ([]Snapshot, error)
}

type httpClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewClient creates a Client. A non-empty token is sent as a bearer token
// on every request.
func NewClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	var transport http.RoundTripper = &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).DialContext,
	}
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}
	return &httpClient{
		cfg:      cfg,
		http:     &http.Client{Transport: transport},
		observer: observer,
	}
}

func (c *httpClient) GetDocument(ctx context.Context, kind domain.DocumentKind, experienceID, languageCode string) (map[string]any, error) {
	q := url.Values{}
	if languageCode != "" {
		q.Set("language_code", languageCode)
	}
	var doc map[string]any
	err := c.call(ctx, http.MethodGet, documentPath(kind, experienceID), q, nil, decodeJSON(&doc))
	if err != nil {
		return nil, fmt.Errorf("get %s document %s: %w", kind, experienceID, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func (c *httpClient) PatchDocument(ctx context.Context, kind domain.DocumentKind, experienceID string, body any) error {
	if err := c.call(ctx, http.MethodPatch, documentPath(kind, experienceID), nil, body, nil); err != nil {
		return fmt.Errorf("patch %s document %s: %w", kind, experienceID, err)
	}
	return nil
}

func (c *httpClient) CreateItem(ctx context.Context, endpoint string, item resolver.Payload) (string, error) {
	var created struct {
		ID json.RawMessage `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "/v1/"+endpoint, nil, item, decodeJSON(&created)); err != nil {
		return "", fmt.Errorf("create %s: %w", endpoint, err)
	}
	id := idString(created.ID)
	if id == "" {
		return "", fmt.Errorf("create %s: %w: response has no id", endpoint, ErrInvalidResponse)
	}
	return id, nil
}

func (c *httpClient) UpdateItem(ctx context.Context, endpoint, id string, item resolver.Payload) error {
	if err := c.call(ctx, http.MethodPut, itemPath(endpoint, id), nil, item, nil); err != nil {
		return fmt.Errorf("update %s/%s: %w", endpoint, id, err)
	}
	return nil
}

func (c *httpClient) DeleteItem(ctx context.Context, endpoint, id string) error {
	if err := c.call(ctx, http.MethodDelete, itemPath(endpoint, id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", endpoint, id, err)
	}
	return nil
}

func (c *httpClient) ListSnapshots(ctx context.Context, kind domain.DocumentKind, experienceID, languageCode string) ([]Snapshot, error) {
	q := url.Values{}
	q.Set("experience_id", experienceID)
	if languageCode != "" {
		q.Set("language_code", languageCode)
	}
	var snaps []Snapshot
	decode := func(r io.Reader) error {
		snaps = snaps[:0]
		dec := json.NewDecoder(r)
		for {
			var s Snapshot
			err := dec.Decode(&s)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
			}
			snaps = append(snaps, s)
		}
	}
	if err := c.call(ctx, http.MethodGet, "/v1/"+string(kind)+"-snapshots", q, nil, decode); err != nil {
		return nil, fmt.Errorf("list %s snapshots of %s: %w", kind, experienceID, err)
	}
	return snaps, nil
}

// call runs one request under the configured timeout, retrying reads on
// transient failures, and reports the outcome to the observer.
func (c *httpClient) call(ctx context.Context, method, path string, query url.Values, body any, decode func(io.Reader) error) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout())
	defer cancel()

	attempts := 1
	if method == http.MethodGet {
		attempts += c.cfg.MaxRetries
	}

	var (
		status int
		err    error
		tries  int
	)
	for tries < attempts {
		tries++
		status, err = c.doRequest(ctx, method, path, query, body, decode)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			break
		}
	}

	err = classify(ctx, err)
	c.observer.OnCallComplete(CallEvent{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Attempts:   tries,
		LatencyMs:  time.Since(start).Milliseconds(),
		Success:    err == nil,
		ErrorCode:  errorCode(err),
	})
	return err
}

func (c *httpClient) doRequest(ctx context.Context, method, path string, query url.Values, body any, decode func(io.Reader) error) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/x-ndjson")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, decodeError(resp.StatusCode, raw)
	}
	if decode == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, decode(resp.Body)
}

func decodeJSON(out any) func(io.Reader) error {
	return func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nil
	}
}

func decodeError(status int, raw []byte) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &body)
	if ctor, ok := domainErrors[body.Code]; ok {
		return ctor(DomainAPIError{StatusCode: status, Code: body.Code, Message: body.Message})
	}
	return &StatusError{
		StatusCode: status,
		Code:       body.Code,
		Message:    body.Message,
		Body:       strings.TrimSpace(string(raw)),
	}
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return isConnectionError(err)
}

func classify(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case isConnectionError(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	var (
		dom *DomainAPIError
		se  *StatusError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidResponse):
		return "INVALID_RESPONSE"
	case errors.As(err, &dom):
		return dom.Code
	case errors.As(err, &se):
		return fmt.Sprintf("HTTP_%d", se.StatusCode)
	default:
		return "UNKNOWN"
	}
}

func documentPath(kind domain.DocumentKind, experienceID string) string {
	return "/v1/" + string(kind) + "/" + url.PathEscape(experienceID)
}

func itemPath(endpoint, id string) string {
	return "/v1/" + endpoint + "/" + url.PathEscape(id)
}

// idString accepts both string and numeric ids.
func idString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
