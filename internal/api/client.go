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

	"github.com/google/uuid"

	"github.com/fragmede/ativo/internal/logging"
)

const (
	defaultTimeout = 10 * time.Second
	maxConcurrent  = 4
	clientInfo     = "ativo/1.0"
)

// TokenSource yields the bearer token for table requests. An empty token
// means anonymous access with the project key.
type TokenSource interface {
	AccessToken() string
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	AnonKey    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client talks to the backend's auth (/auth/v1) and table (/rest/v1) APIs.
type Client struct {
	http    *http.Client
	baseURL string
	anonKey string
	tokens  TokenSource
	log     logging.Logger
}

// NewClient creates a backend client.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		anonKey: opts.AnonKey,
		log:     log,
	}
}

// SetTokenSource makes table requests run as the signed-in user.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

func (c *Client) bearer() string {
	if c.tokens != nil {
		if tok := c.tokens.AccessToken(); tok != "" {
			return tok
		}
	}
	return c.anonKey
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	bearer string
	header http.Header
}

// do sends req and decodes a JSON response into dst when dst is non-nil.
// Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, req request, dst any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	hr.Header.Set("apikey", c.anonKey)
	hr.Header.Set("X-Client-Info", clientInfo)
	hr.Header.Set("X-Request-Id", requestID)
	hr.Header.Set("Accept", "application/json")
	if req.body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	bearer := req.bearer
	if bearer == "" {
		bearer = c.bearer()
	}
	if bearer != "" {
		hr.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(hr)
	if err != nil {
		c.log.Warn("request failed", "method", req.method, "path", req.path, "request_id", requestID, "err", err)
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request", "method", req.method, "path", req.path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return parseAPIError(resp.StatusCode, raw)
	}

	if dst == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.path, err)
	}
	return nil
}

// insert adds one row to table and decodes the stored row into dst when dst
// is non-nil.
func (c *Client) insert(ctx context.Context, table string, row any, query url.Values, dst any) error {
	var out []json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/" + table,
		query:  query,
		body:   []any{row},
		header: http.Header{"Prefer": {"return=representation"}},
	}, &out)
	if err != nil {
		return err
	}
	if len(out) == 0 {
		return fmt.Errorf("insert into %s returned no row", table)
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(out[0], dst); err != nil {
		return fmt.Errorf("decoding %s row: %w", table, err)
	}
	return nil
}

// nullable maps blank optional columns to null.
func nullable(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}
