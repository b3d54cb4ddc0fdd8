package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vidalevel/habits/internal/logger"
	"golang.org/x/oauth2"
)

const DefaultStatsPath = "/stats/me"

// TokenSource yields the current bearer token, if a valid one exists.
type TokenSource interface {
	OAuthToken() (*oauth2.Token, bool)
}

type Client struct {
	BaseURL   string
	StatsPath string
	HTTP      *http.Client
	Tokens    TokenSource
}

func New(base string, tokens TokenSource) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(base, "/"),
		StatsPath: DefaultStatsPath,
		HTTP: &http.Client{
			Transport: instrument(http.DefaultTransport),
			Timeout:   15 * time.Second,
		},
		Tokens: tokens,
	}
}

type RequestOptions struct {
	Method string
	// Body is sent as is when it is an io.Reader, string or []byte, and
	// encoded as JSON otherwise.
	Body   any
	Header http.Header
	// Anonymous suppresses the bearer token, for login and registration.
	Anonymous bool
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
	// Data is the parsed response body: a decoded JSON value, a string,
	// or nil.
	Data any
}

func (e *APIError) Error() string {
	return e.Message
}

type response struct {
	status int
	raw    []byte
	isJSON bool
	data   any
}

// Request performs an HTTP call against the API and returns the parsed body
// unchanged: decoded JSON for JSON responses, a string otherwise.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) (any, error) {
	res, err := c.send(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return res.data, nil
}

func (c *Client) send(ctx context.Context, path string, opts RequestOptions) (*response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body, err := encodeBody(opts.Body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if !opts.Anonymous && req.Header.Get("Authorization") == "" && c.Tokens != nil {
		if tok, ok := c.Tokens.OAuthToken(); ok {
			tok.SetAuthHeader(req)
		}
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	logger.DebugContext(ctx, "API request", "method", method, "path", path, "request_id", req.Header.Get("X-Request-ID"))
	res, err := c.HTTP.Do(req)
	if err != nil {
		logger.DebugContext(ctx, "API request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	out := &response{status: res.StatusCode, raw: raw}
	if strings.Contains(res.Header.Get("Content-Type"), "application/json") {
		out.isJSON = true
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			out.data = v
		}
	} else {
		out.data = string(raw)
	}

	logger.DebugContext(ctx, "API response", "method", method, "path", path, "status", res.StatusCode)
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &APIError{
			Status:  res.StatusCode,
			Message: extractMessage(out),
			Data:    out.data,
		}
	}
	return out, nil
}

// do performs the request and decodes a JSON body into out when both are
// present.
func (c *Client) do(ctx context.Context, path string, opts RequestOptions, out any) error {
	res, err := c.send(ctx, path, opts)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(res.raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return b, nil
	case string:
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}
