package polly

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Client represents a Polly API client. It is safe for concurrent use; the
// stored bearer token is guarded by a mutex so a login can race lookups from
// other goroutines.
type Client struct {
	baseURL  string
	http     *resty.Client
	logger   zerolog.Logger
	pageSize int

	mu    sync.Mutex
	token string
}

// NewClient creates a new Polly client. Construction is offline and never
// contacts the server; use Ping to verify connectivity.
func NewClient(baseURL string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("polly server URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var rc *resty.Client
	if o.httpClient != nil {
		// A caller-supplied transport is used as-is, including its timeout.
		rc = resty.NewWithClient(o.httpClient)
	} else {
		rc = resty.New()
		rc.SetTimeout(o.timeout)
	}
	rc.SetHeader("Accept", "application/json")
	if o.userAgent != "" {
		rc.SetHeader("User-Agent", o.userAgent)
	}

	return &Client{
		baseURL:  baseURL,
		http:     rc,
		logger:   logger,
		pageSize: o.pageSize,
		token:    o.token,
	}, nil
}

// BaseURL returns the normalized server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PageSize returns the page size GetAllPolls fetches with.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Token returns the stored bearer token, or the empty string before a
// successful login.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// apiRequest describes one HTTP exchange performed by call.
type apiRequest struct {
	method   string
	endpoint string
	query    map[string]string
	jsonBody any
	formData map[string]string
	bearer   string
}

// call performs a single request attempt and normalizes the outcome. Success
// statuses (200, 201) yield an Envelope holding the body; every other status
// yields a *Error classified by status code. A transport failure that never
// produced a response yields a network error wrapping the underlying cause.
func (c *Client) call(ctx context.Context, r apiRequest) (Envelope, error) {
	url := c.baseURL + r.endpoint

	req := c.http.R().SetContext(ctx)
	if len(r.query) > 0 {
		req.SetQueryParams(r.query)
	}
	if r.jsonBody != nil {
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(r.jsonBody)
	}
	if len(r.formData) > 0 {
		req.SetFormData(r.formData)
	}
	if r.bearer != "" {
		req.SetAuthToken(r.bearer)
	}

	resp, err := req.Execute(r.method, url)
	if err != nil {
		c.logger.Error().Err(err).Str("method", r.method).Str("url", url).Msg("request failed")
		return Envelope{}, &Error{
			Kind:    KindNetwork,
			Message: fmt.Sprintf("Request failed: %v", err),
			err:     err,
		}
	}

	status := resp.StatusCode()
	// Substitution happens before classification, so a non-JSON error body
	// surfaces as the substitute's detail message.
	body := normalizeBody(resp.Body())

	switch status {
	case http.StatusOK, http.StatusCreated:
		c.logger.Debug().Int("status", status).Str("method", r.method).Str("url", url).Msg("request succeeded")
		return Envelope{StatusCode: status, Raw: body}, nil
	case http.StatusBadRequest:
		msg := detailMessage(body, "Bad request")
		c.logger.Warn().Int("status", status).Str("url", url).Str("detail", msg).Msg("bad request")
		return Envelope{}, &Error{Kind: KindBadRequest, Message: msg, StatusCode: status, Details: body}
	case http.StatusUnauthorized:
		msg := detailMessage(body, "Unauthorized")
		c.logger.Warn().Int("status", status).Str("url", url).Msg("unauthorized")
		return Envelope{}, &Error{Kind: KindUnauthorized, Message: msg, StatusCode: status}
	case http.StatusNotFound:
		msg := detailMessage(body, "Not found")
		c.logger.Warn().Int("status", status).Str("url", url).Str("detail", msg).Msg("resource not found")
		return Envelope{}, &Error{Kind: KindNotFound, Message: msg, StatusCode: status}
	default:
		msg := detailMessage(body, fmt.Sprintf("HTTP %d", status))
		c.logger.Error().Int("status", status).Str("url", url).Str("detail", msg).Msg("server error")
		return Envelope{}, &Error{Kind: KindServer, Message: msg, StatusCode: status, Details: body}
	}
}

// normalizeBody copies a valid JSON body and substitutes a detail object for
// anything else, so downstream decoding always has JSON to work with.
func normalizeBody(raw []byte) json.RawMessage {
	if json.Valid(raw) {
		return append(json.RawMessage(nil), raw...)
	}
	return json.RawMessage(`{"detail": "Invalid JSON response"}`)
}

// detailMessage extracts the server's detail string, falling back when the
// body has no usable one.
func detailMessage(body json.RawMessage, fallback string) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return fallback
	}
	if s, ok := m["detail"].(string); ok {
		return s
	}
	return fallback
}
