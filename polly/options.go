package polly

import (
	"net/http"
	"time"
)

// DefaultTimeout is applied when no WithTimeout option is given.
const DefaultTimeout = 30 * time.Second

// DefaultPageSize is the page size GetAllPolls uses unless WithPageSize
// overrides it.
const DefaultPageSize = 50

// Option configures a Client during construction.
type Option func(*clientOptions)

type clientOptions struct {
	timeout    time.Duration
	pageSize   int
	userAgent  string
	token      string
	httpClient *http.Client
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:  DefaultTimeout,
		pageSize: DefaultPageSize,
	}
}

// WithTimeout sets the timeout for every request. Values <= 0 are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithPageSize sets the page size used by GetAllPolls. Values <= 0 are
// ignored.
func WithPageSize(size int) Option {
	return func(o *clientOptions) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithToken seeds the client with a previously stored bearer token, for
// example one persisted by an earlier login.
func WithToken(token string) Option {
	return func(o *clientOptions) {
		o.token = token
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithHTTPClient supplies a custom *http.Client to use as the underlying
// transport. The supplied client is used as-is; WithTimeout has no effect
// alongside it.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		if hc != nil {
			o.httpClient = hc
		}
	}
}
