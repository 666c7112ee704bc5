package authclient

import (
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/sync/singleflight"
)

type Option func(*Client)

// WithBaseURL sets the origin that relative request URLs, the refresh
// endpoint and the login location are resolved against. Without it they are
// resolved against the origin of each request.
func WithBaseURL(base *url.URL) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithHTTPClient replaces the HTTP client. It should carry a cookie jar so
// that cookie credentials travel with every call.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

func WithLoginPath(path string) Option {
	return func(c *Client) {
		c.loginPath = path
	}
}

// WithNavigator sets the handler invoked when an irrecoverable refresh
// failure forces the user back to the login page.
func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSingleFlightRefresh coalesces refreshes triggered by concurrent 401s:
// the first caller performs the refresh and the others wait for its outcome.
// Without it every 401 runs its own refresh and the last stored pair wins.
func WithSingleFlightRefresh() Option {
	return func(c *Client) {
		c.refreshGroup = &singleflight.Group{}
	}
}

type requestOptions struct {
	headers http.Header
}

type RequestOption func(*requestOptions)

// WithHeader adds a caller header. Caller headers are applied after the
// JSON content type and bearer token and replace them on collision.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		o.headers.Set(key, value)
	}
}

func WithHeaders(h http.Header) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		for k, vs := range h {
			o.headers[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
		}
	}
}
