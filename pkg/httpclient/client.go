package httpclient

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"runtime"

	"golang.org/x/net/publicsuffix"

	"github.com/pingoo/pingoo-client/pkg/version"
)

// UserAgent is sent on every request made through NewHTTPClient.
var UserAgent = fmt.Sprintf("pingoo/%s (%s; %s)", version.Version, runtime.GOOS, runtime.GOARCH)

type userAgentTransport struct {
	agent string
	rt    http.RoundTripper
}

func (u *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r2 := req.Clone(req.Context())
	r2.Header.Set("User-Agent", u.agent)
	return u.rt.RoundTrip(r2)
}

type Option func(*http.Client)

// WithCookieJar keeps cookies across requests, the equivalent of a browser
// sending credentials with every call.
func WithCookieJar() Option {
	return func(c *http.Client) {
		// cookiejar.New only fails on a nil PublicSuffixList error path that
		// publicsuffix.List never triggers.
		jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		c.Jar = jar
	}
}

// WithTransport replaces the underlying transport. The user agent is still
// applied on top of it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *http.Client) {
		c.Transport = &userAgentTransport{agent: UserAgent, rt: rt}
	}
}

func NewHTTPClient(opts ...Option) *http.Client {
	client := &http.Client{
		Transport: &userAgentTransport{
			agent: UserAgent,
			rt:    http.DefaultTransport,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}
