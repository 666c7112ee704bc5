// Package authclient performs HTTP calls on behalf of a logged-in user. It
// attaches the stored bearer token, and when the server answers 401 it
// exchanges the stored refresh token for a new pair and replays the call
// once.
package authclient

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/pingoo/pingoo-client/pkg/httpclient"
	"github.com/pingoo/pingoo-client/pkg/kvstore"
)

// Store keys of the credential pair.
const (
	AccessTokenKey  = "token"
	RefreshTokenKey = "refresh_token"
)

const (
	DefaultRefreshPath = "/api/auth/refresh"
	DefaultLoginPath   = "/login"
)

const tracerName = "github.com/pingoo/pingoo-client/pkg/authclient"

// Navigator performs the redirect to the login page after credentials were
// rejected for good.
type Navigator interface {
	Navigate(ctx context.Context, location string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, location string)

func (f NavigatorFunc) Navigate(ctx context.Context, location string) { f(ctx, location) }

// Client sends authenticated requests. It holds no per-call state; every Send
// reads the credentials from the store.
type Client struct {
	store        kvstore.Store
	httpClient   *http.Client
	baseURL      *url.URL
	refreshPath  string
	loginPath    string
	navigator    Navigator
	logger       *slog.Logger
	tracer       trace.Tracer
	refreshGroup *singleflight.Group
}

func New(store kvstore.Store, opts ...Option) *Client {
	c := &Client{
		store:       store,
		refreshPath: DefaultRefreshPath,
		loginPath:   DefaultLoginPath,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = httpclient.NewHTTPClient(httpclient.WithCookieJar())
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.navigator == nil {
		c.navigator = NavigatorFunc(func(_ context.Context, location string) {
			c.logger.Warn("Credentials rejected, login required", "location", location)
		})
	}

	return c
}

// Send performs method on rawURL with the stored bearer token. body, when not
// nil, is sent as JSON.
//
// Any response other than 401 is returned untouched. On 401 the refresh
// endpoint is called once:
//   - if the refresh fails, the stored credentials are deleted, the navigator
//     is sent to the login page and the refresh response is returned;
//   - otherwise the new pair is stored and the original request is sent again,
//     and that second response is returned whatever its status.
//
// Transport errors are returned as is. They are never retried.
func (c *Client) Send(ctx context.Context, method, rawURL string, body any, opts ...RequestOption) (*http.Response, error) {
	ctx, span := c.tracer.Start(ctx, "authclient.Send", trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", rawURL),
	))
	defer span.End()

	resp, err := c.send(ctx, method, rawURL, body, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, rawURL string, body any, opts ...RequestOption) (*http.Response, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	target, err := c.resolve(nil, rawURL)
	if err != nil {
		return nil, err
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	token, err := kvstore.GetOrEmpty(ctx, c.store, AccessTokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}

	resp, err := c.do(ctx, method, target, payload, buildHeaders(token, ro.headers))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	drainAndClose(resp)
	c.logger.Debug("Access token rejected, refreshing", "method", method, "url", target.String())

	outcome, err := c.refresh(ctx, target)
	if err != nil {
		return nil, err
	}
	if !outcome.ok {
		return outcome.response(), nil
	}

	return c.do(ctx, method, target, payload, buildHeaders(outcome.accessToken, ro.headers))
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, payload []byte, header http.Header) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = header

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target.Redacted(), err)
	}
	return resp, nil
}

// resolve turns ref into an absolute URL. Relative references use the
// configured base URL, or the origin of origin when no base is configured.
func (c *Client) resolve(origin *url.URL, ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	if u.IsAbs() {
		return u, nil
	}

	base := c.baseURL
	if base == nil && origin != nil {
		base = &url.URL{Scheme: origin.Scheme, Host: origin.Host}
	}
	if base == nil {
		return nil, fmt.Errorf("relative URL %q needs a base URL", ref)
	}
	return base.ResolveReference(u), nil
}

func (c *Client) loginLocation(origin *url.URL) string {
	u, err := c.resolve(origin, cmp.Or(c.loginPath, DefaultLoginPath))
	if err != nil {
		return c.loginPath
	}
	return u.String()
}

func buildHeaders(token string, extra http.Header) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+token)
	for k, vs := range extra {
		h[k] = append([]string(nil), vs...)
	}
	return h
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, nil
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
