package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pingoo/pingoo-client/pkg/kvstore"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshResponse is the success envelope of the refresh endpoint. Only the
// two token fields are looked at; when data is missing, not an object or holds
// non-string tokens, the affected values are stored as empty strings.
type refreshResponse struct {
	Data json.RawMessage `json:"data"`
}

func (r refreshResponse) tokens() (access, refresh string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Data, &fields); err != nil {
		return "", ""
	}
	return stringField(fields, "token"), stringField(fields, "refresh_token")
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var s string
	if err := json.Unmarshal(fields[key], &s); err != nil {
		return ""
	}
	return s
}

// refreshOutcome is a buffered copy of the refresh response, so that callers
// joined through single-flight each get their own readable body.
type refreshOutcome struct {
	ok          bool
	accessToken string

	status     string
	statusCode int
	proto      string
	header     http.Header
	body       []byte
	request    *http.Request
}

func (o *refreshOutcome) response() *http.Response {
	return &http.Response{
		Status:        o.status,
		StatusCode:    o.statusCode,
		Proto:         o.proto,
		Header:        o.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(o.body)),
		ContentLength: int64(len(o.body)),
		Request:       o.request,
	}
}

func (c *Client) refresh(ctx context.Context, origin *url.URL) (*refreshOutcome, error) {
	if c.refreshGroup == nil {
		return c.doRefresh(ctx, origin)
	}

	// The shared refresh outlives any single caller; each caller only stops
	// waiting for it when its own context ends.
	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		return c.doRefresh(context.WithoutCancel(ctx), origin)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("Joined in-flight token refresh")
		}
		return res.Val.(*refreshOutcome), nil
	}
}

func (c *Client) doRefresh(ctx context.Context, origin *url.URL) (*refreshOutcome, error) {
	ctx, span := c.tracer.Start(ctx, "authclient.refresh")
	defer span.End()

	endpoint, err := c.resolve(origin, c.refreshPath)
	if err != nil {
		return nil, err
	}

	refreshToken, err := kvstore.GetOrEmpty(ctx, c.store, RefreshTokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, http.MethodPost, endpoint, payload, header)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh request failed")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	outcome := &refreshOutcome{
		status:     resp.Status,
		statusCode: resp.StatusCode,
		proto:      resp.Proto,
		header:     resp.Header,
		body:       body,
		request:    resp.Request,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		c.logger.Warn("Token refresh rejected", "status", resp.StatusCode, "endpoint", endpoint.String())
		c.clearCredentials(ctx)
		c.navigator.Navigate(ctx, c.loginLocation(origin))
		return outcome, nil
	}

	var parsed refreshResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	accessToken, refreshToken := parsed.tokens()
	if err := c.store.Set(ctx, AccessTokenKey, accessToken); err != nil {
		return nil, fmt.Errorf("failed to store access token: %w", err)
	}
	if err := c.store.Set(ctx, RefreshTokenKey, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	if exp, err := TokenExpiry(accessToken); err == nil {
		c.logger.Debug("Token refreshed", "expires_at", exp)
	} else {
		c.logger.Debug("Token refreshed", "expiry", "unknown")
	}

	outcome.ok = true
	outcome.accessToken = accessToken
	return outcome, nil
}

func (c *Client) clearCredentials(ctx context.Context) {
	for _, key := range []string{AccessTokenKey, RefreshTokenKey} {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn("Failed to delete stored credential", "key", key, "error", err)
		}
	}
}
