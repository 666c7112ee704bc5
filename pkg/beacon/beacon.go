// Package beacon reports anonymous usage events for a page. It configures
// itself from the page markup, keeps a sliding-window session id in the local
// store and posts each event without waiting for, or looking at, the result.
package beacon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pingoo/pingoo-client/pkg/httpclient"
	"github.com/pingoo/pingoo-client/pkg/kvstore"
)

// Beacon sends events for one page. It stays inert until Start finds a
// declaring element.
type Beacon struct {
	page       Page
	sessions   *Sessions
	httpClient *http.Client
	logger     *beaconLogger

	startOnce  sync.Once
	mu         sync.RWMutex
	cfg        Config
	configured bool

	// dispatchMu keeps Wait from overlapping a dispatch: sends hold it
	// shared, Wait exclusively.
	dispatchMu sync.RWMutex
	inflight   sync.WaitGroup
}

type Option func(*Beacon)

func WithHTTPClient(client *http.Client) Option {
	return func(b *Beacon) {
		b.httpClient = client
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Beacon) {
		b.logger = newBeaconLogger(logger)
	}
}

// WithSessions replaces the session tracker, typically to inject a clock.
func WithSessions(s *Sessions) Option {
	return func(b *Beacon) {
		b.sessions = s
	}
}

func New(store kvstore.Store, page Page, opts ...Option) *Beacon {
	b := &Beacon{page: page}
	for _, opt := range opts {
		opt(b)
	}

	if b.sessions == nil {
		b.sessions = NewSessions(store)
	}
	if b.httpClient == nil {
		b.httpClient = httpclient.NewHTTPClient()
		b.httpClient.Timeout = 30 * time.Second
	}
	if b.logger == nil {
		b.logger = newBeaconLogger(slog.Default())
	}

	return b
}

// Start runs the startup sequence once: discover the configuration, then
// report a page view. Without a declaring element a diagnostic is logged and
// the beacon never sends anything.
func (b *Beacon) Start(ctx context.Context, lookup Lookup) {
	b.startOnce.Do(func() {
		cfg, ok := Discover(lookup, b.page.URL)

		b.mu.Lock()
		b.cfg, b.configured = cfg, ok
		b.mu.Unlock()

		if ok {
			b.logger.Debug("Configured", "site_id", cfg.SiteID, "endpoint", cfg.Endpoint)
		} else {
			b.logger.Error("No site-id found in page markup, tracking disabled")
		}

		b.SendEvent(ctx, EventPageView, "")
	})
}

// Config returns the discovered configuration.
func (b *Beacon) Config() (Config, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cfg, b.configured
}

// SendEvent reports one event. It returns as soon as the request is
// dispatched; the outcome is intentionally discarded. Call Wait to block
// until dispatched requests have finished.
func (b *Beacon) SendEvent(ctx context.Context, eventType, value string) {
	cfg, ok := b.Config()
	if !ok {
		return
	}

	sessionID, err := b.sessions.Resolve(ctx)
	if err != nil {
		b.logger.Debug("Dropping event, session unavailable", "event_type", eventType, "error", err)
		return
	}

	payload := EventPayload{
		SessionID:  sessionID,
		SiteID:     cfg.SiteID,
		UserID:     cfg.UserID,
		URL:        b.page.path(),
		Referrer:   b.page.Referrer,
		EventType:  eventType,
		EventValue: value,
		Screen:     b.page.screen(),
	}

	sendCtx := context.WithoutCancel(ctx)
	b.dispatchMu.RLock()
	b.inflight.Go(func() {
		if err := b.post(sendCtx, cfg.Endpoint, &payload); err != nil {
			b.logger.Debug("Failed to send event", "event_type", eventType, "error", err)
		}
	})
	b.dispatchMu.RUnlock()
}

// HandleClick is the delegated click handler: it reports the nearest
// element, starting at target, that carries the tracking attribute.
func (b *Beacon) HandleClick(ctx context.Context, target Node) {
	el := Closest(target, AttrEvent)
	if el == nil {
		return
	}
	eventType, _ := el.Attr(AttrEvent)
	value, _ := el.Attr(AttrEventValue)
	b.SendEvent(ctx, eventType, value)
}

// Wait blocks until all dispatched events have been sent or have failed. It
// is safe to call while other goroutines send; their sends are dispatched
// once Wait returns.
func (b *Beacon) Wait() {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()
	b.inflight.Wait()
}

// Closest returns n or its nearest ancestor that has attr, or nil.
func Closest(n Node, attr string) Node {
	for n != nil {
		if _, ok := n.Attr(attr); ok {
			return n
		}
		n = n.Parent()
	}
	return nil
}

func (b *Beacon) post(ctx context.Context, endpoint string, payload *EventPayload) error {
	target, err := b.resolveEndpoint(endpoint)
	if err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if b.logger.Enabled(ctx, slog.LevelDebug) {
		b.logger.Debug("Sending event", "url", target, "payload", string(data))
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	b.logger.Debug("Event sent", "event_type", payload.EventType, "status", resp.StatusCode)
	return nil
}

// resolveEndpoint makes the fallback relative endpoint absolute against the
// page location.
func (b *Beacon) resolveEndpoint(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.IsAbs() {
		return endpoint, nil
	}
	if b.page.URL == nil {
		return "", fmt.Errorf("relative endpoint %q without a page URL", endpoint)
	}
	return b.page.URL.ResolveReference(u).String(), nil
}
