package beacon

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pingoo/pingoo-client/pkg/kvstore"
)

const (
	// SessionKey is the store key of the session record.
	SessionKey = "pingoo_sess"
	// SessionTTL is the idle time after which a new session starts.
	SessionTTL = 1_800_000 * time.Millisecond
)

// sessionRecord is stored as {"id": "...", "t": <last seen, unix ms>}.
type sessionRecord struct {
	ID string `json:"id"`
	T  int64  `json:"t"`
}

// Sessions maintains the anonymous sliding-window session id.
type Sessions struct {
	store kvstore.Store
	now   func() time.Time
	newID func(time.Time) string
	ttl   time.Duration
}

func NewSessions(store kvstore.Store, opts ...SessionOption) *Sessions {
	s := &Sessions{
		store: store,
		now:   time.Now,
		newID: newSessionID,
		ttl:   SessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SessionOption func(*Sessions)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Sessions) {
		s.now = now
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(gen func(time.Time) string) SessionOption {
	return func(s *Sessions) {
		s.newID = gen
	}
}

// Resolve returns the current session id. A record that is missing,
// unreadable, or idle for longer than the TTL is replaced by a fresh one;
// otherwise its last-seen time moves to now. The record is written back in
// both cases, so every call extends the window.
func (s *Sessions) Resolve(ctx context.Context) (string, error) {
	now := s.now()
	nowMs := now.UnixMilli()

	rec, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	if rec.ID == "" || nowMs-rec.T > s.ttl.Milliseconds() {
		rec = sessionRecord{ID: s.newID(now), T: nowMs}
	} else {
		rec.T = nowMs
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.store.Set(ctx, SessionKey, string(data)); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return rec.ID, nil
}

func (s *Sessions) load(ctx context.Context) (sessionRecord, error) {
	raw, err := s.store.Get(ctx, SessionKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return sessionRecord{}, nil
	}
	if err != nil {
		return sessionRecord{}, fmt.Errorf("failed to read session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// An unreadable record starts a new session.
		return sessionRecord{}, nil
	}
	return rec, nil
}

// newSessionID returns "s_<random base36>_<unix ms>". The id only has to be
// unlikely to collide; it is not a secret.
func newSessionID(now time.Time) string {
	u := uuid.New()
	random := strconv.FormatUint(binary.BigEndian.Uint64(u[:8]), 36)
	return "s_" + random + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}
