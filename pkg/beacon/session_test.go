package beacon

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingoo/pingoo-client/pkg/kvstore"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSessions(t *testing.T) (*Sessions, *fakeClock, kvstore.Store) {
	t.Helper()
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	store := kvstore.NewMemory()
	return NewSessions(store, WithClock(clock.Now)), clock, store
}

func storedRecord(t *testing.T, store kvstore.Store) sessionRecord {
	t.Helper()
	raw, err := store.Get(t.Context(), SessionKey)
	require.NoError(t, err)
	var rec sessionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

func TestSessions_CreatesOnFirstUse(t *testing.T) {
	s, clock, store := newTestSessions(t)

	id, err := s.Resolve(t.Context())
	require.NoError(t, err)
	assert.Regexp(t, `^s_[0-9a-z]+_1700000000000$`, id)

	rec := storedRecord(t, store)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, clock.now.UnixMilli(), rec.T)
}

func TestSessions_SameIDWithinTTL(t *testing.T) {
	s, clock, store := newTestSessions(t)

	first, err := s.Resolve(t.Context())
	require.NoError(t, err)

	clock.Advance(SessionTTL - time.Millisecond)
	second, err := s.Resolve(t.Context())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, clock.now.UnixMilli(), storedRecord(t, store).T)
}

func TestSessions_ExactlyTTLIsStillActive(t *testing.T) {
	s, clock, _ := newTestSessions(t)

	first, err := s.Resolve(t.Context())
	require.NoError(t, err)

	clock.Advance(SessionTTL)
	second, err := s.Resolve(t.Context())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSessions_NewIDAfterTTL(t *testing.T) {
	s, clock, store := newTestSessions(t)

	first, err := s.Resolve(t.Context())
	require.NoError(t, err)

	clock.Advance(SessionTTL + time.Millisecond)
	second, err := s.Resolve(t.Context())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	rec := storedRecord(t, store)
	assert.Equal(t, second, rec.ID)
	assert.Equal(t, clock.now.UnixMilli(), rec.T)
}

func TestSessions_SlidingWindow(t *testing.T) {
	s, clock, _ := newTestSessions(t)

	first, err := s.Resolve(t.Context())
	require.NoError(t, err)

	// Activity every 20 minutes keeps the session alive well past 30 minutes
	// after it was created.
	for range 6 {
		clock.Advance(20 * time.Minute)
		id, err := s.Resolve(t.Context())
		require.NoError(t, err)
		assert.Equal(t, first, id)
	}
}

func TestSessions_UnreadableRecordIsReplaced(t *testing.T) {
	s, _, store := newTestSessions(t)
	require.NoError(t, store.Set(t.Context(), SessionKey, "{broken"))

	id, err := s.Resolve(t.Context())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, storedRecord(t, store).ID)
}

func TestSessions_ExistingRecordIsReused(t *testing.T) {
	s, clock, store := newTestSessions(t)
	lastSeen := clock.now.Add(-time.Minute).UnixMilli()
	require.NoError(t, store.Set(t.Context(), SessionKey, `{"id":"s_existing_1","t":`+jsonInt(lastSeen)+`}`))

	id, err := s.Resolve(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "s_existing_1", id)
}

func TestSessions_IDGenerator(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(42)}
	s := NewSessions(kvstore.NewMemory(),
		WithClock(clock.Now),
		WithIDGenerator(func(now time.Time) string { return "fixed" }),
	)

	id, err := s.Resolve(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)
}

func TestNewSessionID_Unique(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	seen := make(map[string]bool)
	for range 100 {
		id := newSessionID(now)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
