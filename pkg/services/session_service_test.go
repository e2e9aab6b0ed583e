package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSessions(ttl time.Duration) (*SessionService, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewSessionService(ttl)
	svc.now = clock.now
	return svc, clock
}

func TestSessionCreateAndGet(t *testing.T) {
	svc, clock := newTestSessions(time.Hour)
	seed := uint64(42)

	session := svc.Create(&LoadResult{Records: sampleRecords(), Source: SourceSynthetic, Seed: &seed})
	require.NotEmpty(t, session.ID)

	clock.advance(10 * time.Minute)
	got, err := svc.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.t, got.LastAccessedAt)
	assert.Len(t, got.Records, len(sampleRecords()))

	info := got.Info()
	assert.Equal(t, []int{2023, 2024}, info.Years)
	assert.Equal(t, 10, info.Records)
	assert.Equal(t, uint64(42), *info.Seed)
}

func TestSessionsAreIndependent(t *testing.T) {
	svc, _ := newTestSessions(time.Hour)

	a := svc.Create(&LoadResult{Records: sampleRecords()[:2], Source: SourceSynthetic})
	b := svc.Create(&LoadResult{Records: sampleRecords(), Source: SourceWarehouse})
	assert.NotEqual(t, a.ID, b.ID)

	require.NoError(t, svc.Delete(a.ID))

	_, err := svc.Get(a.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	got, err := svc.Get(b.ID)
	require.NoError(t, err)
	assert.Len(t, got.Records, 10)
	assert.Equal(t, SourceWarehouse, got.Source)

	assert.True(t, errors.Is(svc.Delete(a.ID), ErrSessionNotFound))
}

func TestSessionExpiry(t *testing.T) {
	svc, clock := newTestSessions(30 * time.Minute)

	stale := svc.Create(&LoadResult{Source: SourceSynthetic})
	clock.advance(20 * time.Minute)
	fresh := svc.Create(&LoadResult{Source: SourceSynthetic})

	clock.advance(20 * time.Minute)
	_, err := svc.Get(stale.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, fresh.ID, list[0].ID)

	assert.Equal(t, 1, svc.EvictExpired())
	assert.Equal(t, 0, svc.EvictExpired())

	// 参照されたセッションは期限が延びる
	_, err = svc.Get(fresh.ID)
	require.NoError(t, err)
	clock.advance(20 * time.Minute)
	_, err = svc.Get(fresh.ID)
	require.NoError(t, err)
	clock.advance(20 * time.Minute)
	_, err = svc.Get(fresh.ID)
	assert.NoError(t, err)

	clock.advance(31 * time.Minute)
	_, err = svc.Get(fresh.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestSessionWithoutTTLNeverExpires(t *testing.T) {
	svc, clock := newTestSessions(0)
	session := svc.Create(&LoadResult{Source: SourceSynthetic})

	clock.advance(365 * 24 * time.Hour)
	_, err := svc.Get(session.ID)
	assert.NoError(t, err)
	assert.Zero(t, svc.EvictExpired())
}

func TestSessionListOrder(t *testing.T) {
	svc, clock := newTestSessions(time.Hour)

	first := svc.Create(&LoadResult{Source: SourceSynthetic})
	clock.advance(time.Second)
	second := svc.Create(&LoadResult{Source: SourceSynthetic})

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestSessionJanitorStops(t *testing.T) {
	svc, _ := newTestSessions(time.Hour)
	stop := make(chan struct{})
	svc.StartJanitor(time.Millisecond, stop)
	svc.Create(&LoadResult{Source: SourceSynthetic})
	time.Sleep(5 * time.Millisecond)
	close(stop)

	assert.Len(t, svc.List(), 1)
}
