package hub

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubscriber records delivered events and can be made to fail.
type fakeSubscriber struct {
	mu     sync.Mutex
	events []any
	fail   bool
}

func (s *fakeSubscriber) Send(event any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("connection closed")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *fakeSubscriber) received() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.events...)
}

func TestHubPublishDeliversToAll(t *testing.T) {
	h := New(nil)
	a := &fakeSubscriber{}
	b := &fakeSubscriber{}
	h.Join("s1", a)
	h.Join("s1", b)

	event := NewStatusEvent("running", "rtmp://dest", "")
	h.Publish("s1", event)

	require.Len(t, a.received(), 1)
	require.Len(t, b.received(), 1)
	assert.Equal(t, event, a.received()[0])
}

func TestHubPublishIsolatesFailure(t *testing.T) {
	h := New(nil)
	a := &fakeSubscriber{fail: true}
	b := &fakeSubscriber{}
	h.Join("s1", a)
	h.Join("s1", b)

	h.Publish("s1", NewStatusEvent("running", "rtmp://dest", ""))

	// B still got the event; A was removed.
	require.Len(t, b.received(), 1)
	assert.Equal(t, 1, h.SubscriberCount("s1"))

	// A subsequent publish reaches only B.
	h.Publish("s1", NewStatsEvent("2500kbits/s", "30.0", "", "rtmp://dest", "running"))
	assert.Len(t, b.received(), 2)
	assert.Empty(t, a.received())
}

func TestHubLeavePrunesEmptySession(t *testing.T) {
	h := New(nil)
	a := &fakeSubscriber{}
	h.Join("s1", a)
	assert.Equal(t, 1, h.SubscriberCount("s1"))

	h.Leave("s1", a)
	assert.Equal(t, 0, h.SubscriberCount("s1"))

	// Leaving again or leaving an unknown session is harmless.
	h.Leave("s1", a)
	h.Leave("nope", a)

	// Rejoin recreates the set lazily.
	h.Join("s1", a)
	assert.Equal(t, 1, h.SubscriberCount("s1"))
}

func TestHubDuplicateJoin(t *testing.T) {
	h := New(nil)
	a := &fakeSubscriber{}
	h.Join("s1", a)
	h.Join("s1", a)
	assert.Equal(t, 1, h.SubscriberCount("s1"))

	h.Publish("s1", NewStatusEvent("running", "rtmp://dest", ""))
	assert.Len(t, a.received(), 1)
}

func TestHubSessionsAreIndependent(t *testing.T) {
	h := New(nil)
	a := &fakeSubscriber{}
	b := &fakeSubscriber{}
	h.Join("s1", a)
	h.Join("s2", b)

	h.Publish("s1", NewStatusEvent("running", "rtmp://one", ""))

	assert.Len(t, a.received(), 1)
	assert.Empty(t, b.received())
}

func TestHubLatestStats(t *testing.T) {
	h := New(nil)

	_, ok := h.LatestStats("s1")
	assert.False(t, ok)

	h.Publish("s1", NewStatsEvent("1000kbits/s", "24.0", "", "rtmp://dest", "running"))
	h.Publish("s1", NewStatsEvent("2500kbits/s", "30.0", "2", "rtmp://dest", "running"))

	latest, ok := h.LatestStats("s1")
	require.True(t, ok)
	assert.Equal(t, "2500kbits/s", latest.Bitrate)
	assert.Equal(t, "30.0", latest.FPS)
	assert.Equal(t, "2", latest.DroppedFrames)

	// Status events are not retained as stats.
	h.Publish("s1", NewStatusEvent("stopped", "rtmp://dest", "2500kbits/s"))
	latest, ok = h.LatestStats("s1")
	require.True(t, ok)
	assert.Equal(t, EventTypeStats, latest.Type)

	h.ForgetSession("s1")
	_, ok = h.LatestStats("s1")
	assert.False(t, ok)
}

func TestHubConcurrentAccess(t *testing.T) {
	h := New(nil)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := &fakeSubscriber{}
			for j := 0; j < 100; j++ {
				h.Join("s1", sub)
				h.Publish("s1", NewStatsEvent("1kbits/s", "30", "", "d", "running"))
				h.Leave("s1", sub)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, h.SubscriberCount("s1"))
}
