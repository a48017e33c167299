package wizard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSessions_CreateGetRemove(t *testing.T) {
	r := NewSessions(time.Hour, time.Hour, 0)
	defer r.Close()

	s, err := r.Create()
	require.NoError(t, err)
	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	r.Remove(s.ID)
	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessions_SweepDropsIdle(t *testing.T) {
	r := NewSessions(time.Minute, time.Hour, 0)
	defer r.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	idle, err := r.Create()
	require.NoError(t, err)
	now = now.Add(45 * time.Second)
	fresh, err := r.Create()
	require.NoError(t, err)
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, r.Sweep())
	_, err = r.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestSessions_JanitorRunsAndStops(t *testing.T) {
	r := NewSessions(time.Nanosecond, 5*time.Millisecond, 0)
	_, err := r.Create()
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	r.Close()
	r.Close()
}

func TestSession_DoSerialises(t *testing.T) {
	r := NewSessions(time.Hour, time.Hour, 0)
	defer r.Close()
	s, err := r.Create()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(f *Flow) error {
				f.Record().MergeGeneral(map[string]any{"n": "x"})
				f.MarkAttempted()
				return nil
			})
		}()
	}
	wg.Wait()
	_ = s.Do(func(f *Flow) error {
		assert.True(t, f.Attempted())
		assert.Equal(t, "x", f.Record().General()["n"])
		return nil
	})
}

func TestSessions_CapRejectsUntilIdleExpire(t *testing.T) {
	r := NewSessions(time.Minute, time.Hour, 2)
	defer r.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_, err := r.Create()
		require.NoError(t, err)
	}
	_, err := r.Create()
	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, 2, r.Len())

	now = now.Add(2 * time.Minute)
	_, err = r.Create()
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}
