package api

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, schedule string) (*AgreedDayScheduler, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	s := NewAgreedDayScheduler(env.svc, schedule, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Clock = func() time.Time { return testNow }
	return s, env
}

func TestScheduler_RunOnceSeedsNextYear(t *testing.T) {
	s, env := newTestScheduler(t, "0 3 1 12 *")
	ctx := context.Background()

	// WHEN: Running twice
	added, err := s.RunOnce(ctx)
	require.NoError(t, err)
	again, err := s.RunOnce(ctx)
	require.NoError(t, err)

	// THEN: 2026 is seeded once, inactive
	assert.Len(t, added, 6)
	assert.Empty(t, again)

	days, err := env.svc.ListAgreedDays(ctx)
	require.NoError(t, err)
	require.Len(t, days, 6)
	for _, d := range days {
		assert.Equal(t, 2026, d.Date.Year())
		assert.False(t, d.Active)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s, _ := newTestScheduler(t, "0 3 1 12 *")

	assert.True(t, s.NextRun().IsZero())
	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")

	next := s.NextRun()
	assert.Equal(t, time.December, next.Month())
	assert.Equal(t, 1, next.Day())
	assert.Equal(t, 3, next.Hour())

	s.Stop()
	s.Stop()
	assert.True(t, s.NextRun().IsZero())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s, _ := newTestScheduler(t, "every tuesday")
	assert.Error(t, s.Start())
	assert.True(t, s.NextRun().IsZero())
}

func TestScheduler_Disabled(t *testing.T) {
	s, _ := newTestScheduler(t, "not even parsed")
	s.Enabled = false
	require.NoError(t, s.Start())
	assert.True(t, s.NextRun().IsZero())
}
