package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualRunsTasksInDeadlineOrder(t *testing.T) {
	m := NewManual(epoch)
	var got []string
	m.AfterFunc(2*time.Second, func() { got = append(got, "b") })
	m.AfterFunc(time.Second, func() { got = append(got, "a") })
	m.AfterFunc(2*time.Second, func() { got = append(got, "c") })

	m.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, epoch.Add(2500*time.Millisecond), m.Now())
}

func TestManualCancel(t *testing.T) {
	m := NewManual(epoch)
	fired := false
	task := m.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel())
	m.Advance(time.Minute)
	assert.False(t, fired)
	assert.Zero(t, m.Pending())
}

func TestManualChainedTasksSeeTheirDeadline(t *testing.T) {
	m := NewManual(epoch)
	var ticks []time.Time
	var tick func()
	tick = func() {
		ticks = append(ticks, m.Now())
		if len(ticks) < 3 {
			m.AfterFunc(time.Second, tick)
		}
	}
	m.AfterFunc(time.Second, tick)

	m.Advance(10 * time.Second)
	require.Len(t, ticks, 3)
	assert.Equal(t, epoch.Add(3*time.Second), ticks[2])
}

func TestCancelAfterRunReportsFalse(t *testing.T) {
	m := NewManual(epoch)
	task := m.AfterFunc(0, func() {})
	m.Advance(0)
	assert.False(t, task.Cancel())
}

func TestLoopRunsTimersOnLoopGoroutine(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	fired := make(chan struct{})
	require.NoError(t, l.Do(func() {
		l.AfterFunc(10*time.Millisecond, func() { close(fired) })
	}))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoopCancelFromLoopPreventsRun(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	fired := make(chan struct{}, 1)
	require.NoError(t, l.Do(func() {
		task := l.AfterFunc(0, func() { fired <- struct{}{} })
		task.Cancel()
	}))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, fired)
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	cancel()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.ErrorIs(t, l.Do(func() {}), ErrStopped)
	assert.False(t, l.Post(func() {}))
}
