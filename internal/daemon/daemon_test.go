package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSerial_RunsNeverOverlap(t *testing.T) {
	var active, peak atomic.Int32
	s := NewSerial(func(context.Context, string) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return nil
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Run(context.Background(), TriggerSchedule)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), peak.Load())
	require.Equal(t, int64(8), s.Runs())
}

func TestSerial_CountsFailures(t *testing.T) {
	boom := errors.New("boom")
	s := NewSerial(func(context.Context, string) error { return boom })

	err := s.Run(context.Background(), TriggerWatch)
	require.ErrorIs(t, err, boom)
	require.Equal(t, int64(1), s.Failures())
}

func TestSerial_SkipsWhenCanceled(t *testing.T) {
	called := false
	s := NewSerial(func(context.Context, string) error { called = true; return nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Run(ctx, TriggerWatch), context.Canceled)
	require.False(t, called)
	require.Zero(t, s.Runs())
}

func startWatcher(t *testing.T, runs *atomic.Int32) string {
	t.Helper()
	dir := t.TempDir()
	recipePath := filepath.Join(dir, "recipe.yaml")
	require.NoError(t, os.WriteFile(recipePath, []byte("name: cppunix\n"), 0o644))

	serial := NewSerial(func(_ context.Context, trigger string) error {
		if trigger == TriggerWatch {
			runs.Add(1)
		}
		return nil
	})
	w, err := NewWatcher(recipePath, 50*time.Millisecond, serial)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	return recipePath
}

func TestWatcher_DebouncesRecipeWrites(t *testing.T) {
	var runs atomic.Int32
	recipePath := startWatcher(t, &runs)

	for i := range 5 {
		require.NoError(t, os.WriteFile(recipePath, []byte{byte('a' + i)}, 0o644))
	}

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), runs.Load())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	var runs atomic.Int32
	recipePath := startWatcher(t, &runs)

	other := filepath.Join(filepath.Dir(recipePath), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	require.Never(t, func() bool { return runs.Load() > 0 }, 150*time.Millisecond, 10*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "recipe.yaml"), 0, NewSerial(func(context.Context, string) error { return nil }))
	require.NoError(t, err)
	require.Equal(t, DefaultDebounce, w.debounce)

	require.NoError(t, w.Start(context.Background()))
	require.Error(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestScheduler_ScheduleEvery(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		id, err := s.ScheduleEvery("test", 10*time.Second, func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.ScheduleEvery("test", 0, func() {})
		require.Error(t, err)
	})
}

func TestScheduler_ScheduleCron(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	id, err := s.ScheduleCron("test", "0 */4 * * *", func() {})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = s.ScheduleCron("test", "this is not a cron", func() {})
	require.Error(t, err)
}

func TestScheduleRuns_TicksTriggerSerialRuns(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	var runs atomic.Int32
	serial := NewSerial(func(_ context.Context, trigger string) error {
		if trigger == TriggerSchedule {
			runs.Add(1)
		}
		return nil
	})
	_, err = ScheduleRuns(context.Background(), s, serial, 20*time.Millisecond, "")
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestScheduleRuns_RejectsBothIntervalAndCron(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	_, err = ScheduleRuns(context.Background(), s, NewSerial(nil), time.Minute, "* * * * *")
	require.Error(t, err)
}
