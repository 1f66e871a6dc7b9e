package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/metrics"
)

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"docs/modules/ROOT/pages/index.md", false},
		{"docs/docsite.yml", false},
		{"docs/.git", true},
		{"docs/pages/.index.md.swp", true},
		{"docs/pages/index.md~", true},
		{"docs/pages/index.md.swp", true},
		{"docs/pages/index.md.swx", true},
		{"docs/pages/#index.md#", true},
		{"docs/Thumbs.db", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, shouldIgnoreEvent(tt.path))
		})
	}
}

func TestJobDefinition(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"duration", "15m", false},
		{"cron", "0 * * * *", false},
		{"padded duration", " 1h ", false},
		{"empty", "", true},
		{"garbage", "often", true},
		{"zero interval", "0s", true},
		{"negative interval", "-5m", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := jobDefinition(tt.schedule)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, def)
		})
	}
}

func TestScheduleRebuildRejectsInvalidCron(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	_, err = s.ScheduleRebuild("not a cron line", func() {})
	require.Error(t, err)

	id, err := s.ScheduleRebuild("1h", func() {})
	require.NoError(t, err)
	require.NotEmpty(t, id)
}

func TestSchedulerTriggersRebuild(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	var calls atomic.Int32
	_, err = s.ScheduleRebuild("50ms", func() { calls.Add(1) })
	require.NoError(t, err)
	s.Start(context.Background())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestRebuilderCoalescesBursts(t *testing.T) {
	var builds atomic.Int32
	rb := newRebuilder(30*time.Millisecond, func(context.Context) { builds.Add(1) })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rb.Run(ctx)

	for range 10 {
		rb.Trigger()
	}
	require.Eventually(t, func() bool { return builds.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), builds.Load())
}

func TestRebuilderQueuesOneFollowUp(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 10)
	var builds atomic.Int32
	rb := newRebuilder(time.Millisecond, func(context.Context) {
		builds.Add(1)
		started <- struct{}{}
		<-release
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rb.Run(ctx)

	rb.request()
	<-started
	// Requests made while a build runs collapse into a single follow-up.
	rb.request()
	rb.request()
	rb.request()
	close(release)

	require.Eventually(t, func() bool { return builds.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(2), builds.Load())
}

func TestWatcherTriggersOnChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "modules", "ROOT", "pages"), 0o755))

	var calls atomic.Int32
	w, err := NewWatcher([]string{root}, func() { calls.Add(1) })
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(root, "modules", "ROOT", "pages", "index.md"), []byte("# Hi\n"), 0o600))
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresSwapFiles(t *testing.T) {
	var calls atomic.Int32
	wt := &Watcher{trigger: func() { calls.Add(1) }}
	wt.handle(fsnotify.Event{Name: "/docs/pages/.index.md.swp", Op: fsnotify.Write})
	wt.handle(fsnotify.Event{Name: "/docs/pages/index.md~", Op: fsnotify.Write})
	require.Zero(t, calls.Load())
}

func TestNewWatcherMissingRoot(t *testing.T) {
	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing")}, func() {})
	require.Error(t, err)
}

func TestRebuildRecordsStatus(t *testing.T) {
	fail := true
	d := New(Config{OutputDir: t.TempDir()}, func(context.Context, metrics.Recorder) error {
		if fail {
			return errors.New("boom")
		}
		return nil
	})

	require.Error(t, d.Rebuild(context.Background()))
	st := d.Status()
	require.Equal(t, 1, st.Builds)
	require.Equal(t, 1, st.Failures)
	require.Equal(t, "boom", st.LastError)
	require.False(t, st.HasGoodBuild)

	fail = false
	require.NoError(t, d.Rebuild(context.Background()))
	st = d.Status()
	require.Equal(t, 2, st.Builds)
	require.Equal(t, 1, st.Failures)
	require.Empty(t, st.LastError)
	require.True(t, st.HasGoodBuild)
	require.False(t, st.Building)
}

func TestHandler(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("<h1>Home</h1>"), 0o600))

	d := New(Config{OutputDir: out}, func(_ context.Context, rec metrics.Recorder) error {
		rec.IncRunOutcome(metrics.ResultSuccess)
		return nil
	})
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		var b strings.Builder
		_, err = io.Copy(&b, resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, b.String()
	}

	code, _ := get("/healthz")
	require.Equal(t, http.StatusServiceUnavailable, code)

	require.NoError(t, d.Rebuild(context.Background()))

	code, body := get("/healthz")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"status":"ok"}`, body)

	code, body = get("/status")
	require.Equal(t, http.StatusOK, code)
	var st Status
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	require.Equal(t, 1, st.Builds)
	require.True(t, st.HasGoodBuild)

	code, body = get("/")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "<h1>Home</h1>")

	code, body = get("/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "docsite_")
}

func TestRunServesUntilCanceled(t *testing.T) {
	out := t.TempDir()
	var builds atomic.Int32
	d := New(Config{Addr: "127.0.0.1:0", OutputDir: out, Schedule: "30ms"}, func(context.Context, metrics.Recorder) error {
		builds.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return builds.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunInvalidSchedule(t *testing.T) {
	d := New(Config{Addr: "127.0.0.1:0", OutputDir: t.TempDir(), Schedule: "whenever"}, func(context.Context, metrics.Recorder) error {
		return nil
	})
	require.Error(t, d.Run(context.Background()))
}
