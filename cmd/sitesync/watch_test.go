package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goliatone/go-command/dispatcher"

	staticcmd "github.com/goliatone/go-sitesync/internal/commands/static"
	"github.com/goliatone/go-sitesync/internal/generator"
	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/internal/runtimeconfig"
)

func startLoop(t *testing.T, debounce time.Duration) (chan fsnotify.Event, *atomic.Int32, chan struct{}, context.CancelFunc, chan error) {
	t.Helper()
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	rebuilt := make(chan struct{}, 8)
	var count atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, events, errs, debounce, func(context.Context) error {
			count.Add(1)
			rebuilt <- struct{}{}
			return nil
		}, nil, "public", logging.NoOp())
	}()
	t.Cleanup(cancel)
	return events, &count, rebuilt, cancel, done
}

func TestWatchLoopCoalescesBursts(t *testing.T) {
	events, count, rebuilt, cancel, done := startLoop(t, 50*time.Millisecond)

	for _, name := range []string{"source/_posts/a.md", "source/_posts/b.md", "source/_posts/a.md"} {
		events <- fsnotify.Event{Name: name, Op: fsnotify.Write}
	}

	select {
	case <-rebuilt:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a rebuild after the quiet period")
	}
	time.Sleep(150 * time.Millisecond)
	if got := count.Load(); got != 1 {
		t.Fatalf("expected one rebuild for a burst, got %d", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch loop did not stop on cancel")
	}
}

func TestWatchLoopIgnoresIrrelevantEvents(t *testing.T) {
	events, count, _, _, _ := startLoop(t, 20*time.Millisecond)

	events <- fsnotify.Event{Name: "source/_posts/a.md", Op: fsnotify.Chmod}
	events <- fsnotify.Event{Name: "source/_posts/.a.md.swp", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "public/index.html", Op: fsnotify.Write}

	time.Sleep(150 * time.Millisecond)
	if got := count.Load(); got != 0 {
		t.Fatalf("expected no rebuild, got %d", got)
	}
}

func TestWithin(t *testing.T) {
	cases := []struct {
		path, dir string
		want      bool
	}{
		{"public/index.html", "public", true},
		{"public", "public", true},
		{"publication/a.md", "public", false},
		{"source/_posts/a.md", "public", false},
		{"../public/a", "public", false},
		{"anything", "", false},
	}
	for _, tc := range cases {
		if got := within(tc.path, tc.dir); got != tc.want {
			t.Fatalf("within(%q, %q) = %v, want %v", tc.path, tc.dir, got, tc.want)
		}
	}
}

func TestWatchRootsSkipsMissingAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	posts := filepath.Join(dir, "posts")
	if err := os.MkdirAll(posts, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg := runtimeconfig.DefaultConfig()
	cfg.Paths.PostsDir = posts
	cfg.Paths.AssetsDir = filepath.Join(dir, "missing")
	cfg.Paths.IndexSource = filepath.Join(posts, "index.html")
	cfg.Paths.ReferenceCandidates = nil

	roots := watchRoots(cfg)
	if len(roots) != 1 || roots[0] != filepath.Clean(posts) {
		t.Fatalf("expected only the posts dir, got %#v", roots)
	}
}

// scriptedBuild replays one outcome per call and repeats the last one.
type scriptedBuild struct {
	results []*generator.BuildResult
	errs    []error
	calls   int
}

func (s *scriptedBuild) Execute(ctx context.Context, msg staticcmd.BuildSiteCommand) error {
	i := s.calls
	s.calls++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	if s.errs != nil && s.errs[i] != nil {
		return s.errs[i]
	}
	if msg.ResultCallback != nil {
		msg.ResultCallback(staticcmd.ResultEnvelope{Result: s.results[i]})
	}
	return nil
}

func vanishedResult(name string) *generator.BuildResult {
	return &generator.BuildResult{
		PostsFailed: 1,
		Diagnostics: []generator.RenderDiagnostic{{
			Source: name,
			Stage:  "load",
			Err:    fmt.Errorf("posts: read %s: %w", name, fs.ErrNotExist),
		}},
	}
}

func TestRebuildRetriesPostThatVanishedMidSave(t *testing.T) {
	build := &scriptedBuild{results: []*generator.BuildResult{
		vanishedResult("new.md"),
		{PostsBuilt: 3},
	}}
	var out bytes.Buffer
	sub := subscribeRebuild(build, &out, time.Millisecond, 2, logging.NoOp())
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), staticcmd.BuildSiteCommand{Reason: "watch"}); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if build.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", build.calls)
	}
	if got := strings.Count(out.String(), "summary"); got != 1 || !strings.Contains(out.String(), "posts=3") || strings.Contains(out.String(), "failed=1") {
		t.Fatalf("expected only the successful summary, got %q", out.String())
	}
}

func TestRebuildGivesUpAfterRetries(t *testing.T) {
	build := &scriptedBuild{results: []*generator.BuildResult{vanishedResult("gone.md")}}
	var out bytes.Buffer
	sub := subscribeRebuild(build, &out, time.Millisecond, 1, logging.NoOp())
	t.Cleanup(sub.Unsubscribe)

	err := dispatcher.Dispatch(context.Background(), staticcmd.BuildSiteCommand{Reason: "watch"})
	if err == nil || !strings.Contains(err.Error(), "gone.md") {
		t.Fatalf("expected the vanished post in the error, got %v", err)
	}
	if build.calls != 2 {
		t.Fatalf("expected initial attempt plus one retry, got %d", build.calls)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no summary, got %q", out.String())
	}
}

func TestRebuildDoesNotRetryBuildErrors(t *testing.T) {
	build := &scriptedBuild{
		results: []*generator.BuildResult{nil},
		errs:    []error{errors.New("template: broken")},
	}
	var out bytes.Buffer
	sub := subscribeRebuild(build, &out, time.Millisecond, 3, logging.NoOp())
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), staticcmd.BuildSiteCommand{Reason: "watch"}); err == nil {
		t.Fatal("expected the build error")
	}
	if build.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", build.calls)
	}
}

func TestVanishedInputIgnoresOtherFailures(t *testing.T) {
	result := &generator.BuildResult{Diagnostics: []generator.RenderDiagnostic{
		{Source: "bad.md", Stage: "load", Err: errors.New("posts: bad.md: render panic")},
		{Source: "ok.md", Stage: "render", Err: fs.ErrNotExist},
	}}
	if err := vanishedInput(result); err != nil {
		t.Fatalf("expected no vanished input, got %v", err)
	}
	if err := vanishedInput(nil); err != nil {
		t.Fatalf("expected nil for a missing result, got %v", err)
	}
	if err := vanishedInput(vanishedResult("a.md")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
