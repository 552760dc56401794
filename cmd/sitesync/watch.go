package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/spf13/cobra"

	staticcmd "github.com/goliatone/go-sitesync/internal/commands/static"
	"github.com/goliatone/go-sitesync/internal/generator"
	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/internal/runtimeconfig"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

const (
	defaultDebounce = 500 * time.Millisecond
	maxRetryDelay   = 5 * time.Second
)

func newWatchCommand(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild whenever posts or templates change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := state.module()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := executeBuild(ctx, res, state.stdout, staticcmd.BuildSiteCommand{Reason: "watch"}); err != nil {
				return err
			}
			return watchAndRebuild(ctx, res, state.stdout)
		},
	}
}

// watchAndRebuild blocks until ctx is cancelled.
func watchAndRebuild(ctx context.Context, res *moduleResources, out io.Writer) error {
	logger := logging.OrNoOp(res.logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	cfg := res.config
	output := cfg.Paths.OutputDir
	for _, root := range watchRoots(cfg) {
		if err := addWatchTree(watcher, root, output); err != nil {
			logger.Warn("sitesync.watch.add_failed", "path", root, "error", err)
		}
	}
	logger.Info("sitesync.watch.started", "paths", watcher.WatchList())

	debounce := cfg.Watch.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if res.handlers.build == nil {
		return errors.New("build handler not configured")
	}
	sub := subscribeRebuild(res.handlers.build, out, debounce, cfg.Watch.Retries, logger)
	defer sub.Unsubscribe()

	rebuild := func(ctx context.Context) error {
		return dispatcher.Dispatch(ctx, staticcmd.BuildSiteCommand{Reason: "watch"})
	}
	onCreate := func(path string) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := addWatchTree(watcher, path, output); err != nil {
				logger.Warn("sitesync.watch.add_failed", "path", path, "error", err)
			}
		}
	}
	return watchLoop(ctx, watcher.Events, watcher.Errors, debounce, rebuild, onCreate, output, logger)
}

// subscribeRebuild registers the build handler with the dispatcher. Builds
// that lost an input to an editor save in progress are retried with backoff.
func subscribeRebuild(build executor[staticcmd.BuildSiteCommand], out io.Writer, debounce time.Duration, retries int, logger interfaces.Logger) dispatcher.Subscription {
	if retries < 0 {
		retries = 0
	}
	return dispatcher.SubscribeCommand[staticcmd.BuildSiteCommand](
		rebuildCommand{build: build, out: out},
		runner.WithMaxRetries(retries),
		runner.WithRetryStrategy(runner.ExponentialBackoffStrategy{Base: debounce, Factor: 2, Max: maxRetryDelay}),
		runner.WithNoTimeout(),
		runner.WithErrorHandler(func(err error) {
			logger.Debug("sitesync.watch.retry", "error", err)
		}),
	)
}

// rebuildCommand prints the summary only for the attempt that sticks.
type rebuildCommand struct {
	build executor[staticcmd.BuildSiteCommand]
	out   io.Writer
}

func (c rebuildCommand) Execute(ctx context.Context, msg staticcmd.BuildSiteCommand) error {
	var envelope staticcmd.ResultEnvelope
	msg.ResultCallback = func(env staticcmd.ResultEnvelope) { envelope = env }
	if err := c.build.Execute(ctx, msg); err != nil {
		return rebuildError{err: err}
	}
	if err := vanishedInput(envelope.Result); err != nil {
		return rebuildError{err: err, retry: true}
	}
	printSummary(c.out, envelope)
	return nil
}

// vanishedInput reports a post that disappeared between listing and reading,
// which is what an atomic save looks like from inside a build.
func vanishedInput(result *generator.BuildResult) error {
	if result == nil {
		return nil
	}
	for _, diag := range result.Diagnostics {
		if diag.Stage == "load" && errors.Is(diag.Err, fs.ErrNotExist) {
			return fmt.Errorf("rebuild: %s vanished: %w", diag.Source, diag.Err)
		}
	}
	return nil
}

type rebuildError struct {
	err   error
	retry bool
}

func (e rebuildError) Error() string     { return e.err.Error() }
func (e rebuildError) Unwrap() error     { return e.err }
func (e rebuildError) IsRetryable() bool { return e.retry }

// watchRoots lists the existing inputs of a build.
func watchRoots(cfg runtimeconfig.Config) []string {
	candidates := []string{cfg.Paths.PostsDir, cfg.Paths.AssetsDir, cfg.Paths.ThemesDir}
	if cfg.Paths.IndexSource != "" {
		candidates = append(candidates, filepath.Dir(cfg.Paths.IndexSource))
	}
	for _, ref := range cfg.Paths.ReferenceCandidates {
		candidates = append(candidates, filepath.Dir(ref))
	}

	seen := map[string]struct{}{}
	roots := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		clean := filepath.Clean(candidate)
		if _, ok := seen[clean]; ok {
			continue
		}
		if info, err := os.Stat(clean); err != nil || !info.IsDir() {
			continue
		}
		seen[clean] = struct{}{}
		roots = append(roots, clean)
	}
	return roots
}

func addWatchTree(watcher *fsnotify.Watcher, root, output string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if within(path, output) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// watchLoop coalesces change events into one rebuild per quiet period.
// Rebuilds run on the loop goroutine so they never overlap.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	debounce time.Duration,
	rebuild func(context.Context) error,
	onCreate func(string),
	output string,
	logger interfaces.Logger,
) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !relevantEvent(event, output) {
				continue
			}
			if event.Has(fsnotify.Create) && onCreate != nil {
				onCreate(event.Name)
			}
			logger.Debug("sitesync.watch.change", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			logger.Info("sitesync.watch.rebuild")
			if err := rebuild(ctx); err != nil {
				logger.Error("sitesync.watch.rebuild_failed", "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("sitesync.watch.error", "error", err)
		}
	}
}

func relevantEvent(event fsnotify.Event, output string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return !within(event.Name, output)
}

func within(path, dir string) bool {
	if strings.TrimSpace(dir) == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
