package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	staticcmd "github.com/goliatone/go-sitesync/internal/commands/static"
	"github.com/goliatone/go-sitesync/internal/di"
	"github.com/goliatone/go-sitesync/internal/generator"
	"github.com/goliatone/go-sitesync/internal/runtimeconfig"
	"github.com/goliatone/go-sitesync/internal/splice"
	"github.com/goliatone/go-sitesync/internal/template"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

type executor[T any] interface {
	Execute(ctx context.Context, msg T) error
}

type handlerSet struct {
	build   executor[staticcmd.BuildSiteCommand]
	diff    executor[staticcmd.DiffSiteCommand]
	clean   executor[staticcmd.CleanSiteCommand]
	feed    executor[staticcmd.BuildFeedCommand]
	splice  executor[staticcmd.SpliceIndexCommand]
	extract executor[staticcmd.ExtractTemplateCommand]
}

type moduleOptions struct {
	ConfigFile string
	Verbose    bool
	LogWriter  io.Writer
}

type moduleResources struct {
	config   runtimeconfig.Config
	handlers handlerSet
	logger   interfaces.Logger
}

var moduleBuilder = buildModule

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runContext(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "sitesync:", err)
		os.Exit(1)
	}
}

func runContext(ctx context.Context, args []string, stdout io.Writer) error {
	root := newRootCommand(stdout)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func buildModule(opts moduleOptions) (*moduleResources, error) {
	cfg, used, err := runtimeconfig.Load(runtimeconfig.LoadOptions{File: opts.ConfigFile})
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}

	diOpts := []di.Option{}
	if opts.LogWriter != nil {
		diOpts = append(diOpts, di.WithLogWriter(opts.LogWriter))
	}
	container, err := di.NewContainer(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise container: %w", err)
	}

	logger := container.Logger("cli")
	if used != "" {
		logger.Debug("sitesync.config.loaded", "file", used)
	}

	set := container.Commands()
	return &moduleResources{
		config: cfg,
		logger: logger,
		handlers: handlerSet{
			build:   set.Build,
			diff:    set.Diff,
			clean:   set.Clean,
			feed:    set.Feed,
			splice:  set.Splice,
			extract: set.Extract,
		},
	}, nil
}

type cliState struct {
	opts      moduleOptions
	stdout    io.Writer
	resources *moduleResources
}

func (s *cliState) module() (*moduleResources, error) {
	if s.resources != nil {
		return s.resources, nil
	}
	resources, err := moduleBuilder(s.opts)
	if err != nil {
		return nil, fmt.Errorf("bootstrap module: %w", err)
	}
	if resources == nil {
		return nil, errors.New("bootstrap module: no resources returned")
	}
	s.resources = resources
	return resources, nil
}

func newRootCommand(stdout io.Writer) *cobra.Command {
	state := &cliState{stdout: stdout}

	root := &cobra.Command{
		Use:           "sitesync",
		Short:         "Render a Markdown post directory into a static blog",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing subcommand")
			}
			return fmt.Errorf("unknown subcommand %q", args[0])
		},
		RunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&state.opts.ConfigFile, "config", "", "config file (default is ./config.yml)")
	root.PersistentFlags().BoolVarP(&state.opts.Verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newBuildCommand(state),
		newDiffCommand(state),
		newCleanCommand(state),
		newFeedCommand(state),
		newSpliceCommand(state),
		newExtractCommand(state),
		newWatchCommand(state),
		newServeCommand(state),
	)
	return root
}

func newBuildCommand(state *cliState) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every post and update the home page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := state.module()
			if err != nil {
				return err
			}
			return executeBuild(cmd.Context(), res, state.stdout, staticcmd.BuildSiteCommand{DryRun: dryRun, Reason: "cli"})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render without writing any file")
	return cmd
}

func executeBuild(ctx context.Context, res *moduleResources, out io.Writer, msg staticcmd.BuildSiteCommand) error {
	if res.handlers.build == nil {
		return errors.New("build handler not configured")
	}
	msg.ResultCallback = summaryPrinter(out)
	return res.handlers.build.Execute(ctx, msg)
}

func newDiffCommand(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Report what a build would write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := state.module()
			if err != nil {
				return err
			}
			if res.handlers.diff == nil {
				return errors.New("diff handler not configured")
			}
			return res.handlers.diff.Execute(cmd.Context(), staticcmd.DiffSiteCommand{
				ResultCallback: summaryPrinter(state.stdout),
			})
		},
	}
}

func newCleanCommand(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := state.module()
			if err != nil {
				return err
			}
			if res.handlers.clean == nil {
				return errors.New("clean handler not configured")
			}
			if err := res.handlers.clean.Execute(cmd.Context(), staticcmd.CleanSiteCommand{}); err != nil {
				return err
			}
			fmt.Fprintf(state.stdout, "operation=clean output=%s\n", res.config.Paths.OutputDir)
			return nil
		},
	}
}

func newFeedCommand(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Regenerate the RSS feed from generated pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := state.module()
			if err != nil {
				return err
			}
			if res.handlers.feed == nil {
				return errors.New("feed handler not configured")
			}
			return res.handlers.feed.Execute(cmd.Context(), staticcmd.BuildFeedCommand{
				ResultCallback: func(env staticcmd.ResultEnvelope) {
					if env.Result != nil {
						fmt.Fprintf(state.stdout, "operation=feed items=%d\n", env.Result.FeedItems)
					}
				},
			})
		},
	}
}

func newSpliceCommand(state *cliState) *cobra.Command {
	var msg staticcmd.SpliceIndexCommand
	cmd := &cobra.Command{
		Use:   "splice",
		Short: "Replace the post list of an existing home page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := state.module()
			if err != nil {
				return err
			}
			if res.handlers.splice == nil {
				return errors.New("splice handler not configured")
			}
			msg = msg.WithDefaultOutput(res.config.Paths.OutputDir)
			msg.Callback = func(result splice.Result) {
				fmt.Fprintf(state.stdout, "operation=splice strategy=%s changed=%t injected=%s target=%s\n",
					result.Strategy, result.Changed, strings.Join(result.Injected, ","), msg.Target())
			}
			return res.handlers.splice.Execute(cmd.Context(), msg)
		},
	}
	cmd.Flags().StringVar(&msg.IndexPath, "index", "", "home page to read")
	cmd.Flags().StringVar(&msg.ListPath, "list", "", "rendered article list fragment")
	cmd.Flags().StringVar(&msg.OutputPath, "output", "", "write the result here (default <output_dir>/index.html)")
	return cmd
}

func newExtractCommand(state *cliState) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Show what the template extractor derives from a reference page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := state.module()
			if err != nil {
				return err
			}
			if res.handlers.extract == nil {
				return errors.New("extract handler not configured")
			}
			return res.handlers.extract.Execute(cmd.Context(), staticcmd.ExtractTemplateCommand{
				Source: source,
				Callback: func(result template.Result) {
					origin := result.Source
					if result.Fallback {
						origin = "defaults"
					}
					fmt.Fprintf(state.stdout, "operation=extract source=%s container=%s assets=%d\n",
						origin, result.Container, len(result.Assets))
				},
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "reference page (default: configured candidates)")
	return cmd
}

func summaryPrinter(out io.Writer) staticcmd.ResultCallback {
	return func(env staticcmd.ResultEnvelope) {
		printSummary(out, env)
	}
}

func printSummary(out io.Writer, env staticcmd.ResultEnvelope) {
	operation, _ := env.Metadata["operation"].(string)
	if operation == "" {
		operation = "build"
	}
	result := env.Result
	if result == nil {
		fmt.Fprintf(out, "operation=%s\n", operation)
		return
	}
	fmt.Fprintf(out, "operation=%s summary posts=%d skipped=%d failed=%d drafts=%d assets=%d feed_items=%d dry_run=%t duration=%s\n",
		operation,
		result.PostsBuilt,
		result.PostsSkipped,
		result.PostsFailed,
		result.Drafts,
		result.AssetsBuilt,
		result.FeedItems,
		result.DryRun,
		result.Duration,
	)
	fmt.Fprintf(out, "operation=%s index origin=%s strategy=%s changed=%t template=%s theme=%s\n",
		operation,
		result.Index.Origin,
		result.Index.Strategy,
		result.Index.Changed,
		templateOrigin(result),
		orNone(result.Theme),
	)
	for _, diag := range result.Diagnostics {
		if diag.Err == nil {
			continue
		}
		fmt.Fprintf(out, "operation=%s error source=%s stage=%s err=%v\n", operation, diag.Source, diag.Stage, diag.Err)
	}
}

func templateOrigin(result *generator.BuildResult) string {
	if result.TemplateFallback || result.TemplateSource == "" {
		return "defaults"
	}
	return result.TemplateSource
}

func orNone(value string) string {
	if value == "" {
		return "none"
	}
	return value
}
