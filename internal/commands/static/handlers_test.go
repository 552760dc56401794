package staticcmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/afero"

	"github.com/goliatone/go-sitesync/internal/generator"
	"github.com/goliatone/go-sitesync/internal/splice"
	"github.com/goliatone/go-sitesync/internal/template"
)

func TestBuildSiteHandler_Execute_Build(t *testing.T) {
	cmd := loadBuildFixture(t, "build_dry_run.json")

	var capturedOpts generator.BuildOptions
	callbackInvoked := false

	svc := &fakeGeneratorService{
		buildFunc: func(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
			capturedOpts = opts
			return &generator.BuildResult{PostsBuilt: 3}, nil
		},
	}

	handler := NewBuildSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})

	cmd.ResultCallback = func(env ResultEnvelope) {
		callbackInvoked = true
		if env.Result == nil || env.Result.PostsBuilt != 3 {
			t.Fatalf("unexpected build result %#v", env.Result)
		}
		if env.Metadata["operation"] != "build" || env.Metadata["reason"] != "watch" {
			t.Fatalf("unexpected metadata %v", env.Metadata)
		}
	}

	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute build: %v", err)
	}
	if !capturedOpts.DryRun {
		t.Fatal("expected DryRun from fixture")
	}
	if !callbackInvoked {
		t.Fatal("expected callback to be invoked")
	}
}

func TestBuildSiteHandler_Execute_PropagatesBuildError(t *testing.T) {
	buildErr := errors.New("write failed")
	svc := &fakeGeneratorService{
		buildFunc: func(context.Context, generator.BuildOptions) (*generator.BuildResult, error) {
			return &generator.BuildResult{PostsFailed: 1}, buildErr
		},
	}

	var got *generator.BuildResult
	handler := NewBuildSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	err := handler.Execute(context.Background(), BuildSiteCommand{ResultCallback: func(env ResultEnvelope) {
		got = env.Result
	}})
	if !errors.Is(err, buildErr) {
		t.Fatalf("expected build error, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if got == nil || got.PostsFailed != 1 {
		t.Fatal("expected partial result to reach the callback")
	}
}

func TestBuildSiteHandler_Execute_GeneratorDisabled(t *testing.T) {
	handler := NewBuildSiteHandler(&fakeGeneratorService{}, nil, FeatureGates{GeneratorEnabled: alwaysFalse})
	err := handler.Execute(context.Background(), BuildSiteCommand{})
	if !errors.Is(err, generator.ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestDiffSiteHandler_Execute(t *testing.T) {
	var capturedOpts generator.BuildOptions
	svc := &fakeGeneratorService{
		buildFunc: func(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
			capturedOpts = opts
			return &generator.BuildResult{PostsBuilt: 2, DryRun: true}, nil
		},
	}

	callbackInvoked := false
	handler := NewDiffSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	err := handler.Execute(context.Background(), DiffSiteCommand{ResultCallback: func(env ResultEnvelope) {
		callbackInvoked = true
		if env.Metadata["operation"] != "diff" {
			t.Fatalf("expected diff operation, got %v", env.Metadata["operation"])
		}
	}})
	if err != nil {
		t.Fatalf("execute diff: %v", err)
	}
	if !capturedOpts.DryRun {
		t.Fatal("expected DryRun to be true for diff")
	}
	if !callbackInvoked {
		t.Fatal("expected callback to be invoked")
	}
}

func TestCleanSiteHandler_Execute(t *testing.T) {
	cleanCalled := false
	svc := &fakeGeneratorService{
		cleanFunc: func(ctx context.Context) error {
			cleanCalled = true
			return nil
		},
	}

	handler := NewCleanSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	if err := handler.Execute(context.Background(), CleanSiteCommand{}); err != nil {
		t.Fatalf("execute clean: %v", err)
	}
	if !cleanCalled {
		t.Fatal("expected Clean to be called")
	}
}

func TestBuildFeedHandler_Execute(t *testing.T) {
	svc := &fakeGeneratorService{
		feedFunc: func(context.Context) (int, error) { return 4, nil },
	}

	var items int
	handler := NewBuildFeedHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	err := handler.Execute(context.Background(), BuildFeedCommand{ResultCallback: func(env ResultEnvelope) {
		items = env.Result.FeedItems
	}})
	if err != nil {
		t.Fatalf("execute feed: %v", err)
	}
	if items != 4 {
		t.Fatalf("expected 4 feed items, got %d", items)
	}
}

const spliceIndex = `<!DOCTYPE html>
<html>
<head><title>Home</title></head>
<body>
<div class="posts"><p>stale</p></div>
</body>
</html>
`

const spliceList = "\n<div class=\"post-item\" data-tags=\"go\"><h2 class=\"post-title\"><a href=\"posts/a.html\">A</a></h2></div>\n"

func TestSpliceIndexHandler_Execute(t *testing.T) {
	cmd := loadSpliceFixture(t, "splice_basic.json")
	fs := afero.NewMemMapFs()
	writeFile(t, fs, cmd.IndexPath, spliceIndex)
	writeFile(t, fs, cmd.ListPath, spliceList)

	splicer := splice.NewSplicer(splice.Config{TagCloud: true}, nil)
	handler := NewSpliceIndexHandler(fs, splicer, nil)

	var result splice.Result
	cmd.Callback = func(r splice.Result) { result = r }
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute splice: %v", err)
	}
	if result.Strategy != "element" || !result.Changed {
		t.Fatalf("unexpected splice result strategy=%q changed=%v", result.Strategy, result.Changed)
	}

	written, err := afero.ReadFile(fs, cmd.Target())
	if err != nil {
		t.Fatalf("read spliced index: %v", err)
	}
	if strings.Contains(string(written), "stale") || !strings.Contains(string(written), `href="posts/a.html"`) {
		t.Fatalf("unexpected spliced index %q", written)
	}
	if original, _ := afero.ReadFile(fs, cmd.IndexPath); string(original) != spliceIndex {
		t.Fatalf("expected input index untouched, got %q", original)
	}

	again := SpliceIndexCommand{
		IndexPath:  cmd.Target(),
		ListPath:   cmd.ListPath,
		OutputPath: "dist/again.html",
		Callback:   cmd.Callback,
	}
	if err := handler.Execute(context.Background(), again); err != nil {
		t.Fatalf("second splice: %v", err)
	}
	if result.Changed {
		t.Fatal("expected splicing a spliced page to leave it unchanged")
	}
}

func TestSpliceIndexHandler_WritesSeparateOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "in/index.html", spliceIndex)
	writeFile(t, fs, "in/list.html", spliceList)

	handler := NewSpliceIndexHandler(fs, splice.NewSplicer(splice.Config{}, nil), nil)
	cmd := SpliceIndexCommand{IndexPath: "in/index.html", ListPath: "in/list.html", OutputPath: "out/index.html"}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute splice: %v", err)
	}

	original, _ := afero.ReadFile(fs, "in/index.html")
	if string(original) != spliceIndex {
		t.Fatal("expected source index untouched")
	}
	if exists, _ := afero.Exists(fs, "out/index.html"); !exists {
		t.Fatal("expected output written")
	}
}

func TestSpliceIndexCommandValidate(t *testing.T) {
	cmd := loadSpliceFixture(t, "splice_missing_index.json")
	handler := NewSpliceIndexHandler(afero.NewMemMapFs(), splice.NewSplicer(splice.Config{}, nil), nil)

	err := handler.Execute(context.Background(), cmd)
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSpliceIndexCommandRejectsInPlaceWrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "public/index.html", spliceIndex)
	writeFile(t, fs, "public/article_list.html", spliceList)
	handler := NewSpliceIndexHandler(fs, splice.NewSplicer(splice.Config{}, nil), nil)

	for _, output := range []string{"", "public/index.html", "public/./index.html"} {
		cmd := SpliceIndexCommand{IndexPath: "public/index.html", ListPath: "public/article_list.html", OutputPath: output}
		err := handler.Execute(context.Background(), cmd)
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("output %q: expected validation error, got %v", output, err)
		}
	}
	if data, _ := afero.ReadFile(fs, "public/index.html"); string(data) != spliceIndex {
		t.Fatalf("expected index bytes unchanged, got %q", data)
	}
}

func TestSpliceIndexCommandWithDefaultOutput(t *testing.T) {
	cmd := SpliceIndexCommand{IndexPath: "site/index.html"}.WithDefaultOutput("public")
	if cmd.Target() != filepath.Join("public", "index.html") {
		t.Fatalf("expected default output under public, got %q", cmd.Target())
	}
	cmd = SpliceIndexCommand{OutputPath: "out.html"}.WithDefaultOutput("public")
	if cmd.Target() != "out.html" {
		t.Fatalf("expected explicit output kept, got %q", cmd.Target())
	}
}

func TestExtractTemplateHandler_Execute(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "ref/index.html", spliceIndex)

	extractor := template.NewExtractor(fs, template.Config{Site: template.Site{Title: "Blog"}}, nil)
	handler := NewExtractTemplateHandler(extractor, nil)

	var result template.Result
	err := handler.Execute(context.Background(), ExtractTemplateCommand{
		Source:   "ref/index.html",
		Callback: func(r template.Result) { result = r },
	})
	if err != nil {
		t.Fatalf("execute extract: %v", err)
	}
	if result.Fallback || result.Container != ".posts" {
		t.Fatalf("unexpected extraction fallback=%v container=%q err=%v", result.Fallback, result.Container, result.Err)
	}

	err = handler.Execute(context.Background(), ExtractTemplateCommand{
		Source:   "ref/missing.html",
		Callback: func(r template.Result) { result = r },
	})
	if err != nil {
		t.Fatalf("fallback must not fail the command: %v", err)
	}
	if !result.Fallback {
		t.Fatal("expected fallback for missing reference")
	}
}

func loadBuildFixture(t *testing.T, name string) BuildSiteCommand {
	t.Helper()
	var cmd BuildSiteCommand
	loadFixture(t, name, &cmd)
	return cmd
}

func loadSpliceFixture(t *testing.T, name string) SpliceIndexCommand {
	t.Helper()
	var cmd SpliceIndexCommand
	loadFixture(t, name, &cmd)
	return cmd
}

func loadFixture(t *testing.T, name string, target any) {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("unmarshal fixture %s: %v", name, err)
	}
}

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

type fakeGeneratorService struct {
	buildFunc func(context.Context, generator.BuildOptions) (*generator.BuildResult, error)
	feedFunc  func(context.Context) (int, error)
	cleanFunc func(context.Context) error
}

func (f *fakeGeneratorService) Build(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
	if f.buildFunc != nil {
		return f.buildFunc(ctx, opts)
	}
	return nil, nil
}

func (f *fakeGeneratorService) BuildFeed(ctx context.Context) (int, error) {
	if f.feedFunc != nil {
		return f.feedFunc(ctx)
	}
	return 0, nil
}

func (f *fakeGeneratorService) Clean(ctx context.Context) error {
	if f.cleanFunc != nil {
		return f.cleanFunc(ctx)
	}
	return nil
}

func alwaysTrue() bool  { return true }
func alwaysFalse() bool { return false }
