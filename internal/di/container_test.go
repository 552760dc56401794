package di

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	staticcmd "github.com/goliatone/go-sitesync/internal/commands/static"
	"github.com/goliatone/go-sitesync/internal/logging/gologger"
	"github.com/goliatone/go-sitesync/internal/runtimeconfig"
)

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Paths.PostsDir = ""

	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrPostsDirRequired) {
		t.Fatalf("expected ErrPostsDirRequired, got %v", err)
	}
}

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := NewContainer(cfg, WithFilesystem(afero.NewMemMapFs()))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	provider, ok := container.LoggerProvider().(*gologger.Provider)
	if !ok {
		t.Fatalf("expected go-logger provider, got %T", container.LoggerProvider())
	}
	if provider.GetLogger("sitesync.test") == nil {
		t.Fatal("expected logger from go-logger provider, got nil")
	}
}

func TestContainerBuildsSiteThroughCommands(t *testing.T) {
	fs := afero.NewMemMapFs()
	post := "---\ntitle: Hello\ndate: 2024-05-01\ntags: [go]\n---\n\nBody.\n"
	if err := afero.WriteFile(fs, "source/_posts/hello.md", []byte(post), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var logs bytes.Buffer
	container, err := NewContainer(runtimeconfig.DefaultConfig(),
		WithFilesystem(fs),
		WithLogWriter(&logs),
		WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	var built int
	err = container.Commands().Build.Execute(context.Background(), staticcmd.BuildSiteCommand{
		ResultCallback: func(env staticcmd.ResultEnvelope) {
			if env.Result != nil {
				built = env.Result.PostsBuilt
			}
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if built != 1 {
		t.Fatalf("expected one post built, got %d", built)
	}
	for _, name := range []string{"public/posts/hello.html", "public/index.html", "public/article_list.html", "public/rss.xml"} {
		if exists, _ := afero.Exists(fs, name); !exists {
			t.Fatalf("expected %s to be written", name)
		}
	}
	if !strings.Contains(logs.String(), "generator.build.completed") {
		t.Fatalf("expected build log entry, got %q", logs.String())
	}
}
