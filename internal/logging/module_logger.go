package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

const (
	rootModule      = "sitesync"
	markdownModule  = "sitesync.markdown"
	postsModule     = "sitesync.posts"
	templateModule  = "sitesync.template"
	spliceModule    = "sitesync.splice"
	feedModule      = "sitesync.feed"
	generatorModule = "sitesync.generator"
	commandsModule  = "sitesync.commands"
)

const (
	fieldPostPath  = "post_path"
	fieldPostSlug  = "slug"
	fieldPostStage = "stage"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered per stage.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// MarkdownLogger returns the logger namespace for front matter and rendering.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// PostsLogger returns the logger namespace for post collection.
func PostsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, postsModule)
}

// TemplateLogger returns the logger namespace for template extraction.
func TemplateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, templateModule)
}

// SpliceLogger returns the logger namespace for index splicing.
func SpliceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, spliceModule)
}

// FeedLogger returns the logger namespace for feed generation.
func FeedLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, feedModule)
}

// GeneratorLogger returns the logger namespace for build orchestration.
func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// CommandLogger returns the logger for a family of command handlers, e.g.
// "static" becomes sitesync.commands.static.
func CommandLogger(provider interfaces.LoggerProvider, family string) interfaces.Logger {
	family = strings.TrimSpace(family)
	if family == "" {
		family = "core"
	}
	return WithFields(ModuleLogger(provider, commandsModule+"."+family), map[string]any{
		"component":      "command",
		"command_module": family,
	})
}

// WithPostContext enriches the logger with the source path, slug and pipeline
// stage of a post. Empty values are ignored.
func WithPostContext(logger interfaces.Logger, path, slug, stage string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldPostPath] = trimmed
	}
	if trimmed := strings.TrimSpace(slug); trimmed != "" {
		fields[fieldPostSlug] = trimmed
	}
	if trimmed := strings.TrimSpace(stage); trimmed != "" {
		fields[fieldPostStage] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
