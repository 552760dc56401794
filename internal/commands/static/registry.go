package staticcmd

import (
	"errors"

	"github.com/spf13/afero"

	"github.com/goliatone/go-sitesync/internal/generator"
	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/internal/splice"
	"github.com/goliatone/go-sitesync/internal/template"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Dependencies are the collaborators shared by the static handlers.
type Dependencies struct {
	Service   generator.Service
	Fs        afero.Fs
	Splicer   *splice.Splicer
	Extractor *template.Extractor
}

// HandlerSet groups the handlers produced by RegisterStaticCommands.
type HandlerSet struct {
	Build   *BuildSiteHandler
	Diff    *DiffSiteHandler
	Clean   *CleanSiteHandler
	Feed    *BuildFeedHandler
	Splice  *SpliceIndexHandler
	Extract *ExtractTemplateHandler
}

// RegisterStaticCommands builds the static site handlers and registers them
// with reg when it is not nil.
func RegisterStaticCommands(reg CommandRegistry, deps Dependencies, provider interfaces.LoggerProvider, gates FeatureGates) (*HandlerSet, error) {
	if deps.Service == nil {
		return nil, errors.New("static command registration: generator service is nil")
	}
	if deps.Fs == nil || deps.Splicer == nil || deps.Extractor == nil {
		return nil, errors.New("static command registration: filesystem, splicer and extractor are required")
	}

	logger := logging.CommandLogger(provider, "static")
	set := &HandlerSet{
		Build:   NewBuildSiteHandler(deps.Service, logger, gates),
		Diff:    NewDiffSiteHandler(deps.Service, logger, gates),
		Clean:   NewCleanSiteHandler(deps.Service, logger, gates),
		Feed:    NewBuildFeedHandler(deps.Service, logger, gates),
		Splice:  NewSpliceIndexHandler(deps.Fs, deps.Splicer, logger),
		Extract: NewExtractTemplateHandler(deps.Extractor, logger),
	}

	if reg != nil {
		for _, handler := range []any{set.Build, set.Diff, set.Clean, set.Feed, set.Splice, set.Extract} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
