package splice

import (
	"strings"

	"github.com/goliatone/go-sitesync/internal/htmlscan"
	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/internal/posts"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

// DefaultPlaceholderTags are given to list items without tag data.
var DefaultPlaceholderTags = []string{"general"}

// Config toggles the injected page furniture.
type Config struct {
	Navigation   bool
	TagCloud     bool
	FilterScript bool
	// PlaceholderTags fill data-tags on items that carry none.
	PlaceholderTags []string
	// FeedFile is linked from the navigation.
	FeedFile   string
	Strategies []Strategy
}

// Input is one splice request.
type Input struct {
	Document []byte
	List     string
	// Tags feed the tag cloud. Nil derives them from the list's data-tags.
	Tags []posts.TagCount
}

// Result reports what a splice did. Document is always usable; when no
// strategy matched it is the input unchanged.
type Result struct {
	Document []byte
	Changed  bool
	Strategy string
	Region   Region
	Injected []string
}

// Splicer replaces the post list of an existing home page.
type Splicer struct {
	cfg    Config
	logger interfaces.Logger
}

// NewSplicer builds a Splicer. Missing strategies default to
// DefaultStrategies.
func NewSplicer(cfg Config, logger interfaces.Logger) *Splicer {
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = DefaultStrategies()
	}
	if len(cfg.PlaceholderTags) == 0 {
		cfg.PlaceholderTags = DefaultPlaceholderTags
	}
	if strings.TrimSpace(cfg.FeedFile) == "" {
		cfg.FeedFile = "rss.xml"
	}
	return &Splicer{cfg: cfg, logger: logging.OrNoOp(logger)}
}

// Locate runs the strategies in order and returns the first region found.
func (s *Splicer) Locate(doc []byte) (Region, string, bool) {
	for _, strategy := range s.cfg.Strategies {
		if region, ok := strategy.Locate(doc); ok {
			return region, strategy.Name, true
		}
	}
	return Region{}, "", false
}

// Splice writes in.List into the located container of in.Document and adds
// the enabled guards that are not yet present. The input is never modified.
func (s *Splicer) Splice(in Input) Result {
	region, strategy, ok := s.Locate(in.Document)
	if !ok {
		s.logger.Warn("splice.container.missing", "bytes", len(in.Document))
		return Result{Document: in.Document}
	}

	list := FillPlaceholderTags(in.List, s.cfg.PlaceholderTags)
	if region.Wrap {
		list = "<div class=\"posts\">" + list + "</div>"
	}

	out := make([]byte, 0, len(in.Document)+len(list)+len(filterScript)+len(filterStyle)+512)
	out = append(out, in.Document[:region.Start]...)
	out = append(out, list...)
	out = append(out, in.Document[region.End:]...)

	tags := in.Tags
	if tags == nil {
		tags = TagsFromList(list)
	}

	container := region.OuterStart
	var injected []string
	for _, guard := range s.guards(tags) {
		doc := htmlscan.Parse(out)
		if guard.Present(doc) {
			continue
		}
		pos, markup := guard.Inject(doc, container)
		out = insertAt(out, pos, markup)
		if pos <= container {
			container += len(markup)
		}
		injected = append(injected, guard.Name)
	}

	result := Result{
		Document: out,
		Changed:  string(out) != string(in.Document),
		Strategy: strategy,
		Region:   region,
		Injected: injected,
	}
	s.logger.Info("splice.completed",
		"strategy", strategy,
		"changed", result.Changed,
		"injected", strings.Join(injected, ","),
	)
	return result
}

// guards lists the enabled guards. The tag cloud runs first because it is
// anchored on the container position.
func (s *Splicer) guards(tags []posts.TagCount) []Guard {
	var out []Guard
	if s.cfg.TagCloud {
		out = append(out, TagCloudGuard(tags))
	}
	if s.cfg.Navigation {
		out = append(out, NavigationGuard(s.cfg.FeedFile))
	}
	if s.cfg.FilterScript {
		out = append(out, FilterStyleGuard(), FilterScriptGuard())
	}
	return out
}

func insertAt(doc []byte, pos int, markup string) []byte {
	if pos < 0 {
		pos = 0
	}
	if pos > len(doc) {
		pos = len(doc)
	}
	out := make([]byte, 0, len(doc)+len(markup))
	out = append(out, doc[:pos]...)
	out = append(out, markup...)
	return append(out, doc[pos:]...)
}
