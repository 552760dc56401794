package template

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/goliatone/go-sitesync/internal/htmlscan"
	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

var (
	ErrReferenceNotFound = errors.New("template: reference document not found")
	ErrHeadNotFound      = errors.New("template: reference document has no <head>")
)

// No-container policies.
const (
	PolicyDefault = "default"
	PolicyBody    = "body"
)

// DefaultAssetDirs are the reference site folders shared with generated pages.
var DefaultAssetDirs = []string{"css", "js", "images", "img", "assets"}

// Config controls extraction.
type Config struct {
	// Candidates are tried in order; the first existing file is used.
	Candidates []string
	// ResourcesDir receives the reference asset folders. Empty skips copying.
	ResourcesDir string
	AssetDirs    []string
	// NoContainer selects the behaviour when no container marker matches.
	NoContainer string
	Site        Site
}

// Result is the outcome of one extraction. Extraction never fails: on error
// Fragments holds the defaults, Fallback is set and Err records the cause.
type Result struct {
	Fragments
	Source    string
	Container string
	Fallback  bool
	Assets    []string
	Err       error
}

// Extractor derives page fragments from an existing home page.
type Extractor struct {
	fs       afero.Fs
	cfg      Config
	defaults Fragments
	logger   interfaces.Logger
}

// NewExtractor builds an Extractor. The default fragments are computed once.
func NewExtractor(fs afero.Fs, cfg Config, logger interfaces.Logger) *Extractor {
	if len(cfg.AssetDirs) == 0 {
		cfg.AssetDirs = DefaultAssetDirs
	}
	if strings.TrimSpace(cfg.NoContainer) == "" {
		cfg.NoContainer = PolicyDefault
	}
	return &Extractor{
		fs:       fs,
		cfg:      cfg,
		defaults: Defaults(cfg.Site),
		logger:   logging.OrNoOp(logger),
	}
}

// Defaults returns the built-in fragments used on fallback.
func (e *Extractor) Defaults() Fragments {
	return e.defaults
}

// Locate returns the first configured candidate that exists as a file.
func (e *Extractor) Locate() (string, bool) {
	for _, candidate := range e.cfg.Candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		info, err := e.fs.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Extract locates the reference document and partitions it.
func (e *Extractor) Extract(ctx context.Context) Result {
	source, ok := e.Locate()
	if !ok {
		e.logger.Info("template.reference.missing", "candidates", e.cfg.Candidates)
		return e.fallback("", ErrReferenceNotFound)
	}
	return e.ExtractFile(ctx, source)
}

// ExtractFile partitions the document at source and, once that succeeds,
// copies its asset folders next to the output.
func (e *Extractor) ExtractFile(ctx context.Context, source string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = e.fallback(source, fmt.Errorf("template: extraction panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return e.fallback(source, err)
	}

	doc, err := afero.ReadFile(e.fs, source)
	if err != nil {
		return e.fallback(source, fmt.Errorf("template: read %s: %w", source, err))
	}

	fragments, container, err := Partition(doc, e.cfg.NoContainer, e.defaults)
	if err != nil {
		return e.fallback(source, err)
	}

	assets, err := e.copyAssets(ctx, filepath.Dir(source))
	if err != nil {
		return e.fallback(source, err)
	}

	e.logger.Info("template.extracted",
		"source", source,
		"container", orDefault(container, "none"),
		"assets", len(assets),
	)
	return Result{
		Fragments: fragments,
		Source:    source,
		Container: container,
		Assets:    assets,
	}
}

func (e *Extractor) fallback(source string, err error) Result {
	if source != "" {
		e.logger.Warn("template.extract.fallback", "source", source, "error", err)
	}
	return Result{
		Fragments: e.defaults,
		Source:    source,
		Fallback:  true,
		Err:       err,
	}
}

type marker struct {
	name  string
	match func(*htmlscan.Document, *htmlscan.Element) (*htmlscan.Element, bool)
}

func classMarker(class string) marker {
	return marker{
		name: "." + class,
		match: func(_ *htmlscan.Document, el *htmlscan.Element) (*htmlscan.Element, bool) {
			return el, el.HasClass(class)
		},
	}
}

func tagMarker(tag string) marker {
	return marker{
		name: tag,
		match: func(_ *htmlscan.Document, el *htmlscan.Element) (*htmlscan.Element, bool) {
			return el, el.Name == tag
		},
	}
}

// containerMarkers lists the post container shapes in priority order. A
// post-item resolves to its parent so the whole list is replaced.
var containerMarkers = []marker{
	{
		name: ".post-item",
		match: func(doc *htmlscan.Document, el *htmlscan.Element) (*htmlscan.Element, bool) {
			if !el.HasClass("post-item") {
				return nil, false
			}
			return doc.Parent(el)
		},
	},
	classMarker("posts"),
	classMarker("post-list"),
	classMarker("articles"),
	classMarker("blog-posts"),
	tagMarker("main"),
	tagMarker("article"),
}

// Partition splits doc into fragments around its post container. It returns
// the name of the marker that matched, or "" when the no-container policy
// was applied.
func Partition(doc []byte, policy string, defaults Fragments) (Fragments, string, error) {
	index := htmlscan.Parse(doc)
	head, ok := index.Find(htmlscan.Named("head"))
	if !ok || !head.Closed {
		return Fragments{}, "", ErrHeadNotFound
	}

	src := string(doc)
	base := Fragments{
		Prologue: src[:head.OuterStart],
		Head:     RewriteResourceURLs(src[head.OuterStart:head.OuterEnd], ParentPrefix),
	}

	for _, m := range containerMarkers {
		for i := range index.Elements {
			container, ok := m.match(index, &index.Elements[i])
			if !ok || container == nil || container.InnerStart < head.OuterEnd {
				continue
			}
			base.Header = RewriteResourceURLs(src[head.OuterEnd:container.InnerStart], ParentPrefix)
			base.Footer = RewriteResourceURLs(src[container.InnerEnd:], ParentPrefix)
			return base, m.name, nil
		}
	}

	if strings.EqualFold(strings.TrimSpace(policy), PolicyBody) {
		if body, ok := index.Find(htmlscan.Named("body")); ok && body.InnerEnd >= head.OuterEnd {
			base.Header = RewriteResourceURLs(src[head.OuterEnd:body.InnerEnd], ParentPrefix)
			base.Footer = "</body>\n</html>\n"
			return base, "", nil
		}
	}

	base.Header = defaults.Header
	base.Footer = defaults.Footer
	return base, "", nil
}
