package posts

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/internal/markdown"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

// Config locates the posts directory and tunes loading.
type Config struct {
	Dir string
	// Pattern filters file names, "*.md" by default.
	Pattern       string
	PreviewLength int
	// Workers bounds concurrent rendering; values below 1 mean one.
	Workers int
}

// Skipped records a source that could not be turned into a Post.
type Skipped struct {
	Filename string
	Err      error
}

// Result is the outcome of loading a posts directory. Posts are sorted by
// date, newest first, with the file name as tie breaker.
type Result struct {
	Posts      []*Post
	Skipped    []Skipped
	MissingDir bool
}

// Published returns the non-draft posts in collection order.
func (r *Result) Published() []*Post {
	if r == nil {
		return nil
	}
	return Published(r.Posts)
}

// Drafts returns the draft posts in collection order.
func (r *Result) Drafts() []*Post {
	if r == nil {
		return nil
	}
	var out []*Post
	for _, p := range r.Posts {
		if p.Draft {
			out = append(out, p)
		}
	}
	return out
}

// Collection reads, normalises and renders every post of a directory.
type Collection struct {
	fs         afero.Fs
	cfg        Config
	parser     interfaces.MarkdownParser
	normalizer *Normalizer
	logger     interfaces.Logger
}

// NewCollection wires a Collection. A nil normalizer uses NewNormalizer().
func NewCollection(fs afero.Fs, cfg Config, parser interfaces.MarkdownParser, normalizer *Normalizer, logger interfaces.Logger) *Collection {
	if strings.TrimSpace(cfg.Pattern) == "" {
		cfg.Pattern = "*.md"
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = markdown.DefaultPreviewLength
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if normalizer == nil {
		normalizer = NewNormalizer()
	}
	return &Collection{
		fs:         fs,
		cfg:        cfg,
		parser:     parser,
		normalizer: normalizer,
		logger:     logging.OrNoOp(logger),
	}
}

// Load processes the directory. A missing directory yields an empty result
// and a warning; a single bad post is logged and skipped. Only context
// cancellation and an unreadable directory are returned as errors.
func (c *Collection) Load(ctx context.Context) (*Result, error) {
	exists, err := afero.DirExists(c.fs, c.cfg.Dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("posts: stat %s: %w", c.cfg.Dir, err)
	}
	if !exists {
		c.logger.Warn("posts.dir.missing", "dir", c.cfg.Dir)
		return &Result{Posts: []*Post{}, MissingDir: true}, nil
	}

	entries, err := afero.ReadDir(c.fs, c.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("posts: read %s: %w", c.cfg.Dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(c.cfg.Pattern, entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}

	type outcome struct {
		post *Post
		err  error
	}
	outcomes := make([]outcome, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			post, err := c.loadPost(name)
			outcomes[i] = outcome{post: post, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Posts: make([]*Post, 0, len(names))}
	for i, out := range outcomes {
		if out.err != nil {
			logging.WithPostContext(c.logger, names[i], "", "load").Warn("posts.skipped", "error", out.err)
			result.Skipped = append(result.Skipped, Skipped{Filename: names[i], Err: out.err})
			continue
		}
		result.Posts = append(result.Posts, out.post)
	}
	SortPosts(result.Posts)

	c.logger.Info("posts.loaded",
		"dir", c.cfg.Dir,
		"posts", len(result.Posts),
		"drafts", len(result.Drafts()),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

func (c *Collection) loadPost(name string) (post *Post, err error) {
	defer func() {
		if r := recover(); r != nil {
			post, err = nil, fmt.Errorf("posts: %s: render panic: %v", name, r)
		}
	}()

	source, err := afero.ReadFile(c.fs, filepath.Join(c.cfg.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("posts: read %s: %w", name, err)
	}

	meta, body := markdown.ParseFrontMatter(source)
	post = c.normalizer.Normalize(name, meta, body, source)

	rendered, err := c.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("posts: %s: %w", name, err)
	}
	rendered = markdown.CleanRenderedHTML(rendered)
	post.HTML = string(rendered)
	post.Preview = markdown.Preview(rendered, c.cfg.PreviewLength)

	logging.WithPostContext(c.logger, name, post.Slug, "load").Debug("posts.rendered",
		"title_source", post.TitleSource,
		"draft", post.Draft,
	)
	return post, nil
}

// SortPosts orders posts newest first; equal dates fall back to file name.
func SortPosts(list []*Post) {
	slices.SortStableFunc(list, func(a, b *Post) int {
		if c := b.Time.Compare(a.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Filename, b.Filename)
	})
}
