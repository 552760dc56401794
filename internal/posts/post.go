package posts

import (
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

// DateLayout is the canonical output format of every post date.
const DateLayout = "2006-01-02"

// Post is one Markdown source after normalisation and rendering.
type Post struct {
	// Filename is the source file name and the collection key.
	Filename string
	Slug     string
	// URL is the generated page file name, the source name with .md
	// replaced by .html.
	URL        string
	Title      string
	Date       string
	Time       time.Time
	Tags       []string
	Categories []string
	Author     string
	Draft      bool

	RawBody  []byte
	HTML     string
	Preview  string
	Metadata interfaces.Metadata

	// TitleSource names the resolver that produced Title.
	TitleSource string
	// Checksum is a digest of the raw source, used by incremental builds.
	Checksum string
}

// Href is the post link relative to the site root.
func (p *Post) Href() string {
	return path.Join("posts", p.URL)
}

// PageName maps a Markdown file name to its generated page name.
func PageName(filename string) string {
	base := path.Base(strings.TrimSpace(filename))
	ext := path.Ext(base)
	if strings.EqualFold(ext, ".md") || strings.EqualFold(ext, ".markdown") {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".html"
}

// Published filters out drafts, keeping order.
func Published(list []*Post) []*Post {
	out := make([]*Post, 0, len(list))
	for _, p := range list {
		if p != nil && !p.Draft {
			out = append(out, p)
		}
	}
	return out
}
