package posts

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
}

// Normalizer canonicalises dates, titles, tags and draft flags.
type Normalizer struct {
	now       func() time.Time
	location  *time.Location
	resolvers []TitleResolver
}

// NormalizerOption customises a Normalizer.
type NormalizerOption func(*Normalizer)

// WithClock overrides the clock used for missing or invalid dates.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithLocation sets the zone that zone-less dates are parsed in.
func WithLocation(loc *time.Location) NormalizerOption {
	return func(n *Normalizer) {
		if loc != nil {
			n.location = loc
		}
	}
}

// WithTitleResolvers replaces the title fallback chain.
func WithTitleResolvers(resolvers ...TitleResolver) NormalizerOption {
	return func(n *Normalizer) {
		if len(resolvers) > 0 {
			n.resolvers = resolvers
		}
	}
}

// NewNormalizer returns a Normalizer using the local zone and
// DefaultTitleResolvers unless options say otherwise.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		now:       time.Now,
		location:  time.Local,
		resolvers: DefaultTitleResolvers,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize builds a Post from a parsed source. It never fails; missing
// values degrade to defaults.
func (n *Normalizer) Normalize(filename string, meta interfaces.Metadata, body, source []byte) *Post {
	title, titleSource := ResolveTitle(TitleInput{Metadata: meta, Body: body, Filename: filename}, n.resolvers)
	date, parsed := n.NormalizeDate(meta.Date)
	page := PageName(filename)

	sum := sha256.Sum256(source)
	return &Post{
		Filename:    filename,
		Slug:        strings.TrimSuffix(page, ".html"),
		URL:         page,
		Title:       title,
		TitleSource: titleSource,
		Date:        date,
		Time:        parsed,
		Tags:        nonNil(meta.Tags),
		Categories:  nonNil(meta.Categories),
		Author:      strings.TrimSpace(meta.Author),
		Draft:       meta.Draft,
		RawBody:     body,
		Metadata:    meta,
		Checksum:    hex.EncodeToString(sum[:]),
	}
}

// NormalizeDate formats value as YYYY-MM-DD. time values and strings in the
// known layouts are accepted; anything else becomes today.
func (n *Normalizer) NormalizeDate(value any) (string, time.Time) {
	if t, ok := n.parseDate(value); ok {
		return t.Format(DateLayout), t
	}
	now := n.now().In(n.location)
	return now.Format(DateLayout), now
}

func (n *Normalizer) parseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, n.location); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func nonNil(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
