package page

import (
	"bytes"
	gotemplate "html/template"
	"regexp"
	"strings"

	"github.com/goliatone/go-sitesync/internal/posts"
	"github.com/goliatone/go-sitesync/internal/template"
)

// DefaultDateLabel precedes the post date in the meta line.
const DefaultDateLabel = "Published:"

// HomeLink is the return link of every post page.
const HomeLink = "../index.html"

var articleTemplate = gotemplate.Must(gotemplate.New("article").Parse(`
    <article class="post">
        <h1 class="post-title">{{.Title}}</h1>
        <div class="post-meta">{{.Label}} {{.Date}}</div>
        <div class="post-content">
            {{.Content}}
        </div>
        <div class="return-link">
            <a href="{{.Home}}">{{.HomeText}}</a>
        </div>
    </article>
`))

type articleView struct {
	Title    string
	Label    string
	Date     string
	Content  gotemplate.HTML
	Home     string
	HomeText string
}

// Option customises an Assembler.
type Option func(*Assembler)

// WithDateLabel replaces the label printed before the date.
func WithDateLabel(label string) Option {
	return func(a *Assembler) {
		if label = strings.TrimSpace(label); label != "" {
			a.dateLabel = label
		}
	}
}

// WithHomeText replaces the return link text.
func WithHomeText(text string) Option {
	return func(a *Assembler) {
		if text = strings.TrimSpace(text); text != "" {
			a.homeText = text
		}
	}
}

// Assembler renders full post pages from template fragments.
type Assembler struct {
	fragments template.Fragments
	dateLabel string
	homeText  string
}

// NewAssembler returns an Assembler wrapping content in fragments.
func NewAssembler(fragments template.Fragments, opts ...Option) *Assembler {
	a := &Assembler{
		fragments: fragments,
		dateLabel: DefaultDateLabel,
		homeText:  "Back to home",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Render produces the complete document for post.
func (a *Assembler) Render(post *posts.Post) (string, error) {
	var article bytes.Buffer
	err := articleTemplate.Execute(&article, articleView{
		Title:    post.Title,
		Label:    a.dateLabel,
		Date:     post.Date,
		Content:  gotemplate.HTML(post.HTML),
		Home:     HomeLink,
		HomeText: a.homeText,
	})
	if err != nil {
		return "", err
	}

	frags := a.fragments
	frags.Head = InjectTitle(frags.Head, post.Title)
	return frags.Document(article.String()), nil
}

var titleOpen = regexp.MustCompile(`(?i)<title(\s[^>]*)?>`)

var headClose = regexp.MustCompile(`(?i)</head\s*>`)

// InjectTitle prepends title to an existing <title> element of head, or adds
// one before </head>.
func InjectTitle(head, title string) string {
	escaped := gotemplate.HTMLEscapeString(title)
	if loc := titleOpen.FindStringIndex(head); loc != nil {
		rest := head[loc[1]:]
		sep := " - "
		if end := strings.Index(strings.ToLower(rest), "</title"); end >= 0 && strings.TrimSpace(rest[:end]) == "" {
			sep = ""
		}
		return head[:loc[1]] + escaped + sep + rest
	}
	if loc := headClose.FindStringIndex(head); loc != nil {
		return head[:loc[0]] + "<title>" + escaped + "</title>" + head[loc[0]:]
	}
	return head + "<title>" + escaped + "</title>"
}
