package template

import (
	"html"
	"strings"
)

// Fragments partitions a page around its post content. A full document is
// Prologue + Head + Header + content + Footer.
type Fragments struct {
	Prologue string
	Head     string
	Header   string
	Footer   string
}

// Document joins the fragments around content.
func (f Fragments) Document(content string) string {
	var b strings.Builder
	b.Grow(len(f.Prologue) + len(f.Head) + len(f.Header) + len(content) + len(f.Footer))
	b.WriteString(f.Prologue)
	b.WriteString(f.Head)
	b.WriteString(f.Header)
	b.WriteString(content)
	b.WriteString(f.Footer)
	return b.String()
}

// Site carries the values the built-in fragments display.
type Site struct {
	Title       string
	Author      string
	Description string
	Language    string
	Theme       string
}

const (
	ThemeDefault = "default"
	ThemePlain   = "plain"
)

const defaultStyle = `        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
        h1 { color: #333; }
        .site-header { margin-bottom: 30px; }
        .site-description { color: #666; }
        .post-item { margin-bottom: 30px; border-bottom: 1px solid #eee; padding-bottom: 20px; }
        .post-item h2 { margin-bottom: 10px; }
        .post-date, .post-meta { color: #666; font-size: 0.9em; margin-bottom: 20px; }
        .post-preview { color: #666; }
        .post-content { margin-bottom: 30px; }
        .return-link { margin-top: 30px; }
        a { color: #0066cc; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { background: #f5f5f5; padding: 15px; border-radius: 5px; overflow-x: auto; }
        code { font-family: Consolas, Monaco, 'Andale Mono', monospace; }
        .site-footer { margin-top: 40px; color: #999; font-size: 0.85em; }
`

const plainStyle = `        body { font-family: system-ui, sans-serif; line-height: 1.5; max-width: 800px; margin: 0 auto; padding: 20px; }
        a { color: #0066cc; }
`

// Defaults returns the built-in fragments for site. The result depends only
// on its argument, so callers build it once per run and share it.
func Defaults(site Site) Fragments {
	title := html.EscapeString(orDefault(site.Title, "My Blog"))
	lang := html.EscapeString(orDefault(site.Language, "zh-cn"))
	author := html.EscapeString(orDefault(site.Author, "Author"))

	style := defaultStyle
	if strings.EqualFold(strings.TrimSpace(site.Theme), ThemePlain) {
		style = plainStyle
	}

	var header strings.Builder
	header.WriteString("\n<body>\n    <div class=\"container\">\n")
	header.WriteString("        <header class=\"site-header\">\n")
	header.WriteString("            <h1 class=\"site-title\">" + title + "</h1>\n")
	if desc := strings.TrimSpace(site.Description); desc != "" {
		header.WriteString("            <p class=\"site-description\">" + html.EscapeString(desc) + "</p>\n")
	}
	header.WriteString("        </header>\n        <main class=\"posts\">\n")

	return Fragments{
		Prologue: "<!DOCTYPE html>\n<html lang=\"" + lang + "\">\n",
		Head: "<head>\n" +
			"    <meta charset=\"utf-8\">\n" +
			"    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n" +
			"    <title>" + title + "</title>\n" +
			"    <style>\n" + style + "    </style>\n" +
			"</head>",
		Header: header.String(),
		Footer: "\n        </main>\n" +
			"        <footer class=\"site-footer\">\n" +
			"            <p>&copy; " + author + ". All rights reserved.</p>\n" +
			"        </footer>\n" +
			"    </div>\n" +
			"</body>\n" +
			"</html>\n",
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
