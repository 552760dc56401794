package splice

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-sitesync/internal/htmlscan"
	"github.com/goliatone/go-sitesync/internal/posts"
)

// Guard is an injectable fragment with its presence check. Inject returns
// the insertion offset and the markup to insert.
type Guard struct {
	Name    string
	Present func(doc *htmlscan.Document) bool
	Inject  func(doc *htmlscan.Document, container int) (int, string)
}

// FilterFunction names the client-side filter; its presence in an inline
// script marks the script as already injected.
const FilterFunction = "filterPostsByTag"

var navWords = []string{"home", "tags", "rss", "首页", "标签"}

// NavigationGuard adds the top navigation after <body>.
func NavigationGuard(feedFile string) Guard {
	return Guard{
		Name: "navigation",
		Present: func(doc *htmlscan.Document) bool {
			if doc.Count(htmlscan.WithClass("", "top-nav")) > 0 {
				return true
			}
			for _, nav := range doc.FindAll(htmlscan.Named("nav")) {
				if nav.HasClass("tag-list") {
					continue
				}
				text := strings.ToLower(htmlscan.Text(doc.Inner(nav)))
				for _, word := range navWords {
					if strings.Contains(text, word) {
						return true
					}
				}
			}
			return false
		},
		Inject: func(doc *htmlscan.Document, container int) (int, string) {
			markup := "\n<nav class=\"top-nav\">\n" +
				"    <a href=\"index.html\">Home</a>\n" +
				"    <a href=\"#tags\">Tags</a>\n" +
				"    <a href=\"" + html.EscapeString(feedFile) + "\">RSS</a>\n" +
				"</nav>\n"
			if body, ok := doc.Find(htmlscan.Named("body")); ok {
				return body.InnerStart, markup
			}
			return container, markup
		},
	}
}

// TagCloudGuard adds the tag list right before the post container.
func TagCloudGuard(tags []posts.TagCount) Guard {
	return Guard{
		Name: "tag-cloud",
		Present: func(doc *htmlscan.Document) bool {
			return doc.Count(htmlscan.WithClass("", "tag-list")) > 0
		},
		Inject: func(_ *htmlscan.Document, container int) (int, string) {
			return container, renderTagCloud(tags)
		},
	}
}

func renderTagCloud(tags []posts.TagCount) string {
	var b strings.Builder
	b.WriteString("<section class=\"tag-list\" id=\"tags\">\n")
	b.WriteString("    <a href=\"#tags\" class=\"tag active\" data-tag=\"all\">All</a>\n")
	for _, tag := range tags {
		fmt.Fprintf(&b, "    <a href=\"#tags\" class=\"tag\" data-tag=\"%s\">%s <span class=\"tag-count\">(%d)</span></a>\n",
			html.EscapeString(tag.Token), html.EscapeString(tag.Name), tag.Count)
	}
	b.WriteString("</section>\n")
	return b.String()
}

const filterStyle = `<style id="tag-filter-style">
    .top-nav { margin-bottom: 20px; }
    .top-nav a { margin-right: 15px; }
    .tag-list { margin: 20px 0; }
    .tag-list .tag { display: inline-block; margin: 0 8px 8px 0; padding: 2px 10px; border: 1px solid #ddd; border-radius: 12px; font-size: 0.9em; }
    .tag-list .tag.active { background: #0066cc; border-color: #0066cc; color: #fff; }
    .tag-count { opacity: 0.7; }
</style>
`

// FilterStyleGuard adds the tag filter stylesheet before </head>.
func FilterStyleGuard() Guard {
	return Guard{
		Name: "filter-style",
		Present: func(doc *htmlscan.Document) bool {
			return doc.Count(htmlscan.WithID("style", "tag-filter-style")) > 0
		},
		Inject: func(doc *htmlscan.Document, container int) (int, string) {
			if head, ok := doc.Find(htmlscan.Named("head")); ok && head.Closed {
				return head.InnerEnd, filterStyle
			}
			return container, filterStyle
		},
	}
}

const filterScript = `<script>
function ` + FilterFunction + `(tag) {
    var items = document.querySelectorAll('.post-item');
    for (var i = 0; i < items.length; i++) {
        var tags = (items[i].getAttribute('data-tags') || '').split(' ');
        items[i].style.display = (tag === 'all' || tags.indexOf(tag) !== -1) ? '' : 'none';
    }
    var links = document.querySelectorAll('.tag-list .tag');
    for (var j = 0; j < links.length; j++) {
        links[j].classList.toggle('active', links[j].getAttribute('data-tag') === tag);
    }
}
document.addEventListener('DOMContentLoaded', function () {
    var links = document.querySelectorAll('.tag-list .tag');
    for (var i = 0; i < links.length; i++) {
        links[i].addEventListener('click', function (event) {
            event.preventDefault();
            ` + FilterFunction + `(this.getAttribute('data-tag'));
        });
    }
});
</script>
`

// FilterScriptGuard adds the client-side filter before </body>.
func FilterScriptGuard() Guard {
	return Guard{
		Name: "filter-script",
		Present: func(doc *htmlscan.Document) bool {
			for _, script := range doc.FindAll(htmlscan.Named("script")) {
				if bytes.Contains(doc.Inner(script), []byte(FilterFunction)) {
					return true
				}
			}
			return false
		},
		Inject: func(doc *htmlscan.Document, _ int) (int, string) {
			if body, ok := doc.Find(htmlscan.Named("body")); ok && body.Closed {
				return body.InnerEnd, filterScript
			}
			return len(doc.Source), filterScript
		},
	}
}
