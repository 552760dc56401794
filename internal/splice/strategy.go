package splice

import (
	"regexp"

	"github.com/goliatone/go-sitesync/internal/htmlscan"
)

// Region is the span of a post container. Start and End bound the inner
// content that gets replaced; OuterStart is where the container begins.
type Region struct {
	OuterStart int
	Start      int
	End        int
	// Wrap asks the splicer to enclose the new list in a posts container,
	// for regions that have no container element of their own.
	Wrap bool
}

// Strategy locates the post container of a document.
type Strategy struct {
	Name   string
	Locate func(doc []byte) (Region, bool)
}

// ContainerNames are the class and id values recognised as post containers.
var ContainerNames = []string{"posts", "post-list", "articles", "blog-posts"}

// DefaultStrategies is the fallback chain used by a Splicer.
func DefaultStrategies() []Strategy {
	return []Strategy{
		ElementStrategy(ContainerNames...),
		PatternStrategy(defaultPatterns...),
		MiddleChunkStrategy(),
	}
}

// ElementStrategy matches the first element carrying one of names as a
// class, then as an id.
func ElementStrategy(names ...string) Strategy {
	return Strategy{
		Name: "element",
		Locate: func(doc []byte) (Region, bool) {
			index := htmlscan.Parse(doc)
			for _, byID := range []bool{false, true} {
				for _, name := range names {
					match := htmlscan.WithClass("", name)
					if byID {
						match = htmlscan.WithID("", name)
					}
					if el, ok := index.Find(match); ok && el.Closed {
						return Region{OuterStart: el.OuterStart, Start: el.InnerStart, End: el.InnerEnd}, true
					}
				}
			}
			return Region{}, false
		},
	}
}

var defaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(<div\s+class=["']posts?(?:-list)?["'][^>]*>)(.*?)(</div>)`),
	regexp.MustCompile(`(?is)(<div\s+class=["']articles?["'][^>]*>)(.*?)(</div>)`),
	regexp.MustCompile(`(?is)(<div\s+class=["']blog-posts?["'][^>]*>)(.*?)(</div>)`),
	regexp.MustCompile(`(?is)(<div\s+id=["']posts?(?:-list)?["'][^>]*>)(.*?)(</div>)`),
	regexp.MustCompile(`(?is)(<div\s+id=["']articles?["'][^>]*>)(.*?)(</div>)`),
	regexp.MustCompile(`(?is)(<main(?:\s[^>]*)?>)(.*?)(</main>)`),
	regexp.MustCompile(`(?is)(<article(?:\s[^>]*)?>)(.*?)(</article>)`),
}

// PatternStrategy applies patterns in order to the raw markup. Each pattern
// captures the opening tag, the content and the closing tag; the first match
// of the first matching pattern wins.
func PatternStrategy(patterns ...*regexp.Regexp) Strategy {
	return Strategy{
		Name: "pattern",
		Locate: func(doc []byte) (Region, bool) {
			for _, re := range patterns {
				if m := re.FindSubmatchIndex(doc); m != nil && len(m) >= 8 {
					return Region{OuterStart: m[2], Start: m[3], End: m[6]}, true
				}
			}
			return Region{}, false
		},
	}
}

var divChunk = regexp.MustCompile(`(?is)<div[^>]*>.*?</div>`)

// MiddleChunkStrategy splits the body into alternating text and div chunks
// and selects the middle one. It needs at least one div inside <body>.
func MiddleChunkStrategy() Strategy {
	return Strategy{
		Name: "middle-chunk",
		Locate: func(doc []byte) (Region, bool) {
			body, ok := htmlscan.Parse(doc).Find(htmlscan.Named("body"))
			if !ok {
				return Region{}, false
			}
			content := doc[body.InnerStart:body.InnerEnd]
			matches := divChunk.FindAllIndex(content, -1)
			if len(matches) == 0 {
				return Region{}, false
			}

			// chunks alternate text, div, text, ... and always number 2n+1.
			bounds := make([][2]int, 0, 2*len(matches)+1)
			prev := 0
			for _, m := range matches {
				bounds = append(bounds, [2]int{prev, m[0]}, [2]int{m[0], m[1]})
				prev = m[1]
			}
			bounds = append(bounds, [2]int{prev, len(content)})

			mid := bounds[len(bounds)/2]
			start, end := body.InnerStart+mid[0], body.InnerStart+mid[1]
			return Region{OuterStart: start, Start: start, End: end, Wrap: true}, true
		},
	}
}
