package posts

import (
	"bufio"
	"bytes"
	"path"
	"regexp"
	"strings"

	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

// TitleInput carries what the title resolvers may look at.
type TitleInput struct {
	Metadata interfaces.Metadata
	Body     []byte
	Filename string
}

// TitleResolver is one named step of the title fallback chain.
type TitleResolver struct {
	Name    string
	Resolve func(TitleInput) (string, bool)
}

// DefaultTitleResolvers is the resolution order: front matter, then the
// first level-1 heading outside fenced code, then the file name.
var DefaultTitleResolvers = []TitleResolver{
	{Name: "front-matter", Resolve: titleFromFrontMatter},
	{Name: "first-heading", Resolve: titleFromFirstHeading},
	{Name: "filename", Resolve: titleFromFilename},
}

// ResolveTitle runs resolvers in order and returns the first non-empty title
// with the name of the resolver that produced it.
func ResolveTitle(in TitleInput, resolvers []TitleResolver) (string, string) {
	for _, r := range resolvers {
		if title, ok := r.Resolve(in); ok {
			return title, r.Name
		}
	}
	return "untitled", "none"
}

func titleFromFrontMatter(in TitleInput) (string, bool) {
	title := strings.TrimSpace(in.Metadata.Title)
	return title, title != ""
}

var atxH1 = regexp.MustCompile(`^ {0,3}#[ \t]+(.+?)(?:[ \t]+#+)?[ \t]*$`)

func titleFromFirstHeading(in TitleInput) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(in.Body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fence := ""
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimLeft(line, " ")
		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(trimmed, fence):
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}
		if m := atxH1.FindStringSubmatch(line); m != nil {
			if title := strings.TrimSpace(m[1]); title != "" {
				return title, true
			}
		}
	}
	return "", false
}

func fenceMarker(line string) string {
	for _, marker := range []string{"```", "~~~"} {
		if strings.HasPrefix(line, marker) {
			return marker
		}
	}
	return ""
}

func titleFromFilename(in TitleInput) (string, bool) {
	base := path.Base(strings.TrimSpace(in.Filename))
	name := strings.TrimSuffix(base, path.Ext(base))
	name = strings.TrimSpace(name)
	return name, name != "" && name != "."
}
