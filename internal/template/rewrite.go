package template

import (
	"bytes"
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ParentPrefix is prepended to reused resource URLs because post pages live
// one directory below the reference document.
const ParentPrefix = "../"

var resourceAttr = regexp.MustCompile(`(?i)(\s(?:href|src)\s*=\s*)("[^"]*"|'[^']*'|[^\s"'>]+)`)

var resourceDirs = map[string]bool{"images": true, "img": true, "assets": true}

// RewriteResourceURLs prefixes relative stylesheet, script and image URLs in
// fragment with prefix. Only attribute values inside tags change; all other
// bytes are copied as written. Already prefixed URLs are left alone.
func RewriteResourceURLs(fragment, prefix string) string {
	if fragment == "" || prefix == "" {
		return fragment
	}

	var out bytes.Buffer
	out.Grow(len(fragment) + 64)
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			out.Write(z.Raw())
			return out.String()
		}
		raw := z.Raw()
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}
		out.Write(resourceAttr.ReplaceAllFunc(raw, func(m []byte) []byte {
			parts := resourceAttr.FindSubmatch(m)
			lead, value := parts[1], string(parts[2])
			quote := ""
			if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') {
				quote = value[:1]
				value = value[1 : len(value)-1]
			}
			if !isReusedResource(value) {
				return m
			}
			rewritten := prefix + strings.TrimPrefix(strings.TrimSpace(value), "./")
			return append(append([]byte(nil), lead...), []byte(quote+rewritten+quote)...)
		}))
	}
}

func isReusedResource(value string) bool {
	v := strings.TrimSpace(value)
	switch {
	case v == "",
		strings.HasPrefix(v, "/"),
		strings.HasPrefix(v, "#"),
		strings.HasPrefix(v, "../"),
		strings.Contains(v, ":"):
		return false
	}
	v = strings.TrimPrefix(v, "./")
	if i := strings.IndexAny(v, "?#"); i >= 0 {
		v = v[:i]
	}
	switch strings.ToLower(path.Ext(v)) {
	case ".css", ".js":
		return true
	}
	first, _, found := strings.Cut(v, "/")
	return found && resourceDirs[strings.ToLower(first)]
}
