package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

const delimiter = "---"

var utf8BOM = []byte("\xef\xbb\xbf")

// yamlFormat recognises "---" blocks and strips non-printable characters
// before the YAML decoder sees them.
var yamlFormat = frontmatter.NewFormat(delimiter, delimiter, unmarshalPrintable)

// ParseFrontMatter splits source into its metadata record and Markdown body.
// It never fails: a malformed block yields empty metadata and the body after
// the closing delimiter, and a source without a block is scrubbed of leaked
// key: value lines instead.
func ParseFrontMatter(source []byte) (interfaces.Metadata, []byte) {
	source = bytes.TrimPrefix(source, utf8BOM)

	_, rest, ok := splitDelimitedBlock(source)
	if !ok {
		return interfaces.Metadata{Extra: map[string]any{}}, StripLeakedMetadata(source)
	}

	var raw map[string]any
	body, err := frontmatter.MustParse(bytes.NewReader(source), &raw, yamlFormat)
	if err != nil {
		return interfaces.Metadata{Present: true, Extra: map[string]any{}}, rest
	}

	meta := metadataFromMap(raw)
	meta.Present = true
	return meta, body
}

// splitDelimitedBlock returns the text between a leading "---" line and the
// next "---" line, plus everything after the closing line.
func splitDelimitedBlock(source []byte) (block, body []byte, ok bool) {
	first, rest, found := bytes.Cut(source, []byte("\n"))
	if !found || !isDelimiterLine(first) {
		return nil, nil, false
	}

	offset := 0
	for offset <= len(rest) {
		line, _, _ := bytes.Cut(rest[offset:], []byte("\n"))
		next := offset + len(line) + 1
		if isDelimiterLine(line) {
			block = rest[:offset]
			if next > len(rest) {
				return block, nil, true
			}
			return block, rest[next:], true
		}
		if next > len(rest) {
			break
		}
		offset = next
	}
	return nil, nil, false
}

func isDelimiterLine(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == delimiter
}

func unmarshalPrintable(data []byte, v any) error {
	cleaned := bytes.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, data)
	if err := yaml.Unmarshal(cleaned, v); err != nil {
		return fmt.Errorf("front matter yaml: %w", err)
	}
	return nil
}

var knownKeys = map[string]struct{}{
	"title": {}, "date": {}, "tags": {}, "tag": {}, "categories": {}, "category": {}, "author": {}, "draft": {},
}

func metadataFromMap(raw map[string]any) interfaces.Metadata {
	meta := interfaces.Metadata{Extra: map[string]any{}}
	for key, value := range raw {
		switch strings.ToLower(key) {
		case "title":
			meta.Title = scalarString(value)
		case "date":
			meta.Date = value
		case "tags", "tag":
			meta.Tags = append(meta.Tags, stringList(value)...)
		case "categories", "category":
			meta.Categories = append(meta.Categories, stringList(value)...)
		case "author":
			meta.Author = scalarString(value)
		case "draft":
			meta.Draft = truthy(value)
		}
		if _, known := knownKeys[strings.ToLower(key)]; !known {
			meta.Extra[key] = value
		}
	}
	return meta
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// stringList coerces a YAML value into an ordered list. Scalars such as
// "go, web" are split on commas.
func stringList(value any) []string {
	var out []string
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		for _, item := range v {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range v {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		for _, part := range strings.Split(scalarString(v), ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "on", "1":
			return true
		}
	case int:
		return v != 0
	}
	return false
}
