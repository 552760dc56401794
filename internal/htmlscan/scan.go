package htmlscan

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Element is one start tag and the span it owns.
//
//	OuterStart      InnerStart           InnerEnd   OuterEnd
//	|<div class=a>  |...children...      |</div>    |
type Element struct {
	Name       string
	Attrs      []html.Attribute
	OuterStart int
	InnerStart int
	InnerEnd   int
	OuterEnd   int
	// Parent is the index of the enclosing element, -1 at the top level.
	Parent int
	// Closed reports whether a matching end tag was seen.
	Closed bool
}

// Attr returns the value of key.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// ID returns the id attribute.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return strings.TrimSpace(v)
}

// HasClass reports whether class is one of the element's classes.
func (e *Element) HasClass(class string) bool {
	v, ok := e.Attr("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Document is the element index of one HTML source.
type Document struct {
	Source   []byte
	Elements []Element
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Parse indexes every element of src. Parsing never fails; malformed markup
// yields a best-effort index.
func Parse(src []byte) *Document {
	doc := &Document{Source: src}
	var stack []int
	pos := 0

	z := html.NewTokenizer(bytes.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		start := pos
		pos += len(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			el := Element{
				Name:       string(name),
				OuterStart: start,
				InnerStart: pos,
				Parent:     -1,
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				el.Attrs = append(el.Attrs, html.Attribute{Key: string(key), Val: string(val)})
			}
			if len(stack) > 0 {
				el.Parent = stack[len(stack)-1]
			}
			doc.Elements = append(doc.Elements, el)
			idx := len(doc.Elements) - 1
			if tt == html.SelfClosingTagToken || voidElements[el.Name] {
				doc.Elements[idx].InnerEnd = pos
				doc.Elements[idx].OuterEnd = pos
				doc.Elements[idx].Closed = true
				continue
			}
			stack = append(stack, idx)
		case html.EndTagToken:
			name, _ := z.TagName()
			match := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if doc.Elements[stack[i]].Name == string(name) {
					match = i
					break
				}
			}
			if match < 0 {
				continue
			}
			for i := len(stack) - 1; i > match; i-- {
				implicit := &doc.Elements[stack[i]]
				implicit.InnerEnd = start
				implicit.OuterEnd = start
			}
			el := &doc.Elements[stack[match]]
			el.InnerEnd = start
			el.OuterEnd = pos
			el.Closed = true
			stack = stack[:match]
		}
	}
	for _, idx := range stack {
		doc.Elements[idx].InnerEnd = len(src)
		doc.Elements[idx].OuterEnd = len(src)
	}
	return doc
}

// Find returns the first element, in document order, accepted by match.
func (d *Document) Find(match func(*Element) bool) (*Element, bool) {
	for i := range d.Elements {
		if match(&d.Elements[i]) {
			return &d.Elements[i], true
		}
	}
	return nil, false
}

// FindAll returns every element accepted by match.
func (d *Document) FindAll(match func(*Element) bool) []*Element {
	var out []*Element
	for i := range d.Elements {
		if match(&d.Elements[i]) {
			out = append(out, &d.Elements[i])
		}
	}
	return out
}

// Count returns how many elements match.
func (d *Document) Count(match func(*Element) bool) int {
	return len(d.FindAll(match))
}

// Parent returns the enclosing element of el.
func (d *Document) Parent(el *Element) (*Element, bool) {
	if el == nil || el.Parent < 0 || el.Parent >= len(d.Elements) {
		return nil, false
	}
	return &d.Elements[el.Parent], true
}

// Inner returns the bytes between el's start and end tags.
func (d *Document) Inner(el *Element) []byte {
	return d.Source[el.InnerStart:el.InnerEnd]
}

// Outer returns the bytes of el including its tags.
func (d *Document) Outer(el *Element) []byte {
	return d.Source[el.OuterStart:el.OuterEnd]
}

// Contains reports whether inner lies within outer.
func Contains(outer, inner *Element) bool {
	return inner.OuterStart >= outer.InnerStart && inner.OuterEnd <= outer.InnerEnd
}

// Named matches elements by tag name.
func Named(name string) func(*Element) bool {
	return func(e *Element) bool { return e.Name == name }
}

// WithClass matches elements carrying class, optionally restricted to a tag.
func WithClass(tag, class string) func(*Element) bool {
	return func(e *Element) bool {
		return (tag == "" || e.Name == tag) && e.HasClass(class)
	}
}

// WithID matches elements by id, optionally restricted to a tag.
func WithID(tag, id string) func(*Element) bool {
	return func(e *Element) bool {
		return (tag == "" || e.Name == tag) && e.ID() == id
	}
}

// Text returns the text content of fragment with tags removed and script and
// style bodies skipped. Entities are decoded and whitespace is collapsed.
func Text(fragment []byte) string {
	var b strings.Builder
	skip := 0
	z := html.NewTokenizer(bytes.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawText(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawText(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

// StripRawText removes script and style elements from fragment and keeps
// every other byte as written.
func StripRawText(fragment []byte) []byte {
	var out bytes.Buffer
	skip := 0
	z := html.NewTokenizer(bytes.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				out.Write(z.Raw())
			}
			return out.Bytes()
		}
		raw := append([]byte(nil), z.Raw()...)
		switch tt {
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawText(string(name)) {
				skip++
				continue
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawText(string(name)) && skip > 0 {
				skip--
				continue
			}
		}
		if skip == 0 {
			out.Write(raw)
		}
	}
}

func isRawText(name string) bool {
	return name == "script" || name == "style"
}
