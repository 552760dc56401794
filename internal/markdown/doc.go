// Package markdown turns raw post sources into metadata and HTML. It owns the
// front-matter parser, the leaked-metadata scrubbers that run before and
// after rendering, the goldmark renderer and the plain-text preview builder.
package markdown
