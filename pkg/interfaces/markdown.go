package interfaces

// MarkdownParser converts raw Markdown bytes into HTML. The rest of the
// pipeline treats it as a black box.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown rendering. Field names stay readable for
// configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
	// HighlightStyle enables chroma code highlighting when set to a style
	// name such as "monokai" or "github".
	HighlightStyle string
}

// Metadata is the closed record extracted from a post's front matter. Absent
// keys keep their zero value; unknown keys land in Extra.
type Metadata struct {
	// Present reports whether a delimited front-matter block was found, even
	// when its YAML failed to parse.
	Present    bool
	Title      string
	Date       any
	Tags       []string
	Categories []string
	Author     string
	Draft      bool
	Extra      map[string]any
}
