package theme

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"path"
	"path/filepath"
	"strings"

	gotheme "github.com/goliatone/go-theme"
	"github.com/spf13/afero"

	"github.com/goliatone/go-sitesync/internal/logging"
	"github.com/goliatone/go-sitesync/pkg/interfaces"
)

// ErrNotFound reports that neither the configured theme nor the default
// theme exists under the themes directory.
var ErrNotFound = errors.New("theme: no theme directory found")

const (
	DefaultName = "default"

	// Template keys looked up through the manifest. Without a mapping the
	// file is <key>.html in the theme directory.
	PostTemplate  = "post"
	IndexTemplate = "index"

	fallbackVersion = "0.0.0"
)

var manifestFiles = []string{"theme.json", "theme.yaml", "theme.yml"}

// Config locates user themes.
type Config struct {
	// Dir holds one directory per theme, e.g. source/_templates/themes.
	Dir     string
	Name    string
	Variant string
}

// Theme is a loaded theme directory. A theme may provide a post page, a
// home page or both.
type Theme struct {
	Name      string
	Variant   string
	Dir       string
	Selection *gotheme.Selection

	post        *htmltemplate.Template
	index       *htmltemplate.Template
	fingerprint string
}

// Loader resolves and parses theme directories.
type Loader struct {
	fs       afero.Fs
	cfg      Config
	logger   interfaces.Logger
	registry *gotheme.MemoryRegistry
}

// NewLoader builds a Loader reading through fs.
func NewLoader(fs afero.Fs, cfg Config, logger interfaces.Logger) *Loader {
	return &Loader{
		fs:       fs,
		cfg:      cfg,
		logger:   logging.OrNoOp(logger),
		registry: gotheme.NewRegistry(),
	}
}

// Candidates lists the theme names tried in order.
func (l *Loader) Candidates() []string {
	names := make([]string, 0, 2)
	if name := strings.TrimSpace(l.cfg.Name); name != "" {
		names = append(names, name)
	}
	if len(names) == 0 || !strings.EqualFold(names[0], DefaultName) {
		names = append(names, DefaultName)
	}
	return names
}

// Load returns the first candidate theme that exists. ErrNotFound means the
// caller should use its built-in pages.
func (l *Loader) Load(ctx context.Context) (*Theme, error) {
	root := strings.TrimSpace(l.cfg.Dir)
	if root == "" {
		return nil, ErrNotFound
	}
	for _, name := range l.Candidates() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := filepath.Join(root, name)
		if ok, _ := afero.DirExists(l.fs, dir); !ok {
			l.logger.Debug("theme.missing", "theme", name, "dir", dir)
			continue
		}
		if requested := strings.TrimSpace(l.cfg.Name); requested != "" && name != requested {
			l.logger.Warn("theme.fallback", "requested", l.cfg.Name, "theme", name)
		}
		return l.loadDir(name, dir)
	}
	return nil, ErrNotFound
}

func (l *Loader) loadDir(name, dir string) (*Theme, error) {
	th := &Theme{Name: name, Dir: dir}
	th.Selection = l.selection(name, dir)
	if th.Selection != nil {
		th.Variant = th.Selection.Variant
	}

	digest := sha256.New()
	var err error
	if th.post, err = l.parse(th, PostTemplate, digest); err != nil {
		return nil, err
	}
	if th.index, err = l.parse(th, IndexTemplate, digest); err != nil {
		return nil, err
	}
	if th.post == nil && th.index == nil {
		return nil, fmt.Errorf("theme: %s has neither %s.html nor %s.html: %w", dir, PostTemplate, IndexTemplate, ErrNotFound)
	}
	th.fingerprint = hex.EncodeToString(digest.Sum(nil))

	l.logger.Info("theme.loaded",
		"theme", th.Name,
		"variant", th.Variant,
		"post", th.post != nil,
		"index", th.index != nil,
	)
	return th, nil
}

// selection registers the theme manifest and selects it. Directories
// without a manifest get a bare one named after the directory.
func (l *Loader) selection(name, dir string) *gotheme.Selection {
	manifest := l.manifest(name, dir)
	if err := l.registry.Register(manifest); err != nil {
		l.logger.Warn("theme.manifest.register_failed", "theme", name, "error", err)
		return nil
	}
	selector := gotheme.Selector{
		Registry:       l.registry,
		DefaultTheme:   manifest.Name,
		DefaultVariant: strings.TrimSpace(l.cfg.Variant),
	}
	selection, err := selector.Select(manifest.Name, strings.TrimSpace(l.cfg.Variant))
	if err != nil {
		l.logger.Warn("theme.select_failed", "theme", name, "error", err)
		return nil
	}
	return selection
}

func (l *Loader) manifest(name, dir string) *gotheme.Manifest {
	bare := &gotheme.Manifest{Name: name, Version: fallbackVersion}
	if !l.hasManifest(dir) {
		return bare
	}
	loaded, err := gotheme.LoadDir(afero.NewIOFS(afero.NewBasePathFs(l.fs, dir)), ".")
	if err != nil || loaded == nil {
		l.logger.Warn("theme.manifest.invalid", "theme", name, "dir", dir, "error", err)
		return bare
	}
	normalized := *loaded
	normalized.Name = name
	if strings.TrimSpace(normalized.Version) == "" {
		normalized.Version = fallbackVersion
	}
	return &normalized
}

func (l *Loader) hasManifest(dir string) bool {
	for _, file := range manifestFiles {
		if ok, _ := afero.Exists(l.fs, filepath.Join(dir, file)); ok {
			return true
		}
	}
	return false
}

// parse loads the template file for key. A missing file is not an error.
func (l *Loader) parse(th *Theme, key string, digest io.Writer) (*htmltemplate.Template, error) {
	file := th.TemplateFile(key)
	full := filepath.Join(th.Dir, filepath.FromSlash(file))
	data, err := afero.ReadFile(l.fs, full)
	if err != nil {
		if ok, _ := afero.Exists(l.fs, full); !ok {
			return nil, nil
		}
		return nil, fmt.Errorf("theme: read %s: %w", full, err)
	}
	digest.Write([]byte(file))
	digest.Write(data)

	tmpl, err := htmltemplate.New(path.Base(file)).Funcs(th.funcs()).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("theme: parse %s: %w", full, err)
	}
	return tmpl, nil
}

// TemplateFile maps a template key to a file relative to the theme directory.
func (t *Theme) TemplateFile(key string) string {
	fallback := key + ".html"
	if t == nil || t.Selection == nil {
		return fallback
	}
	if file := strings.TrimSpace(t.Selection.Template(key, fallback)); file != "" {
		return file
	}
	return fallback
}

// Tokens returns the design tokens of the selected manifest.
func (t *Theme) Tokens() map[string]string {
	if t == nil || t.Selection == nil {
		return map[string]string{}
	}
	return t.Selection.Tokens()
}

// Asset resolves a manifest asset key to its URL, or "" when unknown.
func (t *Theme) Asset(key string) string {
	if t == nil || t.Selection == nil {
		return ""
	}
	url, _ := t.Selection.Asset(key)
	return url
}

// HasPost reports whether the theme renders post pages.
func (t *Theme) HasPost() bool { return t != nil && t.post != nil }

// HasIndex reports whether the theme renders the home page.
func (t *Theme) HasIndex() bool { return t != nil && t.index != nil }

// Fingerprint changes whenever a template file of the theme changes.
func (t *Theme) Fingerprint() string {
	if t == nil {
		return ""
	}
	return t.fingerprint
}

func (t *Theme) funcs() htmltemplate.FuncMap {
	return htmltemplate.FuncMap{
		"asset": t.Asset,
		"join":  strings.Join,
	}
}
