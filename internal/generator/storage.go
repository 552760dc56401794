package generator

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

type writeCategory string

const (
	categoryPage     writeCategory = "page"
	categoryList     writeCategory = "list"
	categoryIndex    writeCategory = "index"
	categoryFeed     writeCategory = "feed"
	categoryAsset    writeCategory = "asset"
	categorySitemap  writeCategory = "sitemap"
	categoryRobots   writeCategory = "robots"
	categoryManifest writeCategory = "manifest"
)

// writeFileRequest describes a file write operation routed through the artifact writer.
type writeFileRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Category    writeCategory
	ContentType string
	Checksum    string
	Metadata    map[string]string
}

// artifactWriter abstracts the filesystem behind generator outputs.
type artifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req writeFileRequest) error
	Remove(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
}

func newArtifactWriter(fs afero.Fs, dryRun bool) artifactWriter {
	if fs == nil || dryRun {
		return noopWriter{}
	}
	return &fsWriter{fs: fs}
}

type fsWriter struct {
	fs afero.Fs
}

func (w *fsWriter) EnsureDir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" || path == "." {
		return nil
	}
	return w.fs.MkdirAll(path, 0o755)
}

func (w *fsWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}
	return afero.WriteReader(w.fs, req.Path, req.Content)
}

func (w *fsWriter) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := w.fs.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (w *fsWriter) RemoveAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" || path == "." || path == "/" {
		return errors.New("generator: refusing to remove " + path)
	}
	return w.fs.RemoveAll(path)
}

type noopWriter struct{}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(context.Context, writeFileRequest) error { return nil }

func (noopWriter) Remove(context.Context, string) error { return nil }

func (noopWriter) RemoveAll(context.Context, string) error { return nil }
