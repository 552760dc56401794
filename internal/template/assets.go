package template

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// copyAssets mirrors the asset folders next to the reference document into
// the resources dir. A destination that already exists is left untouched so
// the first copy wins across runs.
func (e *Extractor) copyAssets(ctx context.Context, root string) ([]string, error) {
	if e.cfg.ResourcesDir == "" {
		return nil, nil
	}

	var copied []string
	for _, name := range e.cfg.AssetDirs {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		src := filepath.Join(root, name)
		if ok, _ := afero.DirExists(e.fs, src); !ok {
			continue
		}
		dst := filepath.Join(e.cfg.ResourcesDir, name)
		if exists, _ := afero.Exists(e.fs, dst); exists {
			e.logger.Debug("template.assets.skip", "dir", name, "destination", dst)
			continue
		}
		if err := copyTree(e.fs, src, dst); err != nil {
			return copied, fmt.Errorf("template: copy %s: %w", name, err)
		}
		copied = append(copied, name)
	}
	return copied, nil
}

func copyTree(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fs.MkdirAll(target, 0o755)
		}
		data, err := afero.ReadFile(fs, p)
		if err != nil {
			return err
		}
		return afero.WriteFile(fs, target, data, info.Mode().Perm()|0o200)
	})
}
