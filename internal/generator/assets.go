package generator

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const assetsDirName = "assets"

type assetCopySummary struct {
	Built   int
	Skipped int
}

// copyAssets mirrors the configured assets directory into <output>/assets.
// Sources always overwrite their destination; incremental builds skip files
// whose checksum is unchanged since the last build.
func (s *service) copyAssets(ctx context.Context, writer artifactWriter, manifest *buildManifest, baseDir string, now time.Time) (assetCopySummary, error) {
	var summary assetCopySummary
	root := strings.TrimSpace(s.cfg.AssetsDir)
	if root == "" {
		return summary, nil
	}
	if ok, _ := afero.DirExists(s.deps.Fs, root); !ok {
		s.logger.Debug("generator.assets.missing", "dir", root)
		return summary, nil
	}

	dirCache := map[string]struct{}{}
	err := afero.Walk(s.deps.Fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		output := joinOutputPath(baseDir, path.Join(assetsDirName, filepath.ToSlash(rel)))

		data, err := afero.ReadFile(s.deps.Fs, p)
		if err != nil {
			return err
		}
		checksum := computeHash(data)
		if s.cfg.Incremental && manifest.shouldSkipAsset(p, checksum, output) {
			if exists, _ := afero.Exists(s.deps.Fs, output); exists {
				summary.Skipped++
				return nil
			}
		}

		if err := ensureDir(ctx, writer, dirCache, path.Dir(output)); err != nil {
			return err
		}
		req := writeFileRequest{
			Path:        output,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Category:    categoryAsset,
			ContentType: detectAssetContentType(p),
			Checksum:    checksum,
			Metadata:    map[string]string{"source": p},
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return err
		}
		manifest.setAsset(manifestAsset{
			Source:   p,
			Output:   output,
			Checksum: checksum,
			Size:     int64(len(data)),
			CopiedAt: now,
		})
		summary.Built++
		return nil
	})
	return summary, err
}

func detectAssetContentType(asset string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(asset), "."))
	switch ext {
	case "css":
		return "text/css"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}
