package build

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mtb-build/mtb/internal/errors"
)

// assetExtensions lists the file types copied from the assets directory.
var assetExtensions = map[string]bool{
	// stylesheets
	"css": true, "scss": true, "sass": true, "less": true,
	// scripts
	"js": true, "mjs": true, "cjs": true,
	// images
	"png": true, "jpg": true, "jpeg": true, "gif": true, "svg": true,
	"webp": true, "ico": true, "avif": true,
	// fonts
	"woff": true, "woff2": true, "ttf": true, "otf": true, "eot": true,
	// other
	"json": true, "xml": true, "txt": true, "pdf": true, "map": true,
}

// IsAssetFile reports whether path has a supported asset extension. The
// comparison ignores case.
func IsAssetFile(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return assetExtensions[ext]
}

// CopyAssets copies every supported asset below srcDir into destDir,
// preserving relative paths. It returns the number of files copied.
func CopyAssets(srcDir, destDir string) (int, error) {
	copied := 0

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &errors.DirectoryReadError{Path: path, Err: err}
		}
		if d.IsDir() || !IsAssetFile(path) {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(destDir, rel)

		if err := copyFile(path, dest); err != nil {
			return &errors.FileWriteError{Path: dest, Err: err}
		}
		copied++

		return nil
	})

	return copied, err
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
