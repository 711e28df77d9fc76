package assets

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// CopyResult reports what Copy did.
type CopyResult int

const (
	Copied CopyResult = iota
	AlreadyExists
)

// Copier materializes blob-ID-named copies of located source files.
type Copier struct {
	logger *slog.Logger
}

func NewCopier(logger *slog.Logger) *Copier {
	return &Copier{logger: logger.With("component", "copier")}
}

// Copy writes {destDir}/{blobID}{ext}. A pre-existing target short-circuits
// to AlreadyExists without re-reading the source, which is what makes
// re-runs cheap. Bytes are copied verbatim; an extension mismatch between
// source and target is only warned about, never corrected.
func (c *Copier) Copy(sourcePath, destDir, blobID, ext string) (CopyResult, string, error) {
	target := filepath.Join(destDir, blobID+ext)

	if _, err := os.Stat(target); err == nil {
		return AlreadyExists, target, nil
	} else if !os.IsNotExist(err) {
		return 0, "", fmt.Errorf("stat target: %w", err)
	}

	srcExt := strings.ToLower(filepath.Ext(sourcePath))
	if srcExt != strings.ToLower(ext) {
		c.logger.Warn("extension mismatch",
			"source", sourcePath,
			"source_ext", srcExt,
			"target_ext", ext,
		)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, "", fmt.Errorf("create dest dir: %w", err)
	}

	if err := copyFile(sourcePath, target); err != nil {
		return 0, "", err
	}

	return Copied, target, nil
}

// copyFile writes through a temp file in the target directory and renames,
// so a killed run never leaves a half-written blob-ID file behind.
func copyFile(sourcePath, target string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("copy bytes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
