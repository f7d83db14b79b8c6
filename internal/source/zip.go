package source

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// skipEntry filters archive-extraction metadata noise so a zip input
// resolves to the same payload as the folder it was made from.
func skipEntry(name string) bool {
	clean := strings.TrimPrefix(name, "./")
	if strings.HasPrefix(clean, "__MACOSX/") || clean == "__MACOSX" {
		return true
	}
	base := filepath.Base(clean)
	return base == ".DS_Store" || strings.HasPrefix(base, "._")
}

// extractZip unpacks archive into dest, preserving entry modification
// times and rejecting entries that would escape dest.
func extractZip(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || skipEntry(f.Name) {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		if !withinDir(dest, target) {
			return fmt.Errorf("entry escapes workspace: %s", f.Name)
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// keep archive mtimes so the verifier can reason about drift
	mtime := f.Modified
	if !mtime.IsZero() {
		os.Chtimes(target, mtime, mtime)
	}
	return nil
}
