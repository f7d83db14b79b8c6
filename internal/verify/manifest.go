// Package verify decides whether original input data may be deleted after a
// run. It compares the copied Sources snapshot against the original
// byte-for-byte and treats known zip-extraction timestamp drift as advisory.
package verify

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ManifestEntry describes one file of a tree or archive.
type ManifestEntry struct {
	RelPath string
	Size    int64
	SHA256  string
}

// skipNoise filters platform metadata that zip extraction introduces, so
// folder and archive views of the same payload compare equal.
func skipNoise(rel string) bool {
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "__MACOSX/") || rel == "__MACOSX" {
		return true
	}
	base := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		base = rel[i+1:]
	}
	return base == ".DS_Store" || strings.HasPrefix(base, "._")
}

func hashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileSHA256 hashes one file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return hashReader(f)
}

// DirManifest walks root recursively and hashes every regular file,
// keyed by slash-separated relative path. Cancellable via ctx.
func DirManifest(ctx context.Context, root string) (map[string]ManifestEntry, error) {
	out := make(map[string]ManifestEntry)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		if d.IsDir() {
			if skipNoise(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if skipNoise(rel) {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}
		sum, herr := FileSHA256(path)
		if herr != nil {
			return herr
		}
		key := filepath.ToSlash(rel)
		out[key] = ManifestEntry{RelPath: key, Size: info.Size(), SHA256: sum}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ZipManifest hashes the contents of every payload entry in archive.
func ZipManifest(ctx context.Context, archive string) (map[string]ManifestEntry, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := make(map[string]ManifestEntry)
	for _, f := range r.File {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if f.FileInfo().IsDir() || skipNoise(f.Name) {
			continue
		}
		rc, oerr := f.Open()
		if oerr != nil {
			return nil, oerr
		}
		sum, herr := hashReader(rc)
		rc.Close()
		if herr != nil {
			return nil, herr
		}
		key := strings.TrimPrefix(filepath.ToSlash(f.Name), "./")
		out[key] = ManifestEntry{RelPath: key, Size: int64(f.UncompressedSize64), SHA256: sum}
	}
	return out, nil
}

// ManifestsEqual reports whether two manifests describe identical payloads.
func ManifestsEqual(a, b map[string]ManifestEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for k, ea := range a {
		eb, ok := b[k]
		if !ok || ea.Size != eb.Size || ea.SHA256 != eb.SHA256 {
			return false
		}
	}
	return true
}

// dirMtimes collects modification times (unix seconds) per relative path.
func dirMtimes(root string) map[string]int64 {
	out := make(map[string]int64)
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		if d.IsDir() {
			if skipNoise(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if skipNoise(rel) {
			return nil
		}
		if info, ierr := d.Info(); ierr == nil {
			out[filepath.ToSlash(rel)] = info.ModTime().Unix()
		}
		return nil
	})
	return out
}
