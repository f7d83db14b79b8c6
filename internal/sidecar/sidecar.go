// Package sidecar copies the attachments referenced by a transcript into a
// categorized folder tree, date-prefixed so lexical order approximates
// chronological order. The sidecar is independent of the rendered
// documents; nothing in them points at it.
package sidecar

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wetools/wet/internal/chat"
)

// Category folder names inside the sidecar root.
const (
	CategoryImages    = "images"
	CategoryVideos    = "videos"
	CategoryAudios    = "audios"
	CategoryDocuments = "documents"
)

var categoryByExt = map[string]string{
	".jpg": CategoryImages, ".jpeg": CategoryImages, ".png": CategoryImages,
	".gif": CategoryImages, ".webp": CategoryImages, ".heic": CategoryImages,
	".mp4": CategoryVideos, ".3gp": CategoryVideos, ".mov": CategoryVideos,
	".avi": CategoryVideos, ".mkv": CategoryVideos,
	".mp3": CategoryAudios, ".ogg": CategoryAudios, ".opus": CategoryAudios,
	".m4a": CategoryAudios, ".aac": CategoryAudios, ".wav": CategoryAudios,
}

// Categorize maps an attachment filename to its sidecar folder.
func Categorize(name string) string {
	if c, ok := categoryByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return c
	}
	return CategoryDocuments
}

// CopyError records one attachment that failed to copy. The run keeps going.
type CopyError struct {
	Attachment string
	Err        error
}

func (e CopyError) Error() string {
	return fmt.Sprintf("copy %s: %v", e.Attachment, e.Err)
}

// Stats summarizes one sidecar export.
type Stats struct {
	Copied  int
	Missing int
	Failed  []CopyError
}

func (s Stats) String() string {
	return fmt.Sprintf("copied=%d missing=%d failed=%d", s.Copied, s.Missing, len(s.Failed))
}

// Export copies every attachment referenced by t from workDir into
// destRoot/{images,videos,audios,documents}. Destination names are
// "YYYY-MM-DD-<original>"; colliding names get a deterministic numeric
// suffix, never a timestamp. Individual failures are collected, not fatal.
func Export(t *chat.Transcript, workDir, destRoot string) (Stats, error) {
	var stats Stats

	taken := make(map[string]bool)
	for _, m := range t.Messages {
		if m.Kind != chat.KindAttachment || m.Attachment == "" {
			continue
		}
		src := filepath.Join(workDir, m.Attachment)
		if info, err := os.Stat(src); err != nil || info.IsDir() {
			stats.Missing++
			continue
		}

		category := Categorize(m.Attachment)
		name := m.Timestamp.Format("2006-01-02") + "-" + filepath.Base(m.Attachment)
		dest := filepath.Join(destRoot, category, uniqueName(taken, category, name))

		if err := copyFile(src, dest); err != nil {
			stats.Failed = append(stats.Failed, CopyError{Attachment: m.Attachment, Err: err})
			continue
		}
		stats.Copied++
	}
	return stats, nil
}

// uniqueName disambiguates duplicate destination names with "-2", "-3", ...
// inserted before the extension, and marks the result as taken.
func uniqueName(taken map[string]bool, category, name string) string {
	key := category + "/" + name
	if !taken[key] {
		taken[key] = true
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		key = category + "/" + candidate
		if !taken[key] {
			taken[key] = true
			return candidate
		}
	}
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if info, serr := os.Stat(src); serr == nil {
		os.Chtimes(dest, info.ModTime(), info.ModTime())
	}
	return nil
}
