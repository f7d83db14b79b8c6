package sidecar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetools/wet/internal/chat"
)

func TestCategorize(t *testing.T) {
	assert.Equal(t, CategoryImages, Categorize("IMG-0001.JPG"))
	assert.Equal(t, CategoryVideos, Categorize("VID-0001.mp4"))
	assert.Equal(t, CategoryAudios, Categorize("PTT-0001.opus"))
	assert.Equal(t, CategoryDocuments, Categorize("Rechnung.pdf"))
	assert.Equal(t, CategoryDocuments, Categorize("no-extension"))
}

func attachmentMessage(day int, name string) chat.Message {
	return chat.Message{
		Timestamp:  time.Date(2019, 4, day, 12, 0, 0, 0, time.Local),
		Sender:     "Carolin",
		Kind:       chat.KindAttachment,
		Attachment: name,
	}
}

func TestExportCopiesAndCategorizes(t *testing.T) {
	work, dest := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, "IMG-0001.jpg"), []byte("jpg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(work, "PTT-0001.opus"), []byte("opus"), 0o644))

	tr := &chat.Transcript{Messages: []chat.Message{
		attachmentMessage(13, "IMG-0001.jpg"),
		attachmentMessage(14, "PTT-0001.opus"),
		attachmentMessage(14, "VID-lost.mp4"), // referenced but absent
		{Timestamp: time.Now(), Sender: "Stefan", Kind: chat.KindText, Body: "kein Anhang"},
	}}

	stats, err := Export(tr, work, dest)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Copied)
	assert.Equal(t, 1, stats.Missing)
	assert.Empty(t, stats.Failed)
	assert.Equal(t, "copied=2 missing=1 failed=0", stats.String())

	assert.FileExists(t, filepath.Join(dest, CategoryImages, "2019-04-13-IMG-0001.jpg"))
	assert.FileExists(t, filepath.Join(dest, CategoryAudios, "2019-04-14-PTT-0001.opus"))
}

func TestExportDeduplicatesNames(t *testing.T) {
	work, dest := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, "IMG-0001.jpg"), []byte("jpg"), 0o644))

	// same file sent three times on the same day
	tr := &chat.Transcript{Messages: []chat.Message{
		attachmentMessage(13, "IMG-0001.jpg"),
		attachmentMessage(13, "IMG-0001.jpg"),
		attachmentMessage(13, "IMG-0001.jpg"),
	}}

	stats, err := Export(tr, work, dest)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Copied)

	assert.FileExists(t, filepath.Join(dest, CategoryImages, "2019-04-13-IMG-0001.jpg"))
	assert.FileExists(t, filepath.Join(dest, CategoryImages, "2019-04-13-IMG-0001-2.jpg"))
	assert.FileExists(t, filepath.Join(dest, CategoryImages, "2019-04-13-IMG-0001-3.jpg"))
}

func TestExportPreservesModTime(t *testing.T) {
	work, dest := t.TempDir(), t.TempDir()
	src := filepath.Join(work, "IMG-0001.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpg"), 0o644))
	stamp := time.Date(2019, 4, 13, 18, 59, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, stamp, stamp))

	tr := &chat.Transcript{Messages: []chat.Message{attachmentMessage(13, "IMG-0001.jpg")}}
	_, err := Export(tr, work, dest)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dest, CategoryImages, "2019-04-13-IMG-0001.jpg"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(stamp))
}
