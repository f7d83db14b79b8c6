package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, filepath.Join(home, ".config", "wet", "previews.db"), cfg.PreviewCachePath)
	assert.Equal(t, 15*time.Second, cfg.PreviewTimeoutDuration())
	assert.Equal(t, int64(2_500_000), cfg.MaxPreviewImage)
	assert.Equal(t, int64(256*1024), cfg.InlineImageBytes)
	assert.Empty(t, cfg.ExtraTLDs)
}

func TestLoadConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "wet")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
output_dir = "~/Chats"
preview_timeout = "3s"
inline_image_bytes = 1024
extra_tlds = ["dev", "app"]
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "Chats"), cfg.OutputDir)
	assert.Equal(t, 3*time.Second, cfg.PreviewTimeoutDuration())
	assert.Equal(t, int64(1024), cfg.InlineImageBytes)
	assert.Equal(t, []string{"dev", "app"}, cfg.ExtraTLDs)
	// untouched keys keep their defaults
	assert.Equal(t, int64(2_500_000), cfg.MaxPreviewImage)
}
