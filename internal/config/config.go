package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	OutputDir        string   `toml:"output_dir"`
	PreviewCachePath string   `toml:"preview_cache_path"`
	PreviewTimeout   duration `toml:"preview_timeout"`
	MaxPreviewImage  int64    `toml:"max_preview_image_bytes"`
	InlineImageBytes int64    `toml:"inline_image_bytes"`
	ExtraTLDs        []string `toml:"extra_tlds"`
}

// duration lets the TOML file say "20s" instead of nanoseconds.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func (c *Config) PreviewTimeoutDuration() time.Duration {
	return time.Duration(c.PreviewTimeout)
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OutputDir:        ".",
		PreviewCachePath: filepath.Join(home, ".config", "wet", "previews.db"),
		PreviewTimeout:   duration(15 * time.Second),
		MaxPreviewImage:  2_500_000,
		InlineImageBytes: 256 * 1024,
	}

	cfgPath := filepath.Join(home, ".config", "wet", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.OutputDir = expandHome(cfg.OutputDir, home)
	cfg.PreviewCachePath = expandHome(cfg.PreviewCachePath, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
