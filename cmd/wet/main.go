package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wetools/wet/internal/config"
	"github.com/wetools/wet/internal/linkify"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "wet",
		Short:   "WhatsApp export tools - turn chat exports into HTML and Markdown",
		Version: version,
	}

	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(previewCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the user config and applies its global knobs.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	linkify.AddTLDs(cfg.ExtraTLDs)
	return cfg, nil
}
