package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wetools/wet/internal/chat"
	"github.com/wetools/wet/internal/render"
	"github.com/wetools/wet/internal/source"
)

func previewCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "preview <folder|zip|transcript>",
		Short: "Render the chat as Markdown in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			snap, err := source.Resolve(args[0])
			if err != nil {
				return err
			}
			defer snap.Close()

			t, err := chat.ParseFile(snap.TranscriptPath)
			if err != nil {
				return fmt.Errorf("parse transcript: %w", err)
			}
			me, _ := t.InferMe(snap.Provenance.Label())

			md, err := render.Render(t, render.Options{
				Variant:    render.VariantMarkdown,
				Me:         me,
				SourceName: filepath.Base(snap.TranscriptPath),
			})
			if err != nil {
				return err
			}

			fd := int(os.Stdout.Fd())
			if plain || !term.IsTerminal(fd) {
				_, err = os.Stdout.Write(md)
				return err
			}

			width, _, err := term.GetSize(fd)
			if err != nil || width <= 0 {
				width = 100
			}
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return fmt.Errorf("terminal renderer: %w", err)
			}
			out, err := r.Render(string(md))
			if err != nil {
				return fmt.Errorf("render markdown: %w", err)
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print raw Markdown without styling")

	return cmd
}
