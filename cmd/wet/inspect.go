package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wetools/wet/internal/chat"
	"github.com/wetools/wet/internal/source"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <folder|zip|transcript>",
		Short: "Show what an input resolves to without writing anything",
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

			fmt.Println("=== Input ===")
			fmt.Printf("  Kind:       %s\n", snap.Provenance.InputKind)
			fmt.Printf("  Transcript: %s\n", snap.TranscriptPath)
			fmt.Printf("  Workdir:    %s\n", snap.WorkDir)
			if snap.Provenance.PartnerLabel != "" {
				fmt.Printf("  Partner:    %s\n", snap.Provenance.PartnerLabel)
			}
			if snap.Replay {
				fmt.Printf("  Replaying:  %s\n", snap.SourcesRoot)
			}

			t, err := chat.ParseFile(snap.TranscriptPath)
			if err != nil {
				return fmt.Errorf("parse transcript: %w", err)
			}

			var texts, attachments, system int
			for _, m := range t.Messages {
				switch m.Kind {
				case chat.KindAttachment:
					attachments++
				case chat.KindSystem:
					system++
				default:
					texts++
				}
			}

			fmt.Println("\n=== Transcript ===")
			fmt.Printf("  Messages:    %d (%d text, %d attachment, %d system)\n",
				len(t.Messages), texts, attachments, system)
			if len(t.Messages) > 0 {
				first := t.Messages[0].Timestamp
				last := t.Messages[len(t.Messages)-1].Timestamp
				fmt.Printf("  Range:       %s .. %s\n",
					first.Format("2006-01-02"), last.Format("2006-01-02"))
			}
			if t.OwnerMasked {
				fmt.Println("  Owner:       masked (Du/You placeholder)")
			} else if me, ok := t.InferMe(snap.Provenance.Label()); ok {
				fmt.Printf("  Owner:       %s (inferred)\n", me)
			} else {
				fmt.Println("  Owner:       unknown")
			}

			fmt.Println("\n=== Participants ===")
			for _, p := range t.Participants {
				if chat.PhoneLike(p) {
					fmt.Printf("  %s (phone)\n", p)
				} else {
					fmt.Printf("  %s\n", p)
				}
			}

			names := t.AttachmentNames()
			missing := 0
			for _, name := range names {
				if _, err := os.Stat(filepath.Join(snap.WorkDir, name)); err != nil {
					missing++
				}
			}
			fmt.Println("\n=== Attachments ===")
			fmt.Printf("  Referenced: %d\n", len(names))
			fmt.Printf("  Missing:    %d\n", missing)

			return nil
		},
	}
}
