package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wetools/wet/internal/chat"
	"github.com/wetools/wet/internal/config"
	"github.com/wetools/wet/internal/export"
	"github.com/wetools/wet/internal/open"
	"github.com/wetools/wet/internal/preview"
	"github.com/wetools/wet/internal/render"
	"github.com/wetools/wet/internal/source"
	"github.com/wetools/wet/internal/tui"
	"github.com/wetools/wet/internal/verify"
)

func exportCmd() *cobra.Command {
	var (
		outDir          string
		formatsFlag     string
		me              string
		label           string
		renames         []string
		withSidecar     bool
		copySources     bool
		deleteOriginals bool
		noPreviews      bool
		force           bool
		verbose         bool
		openAfter       bool
	)

	cmd := &cobra.Command{
		Use:   "export <folder|zip|transcript>",
		Short: "Render a WhatsApp export to HTML and Markdown",
		Long: `Export resolves the input (an export folder, a .zip archive, a bare
transcript, or a previously produced output folder's Sources subtree),
parses the transcript and writes the selected document variants into a
per-chat folder.

Variants: max (everything embedded), mid (small images inline), mail
(text only), md (Markdown).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.OutputDir
			}

			formats, err := parseFormats(formatsFlag)
			if err != nil {
				return err
			}
			renameMap, err := parseRenames(renames)
			if err != nil {
				return err
			}

			logger := log.New(os.Stderr)
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}

			snap, err := source.Resolve(args[0])
			if err != nil {
				return err
			}
			defer snap.Close()
			snap.Provenance.PartnerLabelOverride = label

			if me == "" {
				me, err = resolveMe(snap)
				if err != nil {
					return err
				}
			}

			var previewFn render.PreviewFunc
			if !noPreviews {
				previewFn = buildPreviewFunc(cmd.Context(), cfg, logger)
			}

			res, err := export.Run(cmd.Context(), snap, export.Options{
				DestDir:      outDir,
				Formats:      formats,
				Me:           me,
				Renames:      renameMap,
				Sidecar:      withSidecar,
				CopySources:  copySources,
				Force:        force,
				InlineBudget: cfg.InlineImageBytes,
				Previews:     previewFn,
				Logger:       logger,
			})
			var exists *export.OutputExistsError
			if errors.As(err, &exists) {
				return fmt.Errorf("%w (re-run with --force to overwrite)", exists)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Exported %d messages to %s\n", res.Messages, res.OutDir)
			if res.Sidecar != nil {
				fmt.Printf("Sidecar: %s\n", res.Sidecar)
			}

			if deleteOriginals {
				if err := deleteAfterVerify(cmd.Context(), snap, res, copySources, logger); err != nil {
					return err
				}
			}
			if openAfter && res.PrimaryHTML() != "" {
				if err := open.InBrowser(res.PrimaryHTML()); err != nil {
					logger.Warn("could not open browser", "err", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "destination directory (default from config)")
	cmd.Flags().StringVar(&formatsFlag, "formats", "max,mid,mail,md", "comma-separated output formats")
	cmd.Flags().StringVar(&me, "me", "", "display name of the chat owner")
	cmd.Flags().StringVar(&label, "label", "", "override the detected partner label")
	cmd.Flags().StringArrayVar(&renames, "rename", nil, "rename a phone-number sender, old=new (repeatable)")
	cmd.Flags().BoolVar(&withSidecar, "sidecar", false, "copy attachments into a categorized sidecar folder")
	cmd.Flags().BoolVar(&copySources, "copy-sources", true, "keep a verified copy of the input under Sources/")
	cmd.Flags().BoolVar(&deleteOriginals, "delete-originals", false, "delete the original input after verification")
	cmd.Flags().BoolVar(&noPreviews, "no-previews", false, "skip fetching link preview cards")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite previous output for the same chat")
	cmd.Flags().BoolVar(&openAfter, "open", false, "open the richest HTML variant when done")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func parseFormats(s string) (export.Formats, error) {
	var f export.Formats
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "max":
			f.Max = true
		case "mid":
			f.Mid = true
		case "mail":
			f.Mail = true
		case "md", "markdown":
			f.Markdown = true
		case "":
		default:
			return f, fmt.Errorf("unknown format %q (want max, mid, mail, md)", part)
		}
	}
	if !f.Any() {
		return f, errors.New("no output format selected")
	}
	return f, nil
}

func parseRenames(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		from, to, ok := strings.Cut(p, "=")
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid --rename %q (want old=new)", p)
		}
		out[from] = to
	}
	return out, nil
}

// resolveMe decides who the chat owner is when --me was not given. The
// parser's inference runs inside export.Run; this only steps in
// interactively for ambiguous group chats on a real terminal.
func resolveMe(snap *source.Snapshot) (string, error) {
	t, err := chat.ParseFile(snap.TranscriptPath)
	if err != nil {
		return "", fmt.Errorf("parse transcript: %w", err)
	}
	if name, ok := t.InferMe(snap.Provenance.Label()); ok {
		return name, nil
	}
	if len(t.Participants) < 2 || !term.IsTerminal(int(os.Stdout.Fd())) {
		return "", nil
	}
	name, err := tui.Pick("Which participant is you?", t.Participants)
	if errors.Is(err, tui.ErrCancelled) {
		return "", nil
	}
	return name, err
}

// buildPreviewFunc wires the networked fetcher (with its sqlite cache) into
// the renderer's synchronous callback. Cache problems degrade to an
// uncached fetcher; fetch problems degrade to no card.
func buildPreviewFunc(ctx context.Context, cfg *config.Config, logger *log.Logger) render.PreviewFunc {
	cache, err := preview.OpenCache(cfg.PreviewCachePath)
	if err != nil {
		logger.Warn("preview cache unavailable", "err", err)
		cache = nil
	}
	fetcher := preview.NewFetcher(cache, cfg.PreviewTimeoutDuration(), cfg.MaxPreviewImage)

	return func(url string) *render.Preview {
		card, err := fetcher.Fetch(ctx, url)
		if err != nil || card == nil {
			return nil
		}
		return &render.Preview{
			URL:          card.URL,
			Title:        card.Title,
			Description:  card.Description,
			ImageDataURL: card.ImageDataURL,
		}
	}
}

// deleteAfterVerify removes the original input only when every gate admits
// it. Gate failures are reported, never fatal to the export itself.
func deleteAfterVerify(ctx context.Context, snap *source.Snapshot, res *export.Result, copySources bool, logger *log.Logger) error {
	req := verify.Request{
		CopySourcesEnabled: copySources,
		SourcesDir:         res.SourcesDir,
		OriginalDir:        snap.WorkDir,
		OriginalZip:        snap.Provenance.OriginalArchive,
		SourcesZip:         res.SourcesZip,
	}
	vres, err := verify.Verify(ctx, req)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	for _, adv := range vres.Advisories {
		logger.Warn(adv)
	}
	if len(vres.GateFailures) > 0 {
		fmt.Printf("Originals kept: %s\n", strings.Join(vres.GateFailures, ", "))
		return nil
	}

	for _, target := range deletionTargets(snap, vres) {
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("delete original %s: %w", target, err)
		}
		fmt.Printf("Deleted original: %s\n", target)
	}
	return nil
}

// deletionTargets maps the verifier's admitted items back to the
// user-visible originals. Replay inputs are never deleted.
func deletionTargets(snap *source.Snapshot, vres *verify.Result) []string {
	if snap.Replay {
		return nil
	}
	admitted := make(map[string]bool, len(vres.Deletable))
	for _, d := range vres.Deletable {
		admitted[d] = true
	}

	var targets []string
	switch snap.Provenance.InputKind {
	case source.KindExportFolder:
		if admitted[snap.WorkDir] {
			targets = append(targets, snap.Provenance.OriginalPath)
		}
	case source.KindZipArchive:
		if admitted[snap.Provenance.OriginalArchive] {
			targets = append(targets, snap.Provenance.OriginalArchive)
		}
	}
	return targets
}
