// Package export orchestrates one full run: parse the resolved snapshot,
// render the requested documents into a staging folder, copy attachments and
// sources, then move everything into place. Nothing is written to the final
// destination until every artifact succeeded.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/wetools/wet/internal/chat"
	"github.com/wetools/wet/internal/render"
	"github.com/wetools/wet/internal/sidecar"
	"github.com/wetools/wet/internal/source"
)

// Options configures one export run.
type Options struct {
	DestDir      string
	Formats      Formats
	Me           string            // owner's display name; "" means infer
	Renames      map[string]string // phone-like sender -> display name
	Sidecar      bool
	CopySources  bool
	Force        bool
	InlineBudget int64
	Previews     render.PreviewFunc
	Logger       *log.Logger
}

// Result reports what a run produced.
type Result struct {
	OutDir     string
	Base       string
	Me         string
	HTMLs      []string // absolute paths, max/mid/mail order
	Markdown   string
	SourcesDir string // copied snapshot, "" when copying was off
	SourcesZip string
	Sidecar    *sidecar.Stats
	Messages   int
}

// PrimaryHTML is the document to open after the run: the richest HTML
// variant that was produced.
func (r *Result) PrimaryHTML() string {
	if len(r.HTMLs) == 0 {
		return ""
	}
	return r.HTMLs[0]
}

var ErrNoFormats = errors.New("no output format selected")

// Run executes a full export of the snapshot into opts.DestDir.
func Run(ctx context.Context, snap *source.Snapshot, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if !opts.Formats.Any() {
		return nil, ErrNoFormats
	}

	t, err := chat.ParseFile(snap.TranscriptPath)
	if err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	t.ApplyRenames(opts.Renames)

	me := opts.Me
	if me == "" {
		me, _ = t.InferMe(snap.Provenance.Label())
	}
	label := snap.Provenance.Label()
	if label == "" {
		label = chatLabel(t, me)
	}

	p := newPlan(opts.DestDir, label, opts.Formats, opts.Sidecar, opts.CopySources)
	logger.Info("export", "input", snap.Provenance.InputKind.String(),
		"messages", len(t.Messages), "out", p.outDir)

	if hits := p.existing(); len(hits) > 0 {
		if !opts.Force {
			return nil, &OutputExistsError{Dir: p.outDir, Names: hits}
		}
		logger.Warn("overwriting previous output", "names", len(hits))
		if err := p.clear(hits); err != nil {
			return nil, err
		}
	}

	staging := filepath.Join(opts.DestDir, ".wet-"+uuid.NewString()[:8])
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := renderAll(ctx, t, snap, me, opts, p, staging); err != nil {
		return nil, err
	}

	res := &Result{
		OutDir:   p.outDir,
		Base:     p.base,
		Me:       me,
		Messages: len(t.Messages),
	}

	if opts.Sidecar {
		stats, err := sidecar.Export(t, snap.WorkDir, filepath.Join(staging, p.sidecarDir))
		if err != nil {
			return nil, fmt.Errorf("sidecar: %w", err)
		}
		logger.Info("sidecar", "stats", stats.String())
		res.Sidecar = &stats
	}

	if opts.CopySources {
		if err := copySources(ctx, snap, filepath.Join(staging, p.sourcesDir), res); err != nil {
			return nil, fmt.Errorf("copy sources: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := commit(staging, p.outDir); err != nil {
		return nil, err
	}

	for _, v := range []render.Variant{render.VariantMax, render.VariantMid, render.VariantMail} {
		if name, ok := p.files[v]; ok {
			res.HTMLs = append(res.HTMLs, filepath.Join(p.outDir, name))
		}
	}
	if name, ok := p.files[render.VariantMarkdown]; ok {
		res.Markdown = filepath.Join(p.outDir, name)
	}
	if res.SourcesDir != "" {
		res.SourcesDir = filepath.Join(p.outDir, p.sourcesDir, filepath.Base(res.SourcesDir))
	}
	if res.SourcesZip != "" {
		res.SourcesZip = filepath.Join(p.outDir, p.sourcesDir, filepath.Base(res.SourcesZip))
	}
	logger.Info("export done", "out", p.outDir)
	return res, nil
}

// renderAll writes every requested variant into staging. Variants write
// disjoint files over the same immutable transcript, so they run in
// parallel.
func renderAll(ctx context.Context, t *chat.Transcript, snap *source.Snapshot, me string, opts Options, p *plan, staging string) error {
	var wg sync.WaitGroup
	errs := make([]error, 0, len(p.files))
	var mu sync.Mutex

	for v, name := range p.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		wg.Add(1)
		go func(v render.Variant, name string) {
			defer wg.Done()
			data, err := render.Render(t, render.Options{
				Variant:       v,
				Me:            me,
				SourceName:    filepath.Base(snap.TranscriptPath),
				AttachmentDir: snap.WorkDir,
				InlineBudget:  opts.InlineBudget,
				Previews:      opts.Previews,
			})
			if err == nil {
				err = os.WriteFile(filepath.Join(staging, name), data, 0o644)
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("render %s: %w", v, err))
				mu.Unlock()
			}
		}(v, name)
	}
	wg.Wait()
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// copySources places a byte-faithful copy of the canonical folder (and the
// original archive, for zip inputs) under the staging Sources dir.
func copySources(ctx context.Context, snap *source.Snapshot, sourcesDst string, res *Result) error {
	dirDst := filepath.Join(sourcesDst, filepath.Base(snap.WorkDir))
	if err := copyTree(ctx, snap.WorkDir, dirDst); err != nil {
		return err
	}
	res.SourcesDir = dirDst

	if archive := snap.Provenance.OriginalArchive; archive != "" {
		zipDst := filepath.Join(sourcesDst, filepath.Base(archive))
		if err := copyFile(archive, zipDst); err != nil {
			return err
		}
		res.SourcesZip = zipDst
	}
	return nil
}

// commit moves every staged entry into the destination folder. Staging lives
// inside DestDir so the moves are plain renames.
func commit(staging, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		return fmt.Errorf("read staging: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(outDir, name)); err != nil {
			return fmt.Errorf("move %s into place: %w", name, err)
		}
	}
	return nil
}

func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
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
		os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
	return nil
}

// chatLabel falls back to the participants when the input's naming carried no
// partner label.
func chatLabel(t *chat.Transcript, me string) string {
	for _, p := range t.Participants {
		if p != me {
			return p
		}
	}
	return "Chat"
}
