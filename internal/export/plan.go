package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wetools/wet/internal/render"
	"github.com/wetools/wet/internal/source"
)

// Formats selects which output documents a run produces.
type Formats struct {
	Max      bool
	Mid      bool
	Mail     bool
	Markdown bool
}

func (f Formats) Any() bool {
	return f.Max || f.Mid || f.Mail || f.Markdown
}

func (f Formats) variants() []render.Variant {
	var vs []render.Variant
	if f.Max {
		vs = append(vs, render.VariantMax)
	}
	if f.Mid {
		vs = append(vs, render.VariantMid)
	}
	if f.Mail {
		vs = append(vs, render.VariantMail)
	}
	if f.Markdown {
		vs = append(vs, render.VariantMarkdown)
	}
	return vs
}

// OutputExistsError reports planned artifact names already present at the
// destination. The caller can offer overwrite and retry with Force.
type OutputExistsError struct {
	Dir   string
	Names []string
}

func (e *OutputExistsError) Error() string {
	return fmt.Sprintf("output already exists in %s: %s", e.Dir, strings.Join(e.Names, ", "))
}

// plan fixes every destination name before anything is written.
type plan struct {
	base       string
	outDir     string
	files      map[render.Variant]string // artifact basenames
	sidecarDir string                    // basename, "" if disabled
	sourcesDir string                    // basename, "" if disabled
}

func newPlan(destDir, label string, formats Formats, withSidecar, withSources bool) *plan {
	base := render.SafeBase("WhatsApp-Chat-" + label)
	p := &plan{
		base:   base,
		outDir: filepath.Join(destDir, base),
		files:  make(map[render.Variant]string),
	}
	for _, v := range formats.variants() {
		p.files[v] = render.Filename(base, v)
	}
	if withSidecar {
		p.sidecarDir = base + "-Sidecar"
	}
	if withSources {
		p.sourcesDir = source.SourcesDirName
	}
	return p
}

// existing returns the names already present at the destination that this
// run would produce or replace, legacy suffix schemes included.
func (p *plan) existing() []string {
	var hits []string
	seen := make(map[string]bool)
	check := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		if _, err := os.Stat(filepath.Join(p.outDir, name)); err == nil {
			hits = append(hits, name)
		}
	}
	for _, name := range p.files {
		check(name)
	}
	for _, name := range render.RecognizedFilenames(p.base) {
		check(name)
	}
	check(p.sidecarDir)
	check(p.sourcesDir)
	sort.Strings(hits)
	return hits
}

// clear removes previously produced artifacts so a forced run starts clean.
func (p *plan) clear(names []string) error {
	for _, name := range names {
		if err := os.RemoveAll(filepath.Join(p.outDir, name)); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
