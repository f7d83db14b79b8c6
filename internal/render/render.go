// Package render turns a parsed transcript into one of three self-contained
// HTML documents or a Markdown document. Rendering is a pure function of the
// message sequence, the identity mapping and the variant policy: no clocks,
// no filesystem iteration order, no randomness.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/wetools/wet/internal/chat"
)

// Preview is a fetched link card ready for embedding.
type Preview struct {
	URL          string
	Title        string
	Description  string
	ImageDataURL string
}

// PreviewFunc resolves a detected link target to a card, or nil when no
// preview is available. A nil func disables previews entirely.
type PreviewFunc func(url string) *Preview

// Options configures one render call.
type Options struct {
	Variant       Variant
	Me            string
	SourceName    string // transcript basename shown in the header
	AttachmentDir string // canonical working folder; "" disables embedding
	InlineBudget  int64  // mid policy: max image bytes embedded inline
	Previews      PreviewFunc
}

// DefaultInlineBudget caps inline images for the mid variant.
const DefaultInlineBudget = 256 * 1024

// Render produces the document bytes for the requested variant.
func Render(t *chat.Transcript, opts Options) ([]byte, error) {
	if opts.InlineBudget <= 0 {
		opts.InlineBudget = DefaultInlineBudget
	}
	// previews are a fixed property of the variant, not a free option
	if !opts.Variant.previewsEnabled() {
		opts.Previews = nil
	}
	if opts.Variant == VariantMarkdown {
		return renderMarkdown(t, opts), nil
	}
	return renderHTML(t, opts), nil
}

func (v Variant) previewsEnabled() bool {
	return v == VariantMax || v == VariantMid
}

var weekdays = map[time.Weekday]string{
	time.Monday:    "Montag",
	time.Tuesday:   "Dienstag",
	time.Wednesday: "Mittwoch",
	time.Thursday:  "Donnerstag",
	time.Friday:    "Freitag",
	time.Saturday:  "Samstag",
	time.Sunday:    "Sonntag",
}

func fmtDate(ts time.Time) string {
	return fmt.Sprintf("%02d.%02d.%04d", ts.Day(), int(ts.Month()), ts.Year())
}

func fmtTime(ts time.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d", ts.Hour(), ts.Minute(), ts.Second())
}

func dayLabel(ts time.Time) string {
	return weekdays[ts.Weekday()] + ", " + fmtDate(ts)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// chatTitle builds the "Me ↔ Partner" header line.
func chatTitle(t *chat.Transcript, me string) string {
	var others []string
	for _, p := range t.Participants {
		if p != me {
			others = append(others, p)
		}
	}
	display := me
	if display == "" {
		display = "Ich"
	}
	if len(others) == 0 {
		return display + " ↔ Chat"
	}
	return display + " ↔ " + strings.Join(others, ", ")
}
