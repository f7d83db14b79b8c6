package render

import (
	"regexp"
	"strings"
)

// Variant selects the output format and its embedding policy.
type Variant int

const (
	VariantMax  Variant = iota // every attachment embedded, offline-complete
	VariantMid                 // lightweight inline images only
	VariantMail                // text only
	VariantMarkdown
)

func (v Variant) String() string {
	switch v {
	case VariantMax:
		return "max"
	case VariantMid:
		return "mid"
	case VariantMail:
		return "mail"
	default:
		return "markdown"
	}
}

// Current filename suffix per variant. New output always uses these.
var suffixes = map[Variant]string{
	VariantMax:      "-MaxHTML.html",
	VariantMid:      "-MidHTML.html",
	VariantMail:     "-mailHTML.html",
	VariantMarkdown: ".md",
}

// Legacy suffixes from older releases. Recognized when checking for
// pre-existing artifacts, never written.
var legacySuffixes = map[Variant]string{
	VariantMax:  "-FullHTML.html",
	VariantMid:  "-ThumbHTML.html",
	VariantMail: "-TextHTML.html",
}

// Filename returns the output name for base under the current scheme.
func Filename(base string, v Variant) string {
	return base + suffixes[v]
}

// RecognizedFilenames returns every name, current or legacy, that a prior
// run could have produced for base. Used for overwrite preflight and
// cleanup of stale artifacts.
func RecognizedFilenames(base string) []string {
	var names []string
	for _, v := range []Variant{VariantMax, VariantMid, VariantMail, VariantMarkdown} {
		names = append(names, Filename(base, v))
		if legacy, ok := legacySuffixes[v]; ok {
			names = append(names, base+legacy)
		}
	}
	return names
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// SafeBase sanitizes a chat/partner label into a filesystem-safe base name.
func SafeBase(label string) string {
	base := unsafeChars.ReplaceAllString(label, "_")
	base = strings.Trim(base, "_")
	if base == "" {
		return "WHATSAPP_CHAT"
	}
	return base
}
