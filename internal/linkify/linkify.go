// Package linkify turns URLs and bare domains inside message text into
// hyperlink markup. The same detection pass feeds every render variant and
// the link-preview fetcher; only the emitted markup differs per dialect.
package linkify

import (
	"regexp"
	"sort"
	"strings"
)

// Dialect selects the emitted markup.
type Dialect int

const (
	HTML Dialect = iota
	Markdown
)

var (
	reSchemed = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"']+`)
	reDomain  = regexp.MustCompile(`(?i)\b(?:[a-z0-9][a-z0-9-]*\.)+[a-z]{2,24}(?:/[^\s<>()"']*)?`)

	// Existing link constructs are never rewritten, which makes annotation
	// idempotent.
	reAnchor = regexp.MustCompile(`(?is)<a\b[^>]*>.*?</a>`)
	reMDLink = regexp.MustCompile(`\[[^\]\n]*\]\([^)\n]*\)`)
)

// trailingPunct is sentence punctuation stripped from the end of a detected
// target and re-attached outside the generated link.
const trailingPunct = `).,;:!?]"'`

type match struct {
	start, end int // emitted link range in the segment
	maskEnd    int // full raw-match range, used to suppress overlaps
	target     string
	label      string
}

// Annotate rewrites text so every detected URL and bare domain becomes a
// link in the given dialect. For HTML the input is expected to be escaped
// text; already-present anchors and markdown links pass through unchanged.
func Annotate(text string, d Dialect) string {
	var b strings.Builder
	last := 0
	for _, sp := range protectedSpans(text) {
		b.WriteString(annotateSegment(text[last:sp[0]], d))
		b.WriteString(text[sp[0]:sp[1]])
		last = sp[1]
	}
	b.WriteString(annotateSegment(text[last:], d))
	return b.String()
}

// Targets returns the deduplicated link targets of text in order of first
// appearance. Bare domains are normalized to https URLs. The preview
// fetcher works from this list.
func Targets(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, sp := range unprotectedSegments(text) {
		for _, m := range detect(sp) {
			if !seen[m.target] {
				seen[m.target] = true
				out = append(out, m.target)
			}
		}
	}
	return out
}

func protectedSpans(s string) [][2]int {
	var spans [][2]int
	for _, loc := range reAnchor.FindAllStringIndex(s, -1) {
		spans = append(spans, [2]int{loc[0], loc[1]})
	}
	for _, loc := range reMDLink.FindAllStringIndex(s, -1) {
		if !overlaps(spans, loc[0], loc[1]) {
			spans = append(spans, [2]int{loc[0], loc[1]})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	return spans
}

func unprotectedSegments(s string) []string {
	var segs []string
	last := 0
	for _, sp := range protectedSpans(s) {
		segs = append(segs, s[last:sp[0]])
		last = sp[1]
	}
	return append(segs, s[last:])
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, sp := range spans {
		if start < sp[1] && end > sp[0] {
			return true
		}
	}
	return false
}

func detect(s string) []match {
	var matches []match

	for _, loc := range reSchemed.FindAllStringIndex(s, -1) {
		raw := s[loc[0]:loc[1]]
		trimmed := strings.TrimRight(raw, trailingPunct)
		if trimmed == "" {
			continue
		}
		matches = append(matches, match{
			start:   loc[0],
			end:     loc[0] + len(trimmed),
			maskEnd: loc[1],
			target:  trimmed,
			label:   trimmed,
		})
	}

	for _, loc := range reDomain.FindAllStringIndex(s, -1) {
		if masked(matches, loc[0]) {
			continue
		}
		// part of an email address, or glued to surrounding syntax
		if loc[0] > 0 {
			switch s[loc[0]-1] {
			case '@', '.', '-', '/':
				continue
			}
		}
		raw := strings.TrimRight(s[loc[0]:loc[1]], trailingPunct)
		if raw == "" {
			continue
		}
		if loc[0]+len(raw) < len(s) && s[loc[0]+len(raw)] == '@' {
			continue
		}
		if !knownTLD(raw) {
			continue
		}
		matches = append(matches, match{
			start:   loc[0],
			end:     loc[0] + len(raw),
			maskEnd: loc[1],
			target:  "https://" + raw,
			label:   raw,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })
	return matches
}

func masked(matches []match, pos int) bool {
	for _, m := range matches {
		if pos >= m.start && pos < m.maskEnd {
			return true
		}
	}
	return false
}

// knownTLD checks the final host label of a bare-domain candidate against
// the allow-list.
func knownTLD(dom string) bool {
	host := dom
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	i := strings.LastIndexByte(host, '.')
	if i < 0 || i == len(host)-1 {
		return false
	}
	return knownTLDs[strings.ToLower(host[i+1:])]
}

func annotateSegment(s string, d Dialect) string {
	matches := detect(s)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m.start])
		switch d {
		case Markdown:
			b.WriteString("[" + m.label + "](" + m.target + ")")
		default:
			b.WriteString(`<a href="` + m.target + `" target="_blank" rel="noopener">` + m.label + `</a>`)
		}
		last = m.end
	}
	b.WriteString(s[last:])
	return b.String()
}
