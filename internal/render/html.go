package render

import (
	"encoding/base64"
	"html"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wetools/wet/internal/chat"
	"github.com/wetools/wet/internal/linkify"
)

var mimeByExt = map[string]string{
	".jpg": "image/jpeg", ".jpeg": "image/jpeg",
	".png": "image/png", ".gif": "image/gif", ".webp": "image/webp",
	".mp4": "video/mp4", ".3gp": "video/3gpp", ".mov": "video/quicktime",
	".mp3": "audio/mpeg", ".ogg": "audio/ogg", ".opus": "audio/ogg",
	".m4a": "audio/mp4", ".aac": "audio/aac",
	".pdf": "application/pdf",
}

// MimeFromName guesses a MIME type from the attachment filename alone; the
// bytes themselves are never inspected.
func MimeFromName(name string) string {
	if m, ok := mimeByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return m
	}
	return "application/octet-stream"
}

// dataURL embeds the file as a base64 data URL, or "" when the file is
// missing, unreadable or exceeds maxBytes (0 = unlimited).
func dataURL(path string, maxBytes int64) string {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return "data:" + MimeFromName(path) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func escapeKeepNewlines(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}

func renderHTML(t *chat.Transcript, opts Options) []byte {
	title := "WhatsApp Chat: " + chatTitle(t, opts.Me)

	var b strings.Builder
	b.WriteString("<!doctype html><html lang='de'><head><meta charset='utf-8'>")
	b.WriteString("<meta name='viewport' content='width=device-width, initial-scale=1'>")
	b.WriteString("<title>" + html.EscapeString(title) + "</title>")
	b.WriteString("<style>" + chatCSS + "</style></head><body><div class='wrap'>")

	b.WriteString("<div class='header'>")
	b.WriteString("<p class='h-title'>WhatsApp Chat<br>" + html.EscapeString(chatTitle(t, opts.Me)) + "</p>")
	b.WriteString("<p class='h-meta'>Quelle: " + html.EscapeString(opts.SourceName) +
		"<br>Nachrichten: " + strconv.Itoa(len(t.Messages)) + "</p>")
	b.WriteString("</div>")

	var lastDay *chat.Message
	for i := range t.Messages {
		m := &t.Messages[i]
		if lastDay == nil || !sameDay(lastDay.Timestamp, m.Timestamp) {
			b.WriteString("<div class='day'><span>" + html.EscapeString(dayLabel(m.Timestamp)) + "</span></div>")
			lastDay = m
		}
		writeBubble(&b, m, opts)
	}

	b.WriteString("</div></body></html>")
	return []byte(b.String())
}

func writeBubble(b *strings.Builder, m *chat.Message, opts Options) {
	if m.Kind == chat.KindSystem {
		b.WriteString("<div class='row system'><div class='bubble system'>")
		b.WriteString(escapeKeepNewlines(m.Body))
		b.WriteString("</div></div>")
		return
	}

	side := "other"
	if m.Sender == opts.Me || chat.IsOwnerPlaceholder(m.Sender) {
		side = "me"
	}
	name := m.Sender
	if name == "" {
		name = "Unbekannt"
	}

	b.WriteString("<div class='row " + side + "'><div class='bubble " + side + "'>")
	b.WriteString("<div class='name'>" + html.EscapeString(name) + "</div>")

	if m.Body != "" {
		text := linkify.Annotate(escapeKeepNewlines(m.Body), linkify.HTML)
		b.WriteString("<div class='text'>" + text + "</div>")
	}

	if opts.Previews != nil {
		if targets := linkify.Targets(m.Body); len(targets) > 0 {
			if p := opts.Previews(targets[0]); p != nil {
				writePreviewCard(b, p)
			}
		}
	}

	if m.Kind == chat.KindAttachment {
		writeAttachment(b, m.Attachment, opts)
	}

	b.WriteString("<div class='meta'>" + html.EscapeString(fmtTime(m.Timestamp)) +
		"<br>" + html.EscapeString(fmtDate(m.Timestamp)) + "</div>")
	b.WriteString("</div></div>")
}

// writeAttachment applies the variant's embedding policy. Only images are
// ever inlined; everything else degrades to a named reference, and the mail
// variant embeds nothing at all. The sidecar tree is never referenced.
func writeAttachment(b *strings.Builder, name string, opts Options) {
	isImage := strings.HasPrefix(MimeFromName(name), "image/")

	var embedded string
	if opts.AttachmentDir != "" && isImage {
		switch opts.Variant {
		case VariantMax:
			embedded = dataURL(filepath.Join(opts.AttachmentDir, name), 0)
		case VariantMid:
			embedded = dataURL(filepath.Join(opts.AttachmentDir, name), opts.InlineBudget)
		}
	}

	if embedded != "" {
		b.WriteString("<div class='media'><img alt='' src='" + embedded + "'></div>")
		return
	}
	b.WriteString("<div class='media-ref'>" + html.EscapeString(name) + "</div>")
}

func writePreviewCard(b *strings.Builder, p *Preview) {
	b.WriteString("<div class='preview'><a href='" + html.EscapeString(p.URL) + "' target='_blank' rel='noopener'>")
	if p.ImageDataURL != "" {
		b.WriteString("<div class='pimg'><img alt='' src='" + p.ImageDataURL + "'></div>")
	}
	title := p.Title
	if title == "" {
		title = p.URL
	}
	b.WriteString("<div class='pbody'><p class='ptitle'>" + html.EscapeString(title) + "</p>")
	if p.Description != "" {
		b.WriteString("<p class='pdesc'>" + html.EscapeString(p.Description) + "</p>")
	}
	b.WriteString("</div></a></div>")
}
