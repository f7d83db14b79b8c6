package render

import (
	"strconv"
	"strings"

	"github.com/wetools/wet/internal/chat"
	"github.com/wetools/wet/internal/linkify"
)

// renderMarkdown writes the text-oriented variant. Attachments stay as
// relative references against the original export folder; nothing is
// embedded and nothing points into the sidecar tree.
func renderMarkdown(t *chat.Transcript, opts Options) []byte {
	var lines []string
	lines = append(lines,
		"# WhatsApp Chat: "+chatTitle(t, opts.Me),
		"",
		"- Quelle: "+opts.SourceName,
		"- Nachrichten: "+strconv.Itoa(len(t.Messages)),
		"",
	)

	var lastDay *chat.Message
	for i := range t.Messages {
		m := &t.Messages[i]
		if lastDay == nil || !sameDay(lastDay.Timestamp, m.Timestamp) {
			lines = append(lines, "## "+dayLabel(m.Timestamp), "")
			lastDay = m
		}

		if m.Kind == chat.KindSystem {
			lines = append(lines, "> "+strings.ReplaceAll(m.Body, "\n", " "), "")
			continue
		}

		name := m.Sender
		if name == "" {
			name = "Unbekannt"
		}
		lines = append(lines,
			"**"+name+"**  ",
			"*"+fmtTime(m.Timestamp)+" / "+fmtDate(m.Timestamp)+"*  ",
		)
		if body := strings.TrimSpace(m.Body); body != "" {
			lines = append(lines, linkify.Annotate(body, linkify.Markdown))
		}
		if m.Kind == chat.KindAttachment && m.Attachment != "" {
			lines = append(lines, "![Anhang]("+m.Attachment+")")
		}
		lines = append(lines, "")
	}

	return []byte(strings.Join(lines, "\n"))
}
