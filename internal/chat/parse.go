package chat

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// Header forms emitted by the export, most specific first:
//
//	2019-04-13 18:59:06 Carolin: Text
//	13.04.19, 18:59 - Carolin: Text
//	13.04.2019, 18:59:06 - Carolin: Text
//	[13.04.2019, 18:59:06] Carolin: Text
//
// Media messages sometimes emit "... Name:" with the attachment marker on the
// next line, so an empty body after the colon must be accepted.
var (
	reISO     = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[ T](\d{2}:\d{2}:\d{2})\s+([^:]+?):\s*(.*)$`)
	reDE      = regexp.MustCompile(`^(\d{1,2}\.\d{1,2}\.\d{2,4}),\s+(\d{1,2}:\d{2})(?::(\d{2}))?\s+-\s+([^:]+?):\s*(.*)$`)
	reBracket = regexp.MustCompile(`^\[(\d{1,2}\.\d{1,2}\.\d{2,4}),\s+(\d{1,2}:\d{2})(?::(\d{2}))?\]\s+([^:]+?):\s*(.*)$`)

	// Senderless variants carry system events (encryption notice, block,
	// security-code change). Tried after the sender forms.
	reISOSys     = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[ T](\d{2}:\d{2}:\d{2})(?:\s+[-–]\s+|\s+)(.*)$`)
	reDESys      = regexp.MustCompile(`^(\d{1,2}\.\d{1,2}\.\d{2,4}),\s+(\d{1,2}:\d{2})(?::(\d{2}))?\s+[-–]\s+(.*)$`)
	reBracketSys = regexp.MustCompile(`^\[(\d{1,2}\.\d{1,2}\.\d{2,4}),\s+(\d{1,2}:\d{2})(?::(\d{2}))?\]\s+(.*)$`)

	reAttach = regexp.MustCompile(`(?i)<\s*(?:Anhang|attached):\s*([^>]+?)\s*>`)
)

// ownerPlaceholders are the tokens WhatsApp substitutes for the exporting
// account's name in some export modes. They are not real participant names.
var ownerPlaceholders = map[string]bool{
	"Du":  true,
	"You": true,
}

// IsOwnerPlaceholder reports whether name is the masked-owner token.
func IsOwnerPlaceholder(name string) bool {
	return ownerPlaceholders[normSpace(name)]
}

// systemPhrases recognizes locale-specific system-event wording (German and
// English) when it leaks into sender position or needs distinct styling.
var systemPhrases = []string{
	"ende-zu-ende-verschlüsselt",
	"end-to-end encrypted",
	"sicherheitsnummer",
	"security code",
	"blockiert",
	"blocked",
	"unblocked",
	"whatsapp",
}

func isSystemText(s string) bool {
	ls := strings.ToLower(s)
	for _, p := range systemPhrases {
		if strings.Contains(ls, p) {
			return true
		}
	}
	return false
}

// normSpace collapses whitespace and strips NBSP plus the BOM/bidi control
// runes iOS exports sprinkle into headers.
func normSpace(s string) string {
	s = stripInvisible(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

var invisibleReplacer = strings.NewReplacer(
	"\ufeff", "", // BOM
	"\u200e", "", "\u200f", "", // LRM / RLM
	"\u202a", "", "\u202b", "", "\u202c", "", // bidi embedding marks
)

func stripInvisible(s string) string {
	return invisibleReplacer.Replace(s)
}

// ParseFile parses the transcript at path. It never fails on malformed
// content, only on I/O errors.
func ParseFile(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse consumes the raw transcript text and produces the ordered message
// sequence plus the detected participant set. Lines that match no header
// form are folded into the previous message's body, so parsing is total
// over arbitrary input.
func Parse(r io.Reader) (*Transcript, error) {
	t := &Transcript{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	seen := make(map[string]bool)
	var last *Message
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := stripInvisible(scanner.Text())

		if strings.TrimSpace(line) == "" {
			// blank line inside a message body is a continuation
			if last != nil {
				last.Body += "\n"
				last.LineCount++
			}
			continue
		}

		if msg, ok := matchHeader(line, lineNum); ok {
			t.Messages = append(t.Messages, msg)
			last = &t.Messages[len(t.Messages)-1]
			if last.Sender != "" {
				if IsOwnerPlaceholder(last.Sender) {
					t.OwnerMasked = true
				} else if !seen[last.Sender] && !isSystemText(last.Sender) {
					seen[last.Sender] = true
					t.Participants = append(t.Participants, last.Sender)
				}
			}
			continue
		}

		// continuation of the previous bubble; leading strays are dropped
		if last != nil {
			last.Body += "\n" + line
			last.LineCount++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for i := range t.Messages {
		classifyAttachment(&t.Messages[i])
	}
	return t, nil
}

func matchHeader(line string, lineNum int) (Message, bool) {
	if m := reISO.FindStringSubmatch(line); m != nil {
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", m[1]+" "+m[2], time.Local)
		if err == nil {
			return newMessage(ts, m[3], m[4], lineNum), true
		}
	}
	if m := reDE.FindStringSubmatch(line); m != nil {
		if ts, ok := parseGermanDate(m[1], m[2], m[3]); ok {
			return newMessage(ts, m[4], m[5], lineNum), true
		}
	}
	if m := reBracket.FindStringSubmatch(line); m != nil {
		if ts, ok := parseGermanDate(m[1], m[2], m[3]); ok {
			return newMessage(ts, m[4], m[5], lineNum), true
		}
	}
	if m := reISOSys.FindStringSubmatch(line); m != nil {
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", m[1]+" "+m[2], time.Local)
		if err == nil {
			return systemMessage(ts, m[3], lineNum), true
		}
	}
	if m := reDESys.FindStringSubmatch(line); m != nil {
		if ts, ok := parseGermanDate(m[1], m[2], m[3]); ok {
			return systemMessage(ts, m[4], lineNum), true
		}
	}
	if m := reBracketSys.FindStringSubmatch(line); m != nil {
		if ts, ok := parseGermanDate(m[1], m[2], m[3]); ok {
			return systemMessage(ts, m[4], lineNum), true
		}
	}
	return Message{}, false
}

func newMessage(ts time.Time, sender, body string, lineNum int) Message {
	return Message{
		Timestamp: ts,
		Sender:    normSpace(sender),
		Kind:      KindText,
		Body:      body,
		Line:      lineNum,
		LineCount: 1,
	}
}

func systemMessage(ts time.Time, body string, lineNum int) Message {
	return Message{
		Timestamp: ts,
		Kind:      KindSystem,
		Body:      body,
		Line:      lineNum,
		LineCount: 1,
	}
}

// parseGermanDate handles "13.04.19" and "13.04.2019" dates with an
// "18:59" or "18:59:06" time. Two-digit years are 2000-based.
func parseGermanDate(d, hm, sec string) (time.Time, bool) {
	parts := strings.Split(d, ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	hmParts := strings.Split(hm, ":")
	if len(hmParts) != 2 {
		return time.Time{}, false
	}
	hour, err1 := strconv.Atoi(hmParts[0])
	minute, err2 := strconv.Atoi(hmParts[1])
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}
	second := 0
	if sec != "" {
		second, err1 = strconv.Atoi(sec)
		if err1 != nil {
			return time.Time{}, false
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), true
}

// classifyAttachment converts messages carrying an in-body attachment marker
// into KindAttachment records. The marker is removed from the body; any
// surrounding caption text stays. A transcript exported without media is
// still valid, so the referenced file is not required to exist.
func classifyAttachment(m *Message) {
	if m.Kind == KindSystem {
		return
	}
	match := reAttach.FindStringSubmatch(m.Body)
	if match == nil {
		return
	}
	m.Kind = KindAttachment
	m.Attachment = strings.TrimSpace(match[1])
	m.Body = strings.TrimSpace(reAttach.ReplaceAllString(m.Body, ""))
}
