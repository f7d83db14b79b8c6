package chat

import "time"

// Kind classifies a parsed message.
type Kind int

const (
	KindText Kind = iota
	KindAttachment
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindAttachment:
		return "attachment"
	case KindSystem:
		return "system"
	default:
		return "text"
	}
}

// Message is one logical entry of the transcript. Multi-line bodies keep
// their embedded newlines. Sender is empty for system events.
type Message struct {
	Timestamp  time.Time
	Sender     string
	Kind       Kind
	Body       string
	Attachment string // referenced filename for KindAttachment
	Line       int    // 1-based first physical line in the transcript
	LineCount  int    // physical lines covered, including continuations
}

// Transcript is the parsed form of one chat export.
type Transcript struct {
	Messages     []Message
	Participants []string // order of first appearance; owner placeholder excluded
	OwnerMasked  bool     // the export used a placeholder instead of the owner's name
}

// HasParticipant reports whether name appears in the detected participant set.
func (t *Transcript) HasParticipant(name string) bool {
	for _, p := range t.Participants {
		if p == name {
			return true
		}
	}
	return false
}

// AttachmentNames returns the referenced attachment filenames in message order.
func (t *Transcript) AttachmentNames() []string {
	var names []string
	for _, m := range t.Messages {
		if m.Kind == KindAttachment && m.Attachment != "" {
			names = append(names, m.Attachment)
		}
	}
	return names
}
