package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneLike(t *testing.T) {
	assert.True(t, PhoneLike("+49 171 1234567"))
	assert.True(t, PhoneLike("0171-2345678"))
	assert.False(t, PhoneLike("Carolin"))
	assert.False(t, PhoneLike("Agent 007")) // letters disqualify
	assert.False(t, PhoneLike("12345"))     // too few digits
}

func TestInferMeByPartnerLabel(t *testing.T) {
	tr := &Transcript{Participants: []string{"Stefan", "Carolin"}}

	me, ok := tr.InferMe("Carolin")
	assert.True(t, ok)
	assert.Equal(t, "Stefan", me)
}

func TestInferMeBySinglePhoneEntry(t *testing.T) {
	tr := &Transcript{Participants: []string{"+49 171 1234567", "Stefan"}}

	me, ok := tr.InferMe("")
	assert.True(t, ok)
	assert.Equal(t, "Stefan", me)
}

func TestInferMeUnknownCases(t *testing.T) {
	// masked owner disables inference even for two participants
	masked := &Transcript{Participants: []string{"Carolin"}, OwnerMasked: true}
	_, ok := masked.InferMe("Carolin")
	assert.False(t, ok)

	// group chats are never guessed
	group := &Transcript{Participants: []string{"A", "B", "C"}}
	_, ok = group.InferMe("")
	assert.False(t, ok)

	// two plain names without a matching label stay ambiguous
	ambiguous := &Transcript{Participants: []string{"Stefan", "Carolin"}}
	_, ok = ambiguous.InferMe("Jemand Anderes")
	assert.False(t, ok)
}

func TestApplyRenames(t *testing.T) {
	tr := &Transcript{
		Messages: []Message{
			{Sender: "+49 171 1234567", Body: "hi"},
			{Sender: "Stefan", Body: "hallo"},
			{Sender: "Du", Body: "masked"},
		},
		Participants: []string{"+49 171 1234567", "Stefan"},
	}

	tr.ApplyRenames(map[string]string{
		"+49 171 1234567": "Carolin",
		"Stefan":          "Ignored", // not phone-like, must not change
		"Du":              "Ignored",
	})

	assert.Equal(t, "Carolin", tr.Messages[0].Sender)
	assert.Equal(t, "Stefan", tr.Messages[1].Sender)
	assert.Equal(t, "Du", tr.Messages[2].Sender)
	assert.Equal(t, []string{"Carolin", "Stefan"}, tr.Participants)
}

func TestNameOverride(t *testing.T) {
	o := &NameOverride{Suggested: "Carolin"}
	assert.Equal(t, "Carolin", o.Display("+49 171 1234567"))

	// diverging choice clears the stale suggestion
	o.Choose("Caro")
	assert.Equal(t, "", o.Suggested)
	assert.Equal(t, "Caro", o.Display("+49 171 1234567"))

	empty := &NameOverride{}
	assert.Equal(t, "+49 171 1234567", empty.Display("+49 171 1234567"))
}
