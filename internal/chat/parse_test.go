package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISOHeaders(t *testing.T) {
	in := strings.Join([]string{
		"2019-04-13 18:59:06 Carolin: Hallo!",
		"2019-04-13 19:02:10 Stefan: Na, alles klar?",
	}, "\n")

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tr.Messages, 2)

	m := tr.Messages[0]
	assert.Equal(t, "Carolin", m.Sender)
	assert.Equal(t, KindText, m.Kind)
	assert.Equal(t, "Hallo!", m.Body)
	assert.Equal(t, time.Date(2019, 4, 13, 18, 59, 6, 0, time.Local), m.Timestamp)
	assert.Equal(t, 1, m.Line)

	assert.Equal(t, []string{"Carolin", "Stefan"}, tr.Participants)
}

func TestParseGermanHeaders(t *testing.T) {
	in := strings.Join([]string{
		"13.04.19, 18:59 - Carolin: Zwei-stellige Jahreszahl",
		"13.04.2019, 19:00:30 - Stefan: Vier-stellige mit Sekunden",
	}, "\n")

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tr.Messages, 2)

	assert.Equal(t, time.Date(2019, 4, 13, 18, 59, 0, 0, time.Local), tr.Messages[0].Timestamp)
	assert.Equal(t, time.Date(2019, 4, 13, 19, 0, 30, 0, time.Local), tr.Messages[1].Timestamp)
}

func TestParseBracketHeaders(t *testing.T) {
	in := "[13.04.2019, 18:59:06] Carolin: Hallo"

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tr.Messages, 1)
	assert.Equal(t, "Carolin", tr.Messages[0].Sender)
	assert.Equal(t, "Hallo", tr.Messages[0].Body)
}

func TestParseContinuationLines(t *testing.T) {
	in := strings.Join([]string{
		"2019-04-13 18:59:06 Carolin: erste Zeile",
		"zweite Zeile",
		"",
		"vierte Zeile",
		"2019-04-13 19:00:00 Stefan: ok",
	}, "\n")

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tr.Messages, 2)

	m := tr.Messages[0]
	assert.Equal(t, "erste Zeile\nzweite Zeile\n\nvierte Zeile", m.Body)
	assert.Equal(t, 4, m.LineCount)
	assert.Equal(t, 1, m.Line)
	assert.Equal(t, 5, tr.Messages[1].Line)
}

func TestParseLeadingStrayLinesDropped(t *testing.T) {
	in := strings.Join([]string{
		"kein Header",
		"2019-04-13 18:59:06 Carolin: Hallo",
	}, "\n")

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tr.Messages, 1)
	assert.Equal(t, "Hallo", tr.Messages[0].Body)
}

func TestParseAttachmentMarker(t *testing.T) {
	in := strings.Join([]string{
		"13.04.19, 18:59 - Carolin: <Anhang: IMG-20190413-WA0001.jpg>",
		"13.04.19, 19:00 - Stefan: Schau mal <attached: video.mp4> hier",
	}, "\n")

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tr.Messages, 2)

	assert.Equal(t, KindAttachment, tr.Messages[0].Kind)
	assert.Equal(t, "IMG-20190413-WA0001.jpg", tr.Messages[0].Attachment)
	assert.Equal(t, "", tr.Messages[0].Body)

	// caption around the marker survives
	assert.Equal(t, KindAttachment, tr.Messages[1].Kind)
	assert.Equal(t, "video.mp4", tr.Messages[1].Attachment)
	assert.Equal(t, "Schau mal  hier", tr.Messages[1].Body)

	assert.Equal(t, []string{"IMG-20190413-WA0001.jpg", "video.mp4"}, tr.AttachmentNames())
}

func TestParseAttachmentMarkerOnContinuationLine(t *testing.T) {
	in := strings.Join([]string{
		"2019-04-13 18:59:06 Carolin:",
		"<Anhang: IMG-0001.jpg>",
	}, "\n")

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tr.Messages, 1)
	assert.Equal(t, KindAttachment, tr.Messages[0].Kind)
	assert.Equal(t, "IMG-0001.jpg", tr.Messages[0].Attachment)
}

func TestParseSystemLines(t *testing.T) {
	in := strings.Join([]string{
		"13.04.19, 18:58 - Nachrichten und Anrufe sind Ende-zu-Ende-verschlüsselt.",
		"13.04.19, 18:59 - Carolin: Hallo",
	}, "\n")

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tr.Messages, 2)

	assert.Equal(t, KindSystem, tr.Messages[0].Kind)
	assert.Equal(t, "", tr.Messages[0].Sender)
	// system events never join the participant set
	assert.Equal(t, []string{"Carolin"}, tr.Participants)
}

func TestParseOwnerPlaceholder(t *testing.T) {
	in := strings.Join([]string{
		"13.04.19, 18:59 - Carolin: Hallo",
		"13.04.19, 19:00 - Du: Hi!",
	}, "\n")

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.True(t, tr.OwnerMasked)
	assert.Equal(t, []string{"Carolin"}, tr.Participants)
}

func TestParseStripsInvisibleRunes(t *testing.T) {
	// iOS exports prefix headers with LRM and use NBSP inside names
	in := "\u200e[13.04.2019, 18:59:06] \u200eCarolin\u00a0Meier: Hallo"

	tr, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tr.Messages, 1)
	assert.Equal(t, "Carolin Meier", tr.Messages[0].Sender)
}

func TestParseEmptyInput(t *testing.T) {
	tr, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, tr.Messages)
	assert.Empty(t, tr.Participants)
}
