package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilename(t *testing.T) {
	assert.Equal(t, "Chat-MaxHTML.html", Filename("Chat", VariantMax))
	assert.Equal(t, "Chat-MidHTML.html", Filename("Chat", VariantMid))
	assert.Equal(t, "Chat-mailHTML.html", Filename("Chat", VariantMail))
	assert.Equal(t, "Chat.md", Filename("Chat", VariantMarkdown))
}

func TestRecognizedFilenamesIncludeLegacy(t *testing.T) {
	names := RecognizedFilenames("Chat")
	assert.Contains(t, names, "Chat-MaxHTML.html")
	assert.Contains(t, names, "Chat-FullHTML.html")
	assert.Contains(t, names, "Chat-ThumbHTML.html")
	assert.Contains(t, names, "Chat-TextHTML.html")
	assert.Contains(t, names, "Chat.md")
}

func TestSafeBase(t *testing.T) {
	assert.Equal(t, "WhatsApp-Chat-Carolin_Meier", SafeBase("WhatsApp-Chat-Carolin Meier"))
	assert.Equal(t, "49_171_1234567", SafeBase("+49 171 1234567"))
	assert.Equal(t, "WHATSAPP_CHAT", SafeBase("漢字"))
	assert.Equal(t, "WHATSAPP_CHAT", SafeBase(""))
}
