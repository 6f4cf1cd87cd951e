package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightdesk/chatrelay/internal/protocol"
)

func TestDecodePlainText(t *testing.T) {
	d := protocol.Decode("Happy to help with that.")
	assert.Equal(t, "Happy to help with that.", d.Clean)
	assert.Empty(t, d.Tags)
	assert.Equal(t, protocol.EventAIResponse, d.Kind())
}

func TestDecodeSingleTag(t *testing.T) {
	d := protocol.Decode("Connecting you to live support. ⚡realtime⚡")
	assert.Equal(t, "Connecting you to live support.", d.Clean)
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "⚡realtime⚡", d.Tags[0])
	assert.Equal(t, protocol.EventRealtime, d.Kind())
}

func TestDecodeMultipleTagsKeepsOrder(t *testing.T) {
	d := protocol.Decode("I'll connect you. ⚡realtime⚡ ⚡user: john@email.com⚡")
	assert.Equal(t, "I'll connect you.", d.Clean)
	require.Len(t, d.Tags, 2)
	assert.Equal(t, "⚡realtime⚡", d.Tags[0])
	assert.Equal(t, "⚡user: john@email.com⚡", d.Tags[1])
}

func TestDecodeTagInsideSentence(t *testing.T) {
	d := protocol.Decode("What's your budget range? ⚡complete⚡ Let me know.")
	assert.Equal(t, "What's your budget range?  Let me know.", d.Clean)
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "⚡complete⚡", d.Tags[0])
}

func TestDecodeUnmatchedDelimiterIsLiteral(t *testing.T) {
	d := protocol.Decode("Prices start at ⚡99")
	assert.Equal(t, "Prices start at ⚡99", d.Clean)
	assert.Empty(t, d.Tags)
}

func TestDecodeTrailingStrayDelimiterAfterTag(t *testing.T) {
	d := protocol.Decode("Done. ⚡handover⚡ trailing⚡")
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "⚡handover⚡", d.Tags[0])
	assert.Equal(t, "Done.  trailing⚡", d.Clean)
}

func TestDecodeIdempotentOnCleanText(t *testing.T) {
	d := protocol.Decode("See you soon! ⚡appointment⚡ ⚡complete⚡")
	again := protocol.Decode(d.Clean)
	assert.Empty(t, again.Tags)
	assert.Equal(t, d.Clean, again.Clean)
}

func TestKindPrecedence(t *testing.T) {
	cases := []struct {
		name string
		text string
		want protocol.EventKind
	}{
		{"realtime beats appointment", "⚡appointment⚡ ⚡realtime⚡", protocol.EventRealtime},
		{"realtime beats handover", "⚡handover⚡ ⚡realtime⚡", protocol.EventRealtime},
		{"appointment beats handover", "⚡handover⚡ ⚡appointment⚡", protocol.EventAppointment},
		{"handover alone", "welcome aboard ⚡handover⚡", protocol.EventHandover},
		{"unknown tags fall through", "⚡email⚡ ⚡complete⚡", protocol.EventAIResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, protocol.Decode(tc.text).Kind())
		})
	}
}

func TestHasMatchesPayloadTags(t *testing.T) {
	d := protocol.Decode("⚡user: a@b.com⚡")
	assert.True(t, d.Has("user"))
	assert.False(t, d.Has("realtime"))
}

func TestNameAndWrapRoundTrip(t *testing.T) {
	assert.Equal(t, "ai-resume", protocol.Name(protocol.Wrap("ai-resume")))
}
