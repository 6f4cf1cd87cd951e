package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/brightdesk/chatrelay/internal/model/chat"
	"github.com/brightdesk/chatrelay/internal/protocol"
)

// summaryWindow is how many trailing history entries the synthesized
// handover message summarizes for the joining representative.
const summaryWindow = 5

// WithRepresentativeNotice is returned to users whose messages arrive
// while a human owns the conversation.
const WithRepresentativeNotice = "You are now chatting with a representative."

// All methods below run under the session lock.

// NoteRealtime moves AI_ACTIVE to WAITING_FOR_REPRESENTATIVE when the
// generated reply carried a realtime tag. Any other state is left alone.
func (s *Session) NoteRealtime() {
	if s.State == chat.StateAIActive {
		s.State = chat.StateWaiting
	}
}

// JoinRepresentative hands the conversation to a human. Legal from
// AI_ACTIVE and WAITING; a join while already WITH_REPRESENTATIVE is a
// no-op. On transition it synthesizes an assistant-role handover message
// summarizing the recent transcript, appends it to history and returns it
// for broadcast.
func (s *Session) JoinRepresentative() (chat.Message, bool) {
	if s.State == chat.StateWithRepresentative {
		return chat.Message{}, false
	}
	s.State = chat.StateWithRepresentative

	msg := chat.Message{
		Role: chat.RoleAssistant,
		Content: fmt.Sprintf(
			"A representative has joined the conversation. Here's a summary of the chat so far: %s %s",
			summarize(s.History.Last(summaryWindow)),
			protocol.Wrap(protocol.TagHandover),
		),
		Timestamp: time.Now().UTC(),
	}
	s.History.Append(msg)
	return msg, true
}

// LeaveRepresentative returns control to the assistant. Only legal from
// WITH_REPRESENTATIVE; a leave on an already AI_ACTIVE session fires
// nothing. On transition it synthesizes the resume message, appends it
// and returns it for broadcast.
func (s *Session) LeaveRepresentative() (chat.Message, bool) {
	if s.State != chat.StateWithRepresentative {
		return chat.Message{}, false
	}
	s.State = chat.StateAIActive

	msg := chat.Message{
		Role: chat.RoleAssistant,
		Content: fmt.Sprintf(
			"The representative has left the conversation. Is there anything else I can help you with? %s",
			protocol.Wrap(protocol.TagAIResume),
		),
		Timestamp: time.Now().UTC(),
	}
	s.History.Append(msg)
	return msg, true
}

func summarize(entries []chat.Message) string {
	parts := make([]string, 0, len(entries))
	for _, m := range entries {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(parts, " | ")
}
