package chat

import "time"

// History is the append-only message log of one session. Entries are never
// reordered or mutated after append; insertion order is replayed to the
// language model and shown to representatives, so it is load-bearing.
type History struct {
	entries []Message
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{entries: make([]Message, 0, 16)}
}

// HistoryFrom builds a history from persisted entries, preserving order.
func HistoryFrom(entries []Message) *History {
	h := &History{entries: make([]Message, len(entries))}
	copy(h.entries, entries)
	return h
}

// Append adds a message at the end. A zero timestamp is filled in, and
// timestamps are clamped so they never decrease within one history.
func (h *History) Append(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if n := len(h.entries); n > 0 && msg.Timestamp.Before(h.entries[n-1].Timestamp) {
		msg.Timestamp = h.entries[n-1].Timestamp
	}
	h.entries = append(h.entries, msg)
}

// Len reports the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Last returns up to n most recent entries, oldest first.
func (h *History) Last(n int) []Message {
	start := 0
	if len(h.entries) > n {
		start = len(h.entries) - n
	}
	out := make([]Message, len(h.entries)-start)
	copy(out, h.entries[start:])
	return out
}

// Snapshot copies the full log.
func (h *History) Snapshot() []Message {
	out := make([]Message, len(h.entries))
	copy(out, h.entries)
	return out
}

// Replace swaps the log for persisted entries. Used exactly once per
// session, when an email binds to an existing record.
func (h *History) Replace(entries []Message) {
	h.entries = make([]Message, len(entries))
	copy(h.entries, entries)
}
