// Package protocol implements the control-tag sub-protocol embedded in
// generated text: out-of-band instructions wrapped in a fixed delimiter,
// e.g. "⚡realtime⚡", that must be parsed and stripped before display.
package protocol

import "strings"

// TagSymbol delimits control tags on both sides.
const TagSymbol = "⚡"

// Known tag names.
const (
	TagRealtime    = "realtime"
	TagAppointment = "appointment"
	TagHandover    = "handover"
	TagAIResume    = "ai-resume"
	TagComplete    = "complete"
	TagEmail       = "email"
)

// EventKind is the outbound event name derived from decoded tags.
type EventKind string

const (
	EventAIResponse  EventKind = "ai-response"
	EventRealtime    EventKind = "realtime"
	EventAppointment EventKind = "appointment"
	EventHandover    EventKind = "handover"
)

// Decoded is the result of scanning generated text for control tags.
type Decoded struct {
	// Clean is the input with every tag run removed and surrounding
	// whitespace trimmed.
	Clean string
	// Tags lists matched tags in original order, delimiters included.
	Tags []string
}

// Decode scans text for delimiter-wrapped tags. The scan is greedy and
// non-nested: each maximal substring between two delimiter occurrences
// that does not itself contain the delimiter is one tag. An unmatched
// trailing delimiter is literal text, never a tag boundary.
func Decode(text string) Decoded {
	var (
		clean strings.Builder
		tags  []string
	)
	rest := text
	for {
		open := strings.Index(rest, TagSymbol)
		if open < 0 {
			clean.WriteString(rest)
			break
		}
		after := open + len(TagSymbol)
		next := strings.Index(rest[after:], TagSymbol)
		if next < 0 {
			// stray delimiter with no partner
			clean.WriteString(rest)
			break
		}
		clean.WriteString(rest[:open])
		end := after + next + len(TagSymbol)
		tags = append(tags, rest[open:end])
		rest = rest[end:]
	}
	return Decoded{Clean: strings.TrimSpace(clean.String()), Tags: tags}
}

// Name strips the delimiters off a matched tag.
func Name(tag string) string {
	return strings.TrimSuffix(strings.TrimPrefix(tag, TagSymbol), TagSymbol)
}

// Has reports whether a tag with the given name was decoded. A tag
// matches on its name alone or on a "name: value" payload prefix.
func (d Decoded) Has(name string) bool {
	for _, tag := range d.Tags {
		inner := Name(tag)
		if inner == name || strings.HasPrefix(inner, name+":") {
			return true
		}
	}
	return false
}

// Kind resolves the outbound event kind for the decoded tags. When a
// message carries several tags only the highest-precedence one decides
// routing: realtime > appointment > handover > plain response. All tags
// stay available as metadata regardless.
func (d Decoded) Kind() EventKind {
	switch {
	case d.Has(TagRealtime):
		return EventRealtime
	case d.Has(TagAppointment):
		return EventAppointment
	case d.Has(TagHandover):
		return EventHandover
	default:
		return EventAIResponse
	}
}

// Wrap formats a tag name with delimiters, for synthesized messages.
func Wrap(name string) string {
	return TagSymbol + name + TagSymbol
}
