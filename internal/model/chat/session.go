package chat

// ControlState says which party currently produces visible responses.
type ControlState string

const (
	// StateAIActive: the assistant answers user messages.
	StateAIActive ControlState = "AI_ACTIVE"
	// StateWaiting: escalation requested, no representative present yet.
	// The assistant keeps answering until one joins.
	StateWaiting ControlState = "WAITING_FOR_REPRESENTATIVE"
	// StateWithRepresentative: a human owns the conversation; user
	// messages are logged but never forwarded to the model.
	StateWithRepresentative ControlState = "WITH_REPRESENTATIVE"
)

// SessionInfo is the snapshot attached to every outbound event.
type SessionInfo struct {
	HasEmail                 bool     `json:"hasEmail"`
	Email                    string   `json:"email,omitempty"`
	MessageCount             int      `json:"messageCount"`
	Type                     Role     `json:"type"`
	WaitingForRepresentative bool     `json:"waitingForRepresentative"`
	IsWithRepresentative     bool     `json:"isWithRepresentative"`
	Tags                     []string `json:"tags"`
}
