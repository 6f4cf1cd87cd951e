// Package store persists session transcripts keyed by customer email.
// Persistence is best-effort and eventually consistent: a failed upsert is
// logged by the caller, never surfaced to the user.
package store

import (
	"context"
	"errors"

	"github.com/brightdesk/chatrelay/internal/model/chat"
)

// ErrNotFound is returned when no record exists for an email.
var ErrNotFound = errors.New("session record not found")

// SessionRecord is the durable form of a session.
type SessionRecord struct {
	Email   string         `json:"email"`
	RoomKey string         `json:"roomId"`
	History []chat.Message `json:"chatHistory"`
}

// Gateway is the persistence interface the router consumes.
type Gateway interface {
	// FindByEmail loads the record for an email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (SessionRecord, error)
	// UpsertByEmail writes the record, inserting or replacing by email.
	UpsertByEmail(ctx context.Context, rec SessionRecord) error
	// List returns all stored records, for the customers endpoint.
	List(ctx context.Context) ([]SessionRecord, error)
}
