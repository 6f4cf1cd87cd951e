package chat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightdesk/chatrelay/internal/model/chat"
)

func TestHistoryAppendPreservesOrder(t *testing.T) {
	h := chat.NewHistory()
	h.Append(chat.Message{Role: chat.RoleUser, Content: "first"})
	h.Append(chat.Message{Role: chat.RoleAssistant, Content: "second"})
	h.Append(chat.Message{Role: chat.RoleUser, Content: "third"})

	got := h.Snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
	assert.Equal(t, "third", got[2].Content)
}

func TestHistoryTimestampsNeverDecrease(t *testing.T) {
	h := chat.NewHistory()
	now := time.Now().UTC()
	h.Append(chat.Message{Role: chat.RoleUser, Content: "a", Timestamp: now})
	// restored persisted clocks can lag; the log still stays monotonic
	h.Append(chat.Message{Role: chat.RoleUser, Content: "b", Timestamp: now.Add(-time.Minute)})
	h.Append(chat.Message{Role: chat.RoleUser, Content: "c"})

	got := h.Snapshot()
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Timestamp.Before(got[i-1].Timestamp),
			"timestamp at %d went backwards", i)
	}
}

func TestHistoryLastWindow(t *testing.T) {
	h := chat.NewHistory()
	for _, c := range []string{"1", "2", "3"} {
		h.Append(chat.Message{Role: chat.RoleUser, Content: c})
	}

	last := h.Last(2)
	require.Len(t, last, 2)
	assert.Equal(t, "2", last[0].Content)
	assert.Equal(t, "3", last[1].Content)

	assert.Len(t, h.Last(10), 3)
}

func TestHistoryReplace(t *testing.T) {
	h := chat.NewHistory()
	h.Append(chat.Message{Role: chat.RoleUser, Content: "live"})

	h.Replace([]chat.Message{
		{Role: chat.RoleUser, Content: "persisted-1", Timestamp: time.Now().UTC()},
		{Role: chat.RoleAssistant, Content: "persisted-2", Timestamp: time.Now().UTC()},
	})

	got := h.Snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "persisted-1", got[0].Content)
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	h := chat.NewHistory()
	h.Append(chat.Message{Role: chat.RoleUser, Content: "original"})

	snap := h.Snapshot()
	snap[0].Content = "mutated"

	assert.Equal(t, "original", h.Snapshot()[0].Content)
}
