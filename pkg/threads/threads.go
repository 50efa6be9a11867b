// Package threads maps logical thread keys onto chat-platform conversation
// threads and retires old ones.
//
// Thread identity is externally authoritative: the resolver always re-resolves
// by exact name against the platform's active thread list instead of trusting
// a long-lived local handle.
package threads

import (
	"context"
	"fmt"
	"time"
)

// Thread is a chat-platform thread handle.
type Thread struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Service is the chat-platform boundary the bridge depends on. The production
// implementation lives in pkg/discord; tests use in-memory fakes.
type Service interface {
	// ActiveThreads lists the channel's non-archived threads.
	ActiveThreads(ctx context.Context, channelID string) ([]Thread, error)

	// CreateThread starts a new thread in the channel.
	CreateThread(ctx context.Context, channelID, name string) (Thread, error)

	// Send posts text into a thread and returns the platform message id.
	Send(ctx context.Context, threadID, text string) (string, error)

	// ArchivedThreads lists the channel's archived threads.
	ArchivedThreads(ctx context.Context, channelID string) ([]Thread, error)

	// DeleteThread permanently removes a thread.
	DeleteThread(ctx context.Context, threadID string) error
}

// BuildName derives the deterministic thread name for a thread key: messages
// on the same key land in the same thread within the same day bucket.
func BuildName(prefix string, day time.Time, key string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, day.UTC().Format("2006-01-02"), key)
}
