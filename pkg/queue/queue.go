// Package queue provides the persistent outbound work queue.
//
// Socket readers push delivery items and a single consumer loop pops them, so
// a slow or unavailable chat platform never blocks a TCP read path. The
// backing store is a single Redis list used as a FIFO: push appends with
// RPUSH, pop blocks on BLPOP.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the backing store could not be reached. On push
// the caller logs and drops the item; on pop the consumer loop retries after
// a fixed backoff.
var ErrUnavailable = errors.New("queue backend unavailable")

// Item is one pending outbound delivery.
type Item struct {
	// ThreadName is the fully qualified thread name, derived from the
	// record's thread key plus the date bucket and fixed prefix.
	ThreadName string `json:"threadName"`
	Text       string `json:"text"`
	// SourceConnectionID identifies the TCP connection the item came from.
	SourceConnectionID string `json:"sourceConnectionId"`
	Bidirectional      bool   `json:"isBidirectional"`
	// ChannelID optionally overrides the default destination channel.
	ChannelID string `json:"channelId,omitempty"`
}

// Queue is the FIFO boundary between ingestion and delivery.
type Queue interface {
	// Enqueue appends an item. Returns ErrUnavailable when the backend
	// cannot be reached.
	Enqueue(ctx context.Context, item Item) error

	// Dequeue removes and returns the oldest item, blocking up to timeout.
	// ok is false when the queue stayed empty for the whole timeout.
	Dequeue(ctx context.Context, timeout time.Duration) (item Item, ok bool, err error)

	Close() error
}
