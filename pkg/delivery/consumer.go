// Package delivery runs the single consumer loop that drains the work queue
// into chat-platform threads.
//
// One loop, one consumer: global FIFO order for queued deliveries regardless
// of which connection produced them. Failures are logged and the item is
// dropped; nothing here may crash the process.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/tinyland-inc/bridgeclaw/pkg/logger"
	"github.com/tinyland-inc/bridgeclaw/pkg/queue"
	"github.com/tinyland-inc/bridgeclaw/pkg/router"
	"github.com/tinyland-inc/bridgeclaw/pkg/threads"
)

const (
	// pollTimeout bounds each blocking pop so shutdown stays responsive.
	pollTimeout = time.Second
	// failureDelay throttles the loop after a backend error.
	failureDelay = 2 * time.Second
)

// Consumer pops queue items and delivers them into threads.
type Consumer struct {
	queue     queue.Queue
	resolver  *threads.Resolver
	svc       threads.Service
	router    *router.Router
	channelID string // default destination channel
}

func NewConsumer(q queue.Queue, svc threads.Service, r *router.Router, channelID string) *Consumer {
	return &Consumer{
		queue:     q,
		resolver:  threads.NewResolver(svc),
		svc:       svc,
		router:    r,
		channelID: channelID,
	}
}

// Run drains the queue until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	logger.InfoC("delivery", "Consumer loop started")

	for {
		select {
		case <-ctx.Done():
			logger.InfoC("delivery", "Consumer loop stopped")
			return
		default:
		}

		item, ok, err := c.queue.Dequeue(ctx, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.ErrorCF("delivery", "Dequeue failed", map[string]any{
				"error": err.Error(),
			})
			select {
			case <-time.After(failureDelay):
			case <-ctx.Done():
				return
			}
			continue
		}
		if !ok {
			continue
		}

		if err := c.Deliver(ctx, item); err != nil {
			logger.ErrorCF("delivery", "Delivery failed, item dropped", map[string]any{
				"thread": item.ThreadName,
				"error":  err.Error(),
			})
		}
	}
}

// Deliver resolves the item's thread, sends its text, and for bidirectional
// items binds the thread back to the source connection so replies can find
// their way home.
func (c *Consumer) Deliver(ctx context.Context, item queue.Item) error {
	channelID := item.ChannelID
	if channelID == "" {
		channelID = c.channelID
	}

	th, err := c.resolver.ResolveOrCreate(ctx, channelID, item.ThreadName)
	if err != nil {
		return fmt.Errorf("resolving thread: %w", err)
	}

	if _, err := c.svc.Send(ctx, th.ID, item.Text); err != nil {
		return fmt.Errorf("sending to thread %s: %w", th.ID, err)
	}

	if item.Bidirectional {
		if !c.router.BindThread(th.ID, item.SourceConnectionID) {
			// The connection disconnected while its item sat in the
			// queue; the message is delivered anyway and any reply
			// will be dropped with a "no matching socket" log.
			logger.InfoCF("delivery", "Source connection gone, reply route not bound", map[string]any{
				"thread_id": th.ID,
				"conn_id":   item.SourceConnectionID,
			})
		}
	}
	return nil
}
