package threads

import (
	"context"
	"strings"
	"time"

	"github.com/adhocore/gronx"

	"github.com/tinyland-inc/bridgeclaw/pkg/logger"
)

// Sweeper deletes archived bridge threads older than the retention window.
// Only threads whose name carries the bridge prefix are touched; anything
// else in the channel is left alone.
type Sweeper struct {
	svc       Service
	channelID string
	prefix    string
	retention time.Duration
	schedule  string
	gron      *gronx.Gronx
	now       func() time.Time
}

func NewSweeper(svc Service, channelID, prefix string, retention time.Duration, schedule string) *Sweeper {
	return &Sweeper{
		svc:       svc,
		channelID: channelID,
		prefix:    prefix,
		retention: retention,
		schedule:  schedule,
		gron:      gronx.New(),
		now:       time.Now,
	}
}

// Expired returns the archived bridge threads older than the retention
// window, without deleting anything.
func (s *Sweeper) Expired(ctx context.Context) ([]Thread, error) {
	archived, err := s.svc.ArchivedThreads(ctx, s.channelID)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-s.retention)
	var expired []Thread
	for _, t := range archived {
		if !strings.HasPrefix(t.Name, s.prefix+"-") {
			continue
		}
		if !t.CreatedAt.Before(cutoff) {
			continue
		}
		expired = append(expired, t)
	}
	return expired, nil
}

// Sweep performs one pass and returns how many threads were deleted.
// Per-thread failures are logged and do not abort the rest of the pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	expired, err := s.Expired(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, t := range expired {
		if err := s.svc.DeleteThread(ctx, t.ID); err != nil {
			logger.ErrorCF("sweeper", "Failed to delete thread", map[string]any{
				"thread_id": t.ID,
				"name":      t.Name,
				"error":     err.Error(),
			})
			continue
		}
		deleted++
		logger.InfoCF("sweeper", "Deleted expired thread", map[string]any{
			"thread_id": t.ID,
			"name":      t.Name,
			"age":       s.now().Sub(t.CreatedAt).Round(time.Hour).String(),
		})
	}
	return deleted, nil
}

// Run sweeps whenever the cron schedule fires, checked once a minute, until
// the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due, err := s.gron.IsDue(s.schedule)
			if err != nil {
				logger.ErrorCF("sweeper", "Invalid sweep schedule", map[string]any{
					"schedule": s.schedule,
					"error":    err.Error(),
				})
				return
			}
			if !due {
				continue
			}
			if _, err := s.Sweep(ctx); err != nil {
				logger.ErrorCF("sweeper", "Sweep failed", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}
}
