package threads

import (
	"context"
	"fmt"

	"github.com/tinyland-inc/bridgeclaw/pkg/logger"
)

// Resolver maps fully qualified thread names to existing or newly created
// threads.
type Resolver struct {
	svc Service
}

func NewResolver(svc Service) *Resolver {
	return &Resolver{svc: svc}
}

// ResolveOrCreate returns the channel's thread with exactly the given name,
// creating it when absent. Repeated calls with the same name within one
// archival window return the same thread identity.
func (r *Resolver) ResolveOrCreate(ctx context.Context, channelID, name string) (Thread, error) {
	active, err := r.svc.ActiveThreads(ctx, channelID)
	if err != nil {
		return Thread{}, fmt.Errorf("listing active threads: %w", err)
	}

	for _, t := range active {
		if t.Name == name {
			return t, nil
		}
	}

	t, err := r.svc.CreateThread(ctx, channelID, name)
	if err != nil {
		return Thread{}, fmt.Errorf("creating thread %q: %w", name, err)
	}

	logger.InfoCF("threads", "Created thread", map[string]any{
		"thread_id":  t.ID,
		"name":       name,
		"channel_id": channelID,
	})
	return t, nil
}
