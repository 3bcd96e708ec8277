// Package simulated provides a DocumentStore that only waits and succeeds.
// It is the default backend when no real persistence is configured.
package simulated

import (
	"context"
	"fmt"
	"time"

	"docflow/internal/port"
)

type store struct {
	delay time.Duration
}

// NewStore returns a DocumentStore that succeeds after delay.
func NewStore(delay time.Duration) port.DocumentStore {
	return &store{delay: delay}
}

func (s *store) Save(ctx context.Context, input port.SaveInput) (*port.SaveResult, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("simulated.Save: %w", ctx.Err())
		case <-timer.C:
		}
	}
	id := input.Document.ID.String()
	return &port.SaveResult{ID: id, Location: "simulated://" + id}, nil
}
