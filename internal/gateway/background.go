package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"linkhub-gateway/internal/logger"
)

// DefaultBackgroundTimeout bounds fire-and-forget writes.
const DefaultBackgroundTimeout = 5 * time.Second

// Background runs side effects that must never block or fail a response.
// Panics and errors are logged and dropped.
type Background struct {
	wg      sync.WaitGroup
	timeout time.Duration
	log     *logger.Logger
}

func NewBackground(timeout time.Duration, log *logger.Logger) *Background {
	if timeout <= 0 {
		timeout = DefaultBackgroundTimeout
	}
	return &Background{timeout: timeout, log: log}
}

// Go starts fn on a fresh context detached from the request.
func (b *Background) Go(task string, fn func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.LogError("background task panicked", fmt.Errorf("%v", r), map[string]interface{}{"task": task})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			b.log.Warn(logger.EventError, "background task failed", map[string]interface{}{
				"task":  task,
				"error": err.Error(),
			})
		}
	}()
}

// Wait blocks until every started task has returned.
func (b *Background) Wait() {
	b.wg.Wait()
}
