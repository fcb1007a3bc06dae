// Package worker offloads CPU-heavy work to a background goroutine so the
// gateway's request handlers stay responsive.
package worker

import (
	"context"
	"math"
	"time"

	"github.com/pibot-ai/pibot/pkg/logger"
)

// TaskResult is the outcome of one background computation.
type TaskResult struct {
	Result   float64       `json:"result"`
	Duration time.Duration `json:"-"`
	Millis   int64         `json:"durationMs"`
}

// RunHeavyTask runs a synthetic CPU-bound computation in its own goroutine
// and waits for it to finish or for ctx to be cancelled.
func RunHeavyTask(ctx context.Context, iterations int) (TaskResult, error) {
	if iterations <= 0 {
		iterations = 50_000_000
	}

	done := make(chan TaskResult, 1)
	go func() {
		start := time.Now()
		var acc float64
		for i := 0; i < iterations; i++ {
			acc += math.Sqrt(float64(i))
		}
		done <- TaskResult{
			Result:   acc,
			Duration: time.Since(start),
			Millis:   time.Since(start).Milliseconds(),
		}
	}()

	select {
	case res := <-done:
		logger.DebugCF("worker", "Heavy task finished", map[string]any{
			"iterations":  iterations,
			"duration_ms": res.Millis,
		})
		return res, nil
	case <-ctx.Done():
		return TaskResult{}, ctx.Err()
	}
}
