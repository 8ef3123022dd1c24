// Package service holds the per-target aggregation orchestrators. Each one
// acquires a snapshot once, fans independent section tasks out over it, and
// assembles a result that is always schema-valid: failed sections carry their
// documented default instead of failing the request.
package service

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/metrics"
)

// runSection runs one analysis task on its own goroutine. A returned error or
// a panic downgrades the section to its fallback value; nothing a task does
// can fail the overall result.
func runSection[T any](wg *sync.WaitGroup, logger *zap.Logger, target, name string, dst *T, fallback T, fn func() (T, error)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		value, err := func() (v T, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("section panic: %v", r)
				}
			}()
			return fn()
		}()
		if err != nil {
			logger.Warn("section failed, using default",
				zap.String("target", target),
				zap.String("section", name),
				zap.Error(err),
			)
			metrics.ObserveSectionFallback(target, name)
			*dst = fallback
			return
		}
		*dst = value
	}()
}
