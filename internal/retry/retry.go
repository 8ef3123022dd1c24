// Package retry wraps fallible external calls in a bounded, deterministic
// exponential backoff policy. Every acquisition client goes through Do so
// transient-versus-fatal handling stays uniform across backends.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/insight"
)

// Policy holds the backoff knobs. All values come from configuration; the
// zero value is not usable, construct via New or fill every field.
type Policy struct {
	MaxAttempts int
	InitialWait time.Duration
	Multiplier  float64
	MaxWait     time.Duration
}

// New returns a policy with the service defaults.
func New() Policy {
	return Policy{
		MaxAttempts: 3,
		InitialWait: 2 * time.Second,
		Multiplier:  1.5,
		MaxWait:     10 * time.Second,
	}
}

// Wait returns the pause before attempt k (1-based). Attempt 1 runs
// immediately; attempt k>=2 waits min(InitialWait * Multiplier^(k-2), MaxWait).
func (p Policy) Wait(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := float64(p.InitialWait) * math.Pow(p.Multiplier, float64(attempt-2))
	if d > float64(p.MaxWait) {
		d = float64(p.MaxWait)
	}
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

// Do executes op under the policy. Retryable failures are re-attempted up to
// MaxAttempts total invocations; fatal failures and context cancellation
// surface immediately. After exhaustion the last error is returned as-is.
func Do(ctx context.Context, logger *zap.Logger, name string, p Policy, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			wait := p.Wait(attempt)
			logger.Warn("retrying operation",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", p.MaxAttempts),
				zap.Duration("backoff", wait),
				zap.Error(lastErr),
			)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("operation recovered",
					zap.String("operation", name),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}
		if !insight.IsRetryable(lastErr) {
			logger.Debug("non-retryable failure",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			return lastErr
		}
	}
	logger.Error("operation failed after all attempts",
		zap.String("operation", name),
		zap.Int("attempts", p.MaxAttempts),
		zap.Error(lastErr),
	)
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
