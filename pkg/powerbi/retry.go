package powerbi

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/opencatalog/powerbi-connector/pkg/pbierrors"
)

// retryPolicy retries transient API failures with exponential backoff and
// jitter. Only errors pbierrors.IsRetryable accepts are retried; config and
// authentication errors surface immediately.
type retryPolicy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       float64
}

func defaultRetryPolicy() *retryPolicy {
	return &retryPolicy{
		maxAttempts:  3,
		initialDelay: 1 * time.Second,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		jitter:       0.25,
	}
}

// noRetry performs a single attempt. Used by tests.
func noRetry() *retryPolicy {
	return &retryPolicy{maxAttempts: 1}
}

func (p *retryPolicy) do(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !pbierrors.IsRetryable(err) || attempt == p.maxAttempts-1 {
			return lastErr
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return pbierrors.Wrap(ctx.Err(), pbierrors.ErrorTypeTimeout, "retry cancelled")
		case <-timer.C:
		}
	}
	return lastErr
}

func (p *retryPolicy) delay(attempt int) time.Duration {
	d := float64(p.initialDelay) * math.Pow(p.multiplier, float64(attempt))
	if d > float64(p.maxDelay) {
		d = float64(p.maxDelay)
	}
	if p.jitter > 0 {
		delta := d * p.jitter
		d = d - delta + rand.Float64()*2*delta
	}
	return time.Duration(d)
}
