package qa

import (
	"context"
	"time"
)

// pollConfig bounds a polling loop: at most MaxAttempts checks spaced
// Interval apart.
type pollConfig struct {
	Interval    time.Duration
	MaxAttempts int
	// Sleep is swappable in tests. Nil means time.Sleep honoring ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// poll calls check until it reports done, an error, or the attempt budget
// is exhausted. Exhaustion returns ErrTimeout.
func poll(ctx context.Context, cfg pollConfig, check func(ctx context.Context) (done bool, err error)) error {
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := sleep(ctx, cfg.Interval); err != nil {
			return err
		}
	}
	return ErrTimeout
}
