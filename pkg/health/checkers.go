package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than limit goroutines are running.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines running, limit is %d", n, limit)
		}
		return nil
	}
}

// LoadedCheck fails until generation reports a non-zero value, i.e. until
// the first successful data load.
func LoadedCheck(generation func() uint64) CheckFunc {
	return func(context.Context) error {
		if generation() == 0 {
			return errors.New("catalog not loaded")
		}
		return nil
	}
}

// PingCheck adapts a Ping method such as pgxpool.Pool.Ping.
func PingCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}
