package client

import (
	"context"
	"time"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

type LocationFunc func(ctx context.Context) (Coordinates, error)

// AcquireLocation races the device location request against a fixed
// delay and falls back to the given coordinate on timeout or error.
// The request goroutine is cancelled once the race is decided.
func AcquireLocation(ctx context.Context, fn LocationFunc, timeout time.Duration, fallback Coordinates) Coordinates {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		coords Coordinates
		err    error
	}

	ch := make(chan result, 1)
	go func() {
		coords, err := fn(ctx)
		ch <- result{coords, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return fallback
		}
		return res.coords
	case <-ctx.Done():
		return fallback
	}
}
