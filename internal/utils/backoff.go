package utils

import "time"

// Backoff retries fn with exponential delays: base, 2*base, 4*base...
// The last error wins. Used for the initial database ping, where the
// dependency may still be coming up.
type Backoff struct {
	base       time.Duration
	maxRetries int
}

func NewBackoff(base time.Duration, maxRetries int) Backoff {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	return Backoff{base: base, maxRetries: maxRetries}
}

func (b Backoff) Do(fn func(attempt int) error) error {
	var err error
	for i := 0; i <= b.maxRetries; i++ {
		if err = fn(i); err == nil {
			return nil
		}
		if i < b.maxRetries {
			time.Sleep(time.Duration(1<<i) * b.base)
		}
	}
	return err
}
