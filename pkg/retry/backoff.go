package retry

import "time"

// ExponentialBackoff waits base, 2*base, 4*base, ...
func ExponentialBackoff(base time.Duration) Strategy {
	return func(attempt int) time.Duration {
		return base * (1 << (attempt - 1))
	}
}

// Constant waits d between every attempt.
func Constant(d time.Duration) Strategy {
	return func(int) time.Duration { return d }
}
