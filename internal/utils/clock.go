package utils

import "time"

// Clock abstracts "now" so booking validation does not depend on the
// host's wall clock being right. Production uses SystemClock; tests pin
// a fixed instant.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
