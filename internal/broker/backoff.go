package broker

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// linearBackOff waits base×attempt between attempts, capped at max. After
// maxAttempts waits it reports backoff.Stop, which the connect loop treats
// as an exhausted retry budget.
type linearBackOff struct {
	base        time.Duration
	max         time.Duration
	maxAttempts int

	attempts int
}

var _ backoff.BackOff = (*linearBackOff)(nil)

func newLinearBackOff(base, max time.Duration, maxAttempts int) *linearBackOff {
	return &linearBackOff{base: base, max: max, maxAttempts: maxAttempts}
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempts++
	if b.maxAttempts > 0 && b.attempts > b.maxAttempts {
		return backoff.Stop
	}

	wait := time.Duration(b.attempts) * b.base
	if wait > b.max {
		wait = b.max
	}
	return wait
}

func (b *linearBackOff) Reset() {
	b.attempts = 0
}
