// Package retry holds the pure retry/backoff decision for failed task
// executions. The policy only decides; scheduling the delayed re-invocation
// belongs to the queue side.
package retry

import (
	"time"

	errpkg "github.com/billzhuang6569/gravity/internal/errors"
)

// Decision is the outcome of consulting the policy after a failed attempt.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// GiveUp is the terminal decision.
var GiveUp = Decision{}

// Policy decides between retry-with-delay and permanent failure.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// NewPolicy returns a policy with the given cap and base delay.
func NewPolicy(maxAttempts int, baseDelay time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// Decide returns the retry decision for a failure on the given attempt
// (0-based). Delay grows as base * 2^attempt. At or beyond the cap the
// decision is always GiveUp, regardless of err. Extraction errors marked
// permanent give up immediately: retrying removed or private media wastes
// every attempt.
func (p Policy) Decide(attempt int, err error) Decision {
	if attempt >= p.MaxAttempts {
		return GiveUp
	}
	if errpkg.IsPermanent(err) {
		return GiveUp
	}
	return Decision{
		Retry: true,
		Delay: p.BaseDelay << attempt,
	}
}
