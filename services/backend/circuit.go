package backend

import (
	"sync"
	"time"

	"github.com/trezcool/tutordesk/core"
)

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// breaker stops calling the backend after `threshold` consecutive transient failures,
// and lets one call through once `timeout` has passed.
type breaker struct {
	threshold int
	timeout   time.Duration
	logger    core.Logger

	mu        sync.Mutex
	state     circuitState
	failures  int
	changedAt time.Time
	now       func() time.Time
}

func newBreaker(threshold int, timeout time.Duration, logger core.Logger) *breaker {
	return &breaker{threshold: threshold, timeout: timeout, logger: logger, now: time.Now}
}

func (b *breaker) allow() bool {
	if b.threshold <= 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case circuitOpen:
		if b.now().Sub(b.changedAt) < b.timeout {
			return false
		}
		b.transition(circuitHalfOpen)
		return true
	case circuitHalfOpen:
		// one probe at a time
		return false
	}
	return true
}

// record only counts transient failures; a 4xx means the backend is up.
func (b *breaker) record(err error) {
	if b.threshold <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil || !isRetryable(err) {
		b.failures = 0
		b.transition(circuitClosed)
		return
	}
	b.failures++
	if b.state == circuitHalfOpen || b.failures >= b.threshold {
		b.transition(circuitOpen)
	}
}

func (b *breaker) transition(state circuitState) {
	if b.state == state {
		return
	}
	b.logger.Warn("backend circuit "+b.state.String()+" -> "+state.String(), map[string]interface{}{"failures": b.failures})
	b.state = state
	b.changedAt = b.now()
}

func (b *breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}
