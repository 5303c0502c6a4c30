// Package hitlimit detects runaway loops in code executing inside the test
// runner's own process by counting executed statements against a budget.
package hitlimit

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
)

// EnvHitLimit carries the hit budget to instrumented test processes.
const EnvHitLimit = "MUTEXEC_HIT_LIMIT"

// ErrHitLimitReached is matched by every *LimitError.
var ErrHitLimitReached = errors.New("hit limit reached")

// LimitError is raised (as a panic value) by Guard.Hit once the budget is spent.
type LimitError struct {
	Hits  int64
	Limit int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("Hit limit reached (%d/%d)", e.Hits, e.Limit)
}

// Is makes errors.Is(err, ErrHitLimitReached) hold.
func (e *LimitError) Is(target error) bool {
	return target == ErrHitLimitReached
}

// Guard is a shared hit counter with a budget. The zero value is inert.
type Guard struct {
	hits  atomic.Int64
	limit atomic.Int64
}

// Default is the guard instrumented code reports to.
var Default = &Guard{}

// Activate resets the counter and arms the guard with limit. A limit of zero
// or less leaves the guard inert.
func (g *Guard) Activate(limit int64) {
	g.limit.Store(0)
	g.hits.Store(0)

	if limit > 0 {
		g.limit.Store(limit)
	}
}

// Deactivate returns the guard to its inert state.
func (g *Guard) Deactivate() {
	g.limit.Store(0)
	g.hits.Store(0)
}

// Active reports whether a budget is armed.
func (g *Guard) Active() bool {
	return g.limit.Load() > 0
}

// Hits returns the number of hits counted since the last Activate.
func (g *Guard) Hits() int64 {
	return g.hits.Load()
}

// Hit counts one executed statement and panics with a *LimitError when the
// armed budget is exceeded.
func (g *Guard) Hit() {
	limit := g.limit.Load()
	if limit <= 0 {
		return
	}

	if hits := g.hits.Add(1); hits > limit {
		panic(&LimitError{Hits: hits, Limit: limit})
	}
}

// ActivateFromEnv arms g with the budget found in EnvHitLimit, if any.
func (g *Guard) ActivateFromEnv() error {
	raw, ok := os.LookupEnv(EnvHitLimit)
	if !ok || raw == "" {
		g.Deactivate()
		return nil
	}

	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", EnvHitLimit, err)
	}

	g.Activate(limit)

	return nil
}

// Recover turns a recovered panic value into a *LimitError if it is one.
func Recover(r any) (*LimitError, bool) {
	if r == nil {
		return nil, false
	}

	err, ok := r.(error)
	if !ok {
		return nil, false
	}

	var limitErr *LimitError
	if errors.As(err, &limitErr) {
		return limitErr, true
	}

	return nil, false
}
