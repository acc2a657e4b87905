package retry

import (
	"context"
	"time"
)

// Scope is a retry guard for code that cannot be wrapped as a single call. The caller owns the
// loop:
//
//	s := retry.NewScope(retry.WithPolicy(p))
//	for s.Active() {
//		s.Enter()
//		v, err := step()
//		if err == nil {
//			return v, nil
//		}
//		if err := s.Exit(err); err != nil {
//			return nil, err
//		}
//	}
//	return nil, s.Err()
//
// A Scope is not safe for concurrent use.
type Scope struct {
	cfg     *config
	x       *execution
	attempt int
	last    error
	done    bool
}

// NewScope creates a guard with the same options as the executors.
func NewScope(opts ...Option) *Scope {
	c := newConfig(opts)
	return &Scope{cfg: c, x: c.start()}
}

// Active reports whether the caller's loop should enter the guard again.
func (s *Scope) Active() bool {
	return !s.done && s.attempt <= s.cfg.policy.MaxRetries
}

// Attempt returns the 0-indexed attempt the next Enter starts.
func (s *Scope) Attempt() int {
	return s.attempt
}

// Enter marks the start of an attempt. It has no effect and returns the attempt index.
func (s *Scope) Enter() int {
	return s.attempt
}

// Exit settles the attempt. A nil err is a no-op. A retryable failure with attempts left waits
// for the policy delay and is suppressed by returning nil. Any other failure is returned
// unchanged and deactivates the scope.
func (s *Scope) Exit(err error) error {
	return s.exit(err, func(d time.Duration) error {
		time.Sleep(d)
		return nil
	})
}

// ExitContext is Exit with a wait that ends early when ctx is done. In that case the scope is
// deactivated and a *CanceledError is returned.
func (s *Scope) ExitContext(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		s.last = err
		s.done = true
		return s.x.canceled(ctx, s.attempt+1, err)
	}
	return s.exit(err, func(d time.Duration) error {
		if sleepContext(ctx, d) != nil {
			s.done = true
			return s.x.canceled(ctx, s.attempt+1, err)
		}
		return nil
	})
}

func (s *Scope) exit(err error, wait func(time.Duration) error) error {
	if err == nil {
		return nil
	}
	s.last = err

	delay, ok := s.x.next(s.attempt, err)
	if !ok {
		s.done = true
		return err
	}
	if werr := wait(delay); werr != nil {
		return werr
	}
	s.attempt++
	return nil
}

// Err returns the last failure passed to Exit.
func (s *Scope) Err() error {
	return s.last
}

// Reset rewinds the guard for a new execution with the same options.
func (s *Scope) Reset() {
	s.x = s.cfg.start()
	s.attempt = 0
	s.last = nil
	s.done = false
}
