// Package saga runs a sequence of steps and undoes the completed ones, in
// reverse order, when a later step fails.
//
// Actions and compensations must be idempotent: a failed saga may be retried
// as a whole by the caller.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Step is one unit of a saga. Compensate may be nil.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga is a list of steps executed in order.
type Saga struct {
	name    string
	steps   []Step
	timeout time.Duration

	// onCompensate is told about every compensation that ran.
	onCompensate func(step string, err error)
}

// Option configures a Saga.
type Option func(*Saga)

// WithTimeout bounds the forward actions. Compensation is not bounded by it.
func WithTimeout(d time.Duration) Option {
	return func(s *Saga) { s.timeout = d }
}

// WithCompensationHook registers fn to observe each compensation and its result.
func WithCompensationHook(fn func(step string, err error)) Option {
	return func(s *Saga) { s.onCompensate = fn }
}

// New creates an empty saga.
func New(name string, opts ...Option) *Saga {
	s := &Saga{name: name}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddStep appends a step.
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, Step{Name: name, Action: action, Compensate: compensate})
	return s
}

// Name returns the saga name.
func (s *Saga) Name() string { return s.name }

// StepError reports which step failed. Compensation failures, if any, are
// joined into Err.
type StepError struct {
	Saga  string
	Step  string
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("saga %s: step %d (%s) failed: %v", e.Saga, e.Index, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Execute runs each action in order. On the first failure, or when ctx ends
// between steps, the completed steps are compensated in reverse order and a
// *StepError is returned.
func (s *Saga) Execute(ctx context.Context) error {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	executed := make([]Step, 0, len(s.steps))
	for i, step := range s.steps {
		err := runCtx.Err()
		if err == nil && step.Action != nil {
			err = step.Action(runCtx)
		}
		if err != nil {
			// Compensations must still run after a deadline.
			cerr := s.compensate(context.WithoutCancel(ctx), executed)
			return &StepError{Saga: s.name, Step: step.Name, Index: i, Err: errors.Join(err, cerr)}
		}
		executed = append(executed, step)
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, executed []Step) error {
	var errs []error
	for i := len(executed) - 1; i >= 0; i-- {
		step := executed[i]
		if step.Compensate == nil {
			continue
		}
		err := step.Compensate(ctx)
		if s.onCompensate != nil {
			s.onCompensate(step.Name, err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
