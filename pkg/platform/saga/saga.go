// Package saga runs a sequence of steps across stores that cannot share a
// transaction. When a step fails, the steps that already completed are undone
// in reverse order.
package saga

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Step is one unit of work with its compensating action. Undo may be nil for
// the final step, which has nothing after it to fail.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Saga executes steps in order.
type Saga struct {
	name   string
	steps  []Step
	logger *zap.Logger
}

func New(name string, logger *zap.Logger, steps ...Step) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{name: name, steps: steps, logger: logger}
}

// StepError reports which step failed and any compensation failures.
type StepError struct {
	Step       string
	Err        error
	UndoErrors []error
}

func (e *StepError) Error() string {
	if len(e.UndoErrors) == 0 {
		return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step %s failed: %v (compensation errors: %v)", e.Step, e.Err, errors.Join(e.UndoErrors...))
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes the saga. Compensation runs on a context detached from the
// caller's cancellation so a timed-out request still cleans up.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			s.logger.Warn("saga step failed, compensating",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			return &StepError{Step: step.Name, Err: err, UndoErrors: s.compensate(context.WithoutCancel(ctx), i)}
		}
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, failed int) []error {
	var errs []error
	for i := failed - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("undo %s: %w", step.Name, err))
		}
	}
	return errs
}
