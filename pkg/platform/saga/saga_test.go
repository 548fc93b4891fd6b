package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(log *[]string, name string, fail error) Step {
	return Step{
		Name: name,
		Do: func(context.Context) error {
			*log = append(*log, "do:"+name)
			return fail
		},
		Undo: func(context.Context) error {
			*log = append(*log, "undo:"+name)
			return nil
		},
	}
}

func TestSaga_AllStepsSucceed(t *testing.T) {
	var log []string
	s := New("test", nil, recorder(&log, "a", nil), recorder(&log, "b", nil))
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{"do:a", "do:b"}, log)
}

func TestSaga_UndoesCompletedStepsInReverse(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	s := New("test", nil,
		recorder(&log, "identity", nil),
		recorder(&log, "congregation", nil),
		recorder(&log, "profile", boom),
	)

	err := s.Run(context.Background())
	require.ErrorIs(t, err, boom)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "profile", stepErr.Step)
	assert.Equal(t, []string{"do:identity", "do:congregation", "do:profile", "undo:congregation", "undo:identity"}, log)
}

func TestSaga_CompensationRunsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var undoCtxErr error
	s := New("test", nil,
		Step{
			Name: "first",
			Do:   func(context.Context) error { return nil },
			Undo: func(ctx context.Context) error {
				undoCtxErr = ctx.Err()
				return nil
			},
		},
		Step{
			Name: "second",
			Do: func(context.Context) error {
				cancel()
				return context.Canceled
			},
		},
	)
	require.Error(t, s.Run(ctx))
	assert.NoError(t, undoCtxErr)
}

func TestSaga_ReportsCompensationFailures(t *testing.T) {
	undoErr := errors.New("undo failed")
	s := New("test", nil,
		Step{Name: "a", Do: func(context.Context) error { return nil }, Undo: func(context.Context) error { return undoErr }},
		Step{Name: "b", Do: func(context.Context) error { return errors.New("b failed") }},
	)
	err := s.Run(context.Background())
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	require.Len(t, stepErr.UndoErrors, 1)
	assert.ErrorIs(t, stepErr.UndoErrors[0], undoErr)
}
