package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ calls []string }

func (r *recorder) step(name string, fail error) func(context.Context) error {
	return func(context.Context) error {
		r.calls = append(r.calls, name)
		return fail
	}
}

func TestExecute_AllStepsSucceed(t *testing.T) {
	rec := &recorder{}
	s := New("follow").
		AddStep("a", rec.step("a", nil), rec.step("undo-a", nil)).
		AddStep("b", rec.step("b", nil), rec.step("undo-b", nil))

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"a", "b"}, rec.calls)
}

func TestExecute_CompensatesInReverse(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")

	var hooked []string
	s := New("follow", WithCompensationHook(func(step string, err error) {
		hooked = append(hooked, step)
	})).
		AddStep("a", rec.step("a", nil), rec.step("undo-a", nil)).
		AddStep("b", rec.step("b", nil), nil).
		AddStep("c", rec.step("c", nil), rec.step("undo-c", nil)).
		AddStep("d", rec.step("d", boom), rec.step("undo-d", nil))

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "d", stepErr.Step)
	assert.Equal(t, 3, stepErr.Index)

	// The failed step is not compensated; b has no compensation.
	assert.Equal(t, []string{"a", "b", "c", "d", "undo-c", "undo-a"}, rec.calls)
	assert.Equal(t, []string{"c", "a"}, hooked)
}

func TestExecute_CompensationFailureIsJoined(t *testing.T) {
	boom := errors.New("boom")
	stuck := errors.New("stuck")

	s := New("unfollow").
		AddStep("a", func(context.Context) error { return nil }, func(context.Context) error { return stuck }).
		AddStep("b", func(context.Context) error { return boom }, nil)

	err := s.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, stuck)
	assert.Contains(t, err.Error(), "compensate a")
}

func TestExecute_TimeoutStillCompensates(t *testing.T) {
	rec := &recorder{}
	s := New("slow", WithTimeout(10*time.Millisecond)).
		AddStep("a", rec.step("a", nil), func(ctx context.Context) error {
			// Compensation context survives the saga deadline.
			rec.calls = append(rec.calls, "undo-a")
			return ctx.Err()
		}).
		AddStep("wait", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}, nil)

	err := s.Execute(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"a", "undo-a"}, rec.calls)
}
