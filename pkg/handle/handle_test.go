package handle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamTakeOnce(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	s := NewStream[int](ch)

	got, ok := s.Take()
	require.True(t, ok)
	assert.Equal(t, 7, <-got)

	_, ok = s.Take()
	assert.False(t, ok)
}

func TestResultWaitBlocksUntilFilled(t *testing.T) {
	r := NewResult[string]()
	done := make(chan string, 1)
	go func() {
		v, err := r.Wait(context.Background())
		require.NoError(t, err)
		done <- v
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Fill")
	case <-time.After(20 * time.Millisecond):
	}

	r.Fill("value")
	select {
	case v := <-done:
		assert.Equal(t, "value", v)
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after Fill")
	}
}

func TestResultWaitSecondCallFails(t *testing.T) {
	r := NewResult[int]()
	r.Fill(1)

	_, err := r.Wait(context.Background())
	require.NoError(t, err)

	_, err = r.Wait(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyTaken)
}

func TestResultWaitRespectsContextCancellation(t *testing.T) {
	r := NewResult[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFillOnlyTakesFirstValue(t *testing.T) {
	r := NewResult[int]()
	r.Fill(1)
	r.Fill(2)

	v, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFailDeliversErrorInsteadOfValue(t *testing.T) {
	r := NewResult[int32]()
	want := errors.New("stream broke")
	r.Fail(want)

	v, err := r.Wait(context.Background())
	assert.ErrorIs(t, err, want)
	assert.Zero(t, v)
}

func TestFailAfterFillHasNoEffect(t *testing.T) {
	r := NewResult[int32]()
	r.Fill(5)
	r.Fail(errors.New("too late"))

	v, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(5), v)
}
