// Package handle implements the take-once accessor objects returned by
// started commands, PTYs and filesystem watches: CommandHandle,
// PtyHandle and WatchHandle. Each wraps channels fed by a background
// demultiplexing goroutine (pkg/demux) behind single-consumer accessors.
package handle

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyTaken is returned by a take-once accessor's second call.
var ErrAlreadyTaken = errors.New("handle: already taken")

// Stream is a take-once accessor over a read-only channel.
type Stream[T any] struct {
	mu    sync.Mutex
	ch    <-chan T
	taken bool
}

// NewStream wraps ch as a take-once stream accessor.
func NewStream[T any](ch <-chan T) *Stream[T] {
	return &Stream[T]{ch: ch}
}

// Take returns the wrapped channel on its first call; every subsequent
// call returns ok=false without draining anything. A stream endpoint has
// exactly one consumer.
func (s *Stream[T]) Take() (ch <-chan T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taken {
		return nil, false
	}
	s.taken = true
	return s.ch, true
}

// Result is a take-once slot for a single value (or error) filled
// exactly once by a producer goroutine.
type Result[T any] struct {
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	value  T
	err    error
	waited bool
}

// NewResult returns an empty, unfilled Result.
func NewResult[T any]() *Result[T] {
	return &Result[T]{done: make(chan struct{})}
}

// Fill delivers v to the Result. Only the first call (of Fill or Fail)
// has any effect.
func (r *Result[T]) Fill(v T) {
	r.once.Do(func() {
		r.mu.Lock()
		r.value = v
		r.mu.Unlock()
		close(r.done)
	})
}

// Fail delivers err to the Result in place of a value, for slots (such
// as a PtyHandle's bare exit code) with no in-band way to carry an
// error. Only the first call (of Fill or Fail) has any effect.
func (r *Result[T]) Fail(err error) {
	r.once.Do(func() {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		close(r.done)
	})
}

// Wait blocks until the Result is filled (or ctx is cancelled), returning
// the value (or the error passed to Fail) on its first call. A second
// call returns ErrAlreadyTaken rather than re-delivering the
// already-consumed value.
func (r *Result[T]) Wait(ctx context.Context) (T, error) {
	r.mu.Lock()
	if r.waited {
		r.mu.Unlock()
		var zero T
		return zero, ErrAlreadyTaken
	}
	r.waited = true
	r.mu.Unlock()

	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.err != nil {
			var zero T
			return zero, r.err
		}
		return r.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
