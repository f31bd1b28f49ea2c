package handle

import (
	"context"

	"github.com/e2b-dev/e2b-go/pkg/filesystem"
)

// WatchHandle is the take-once handle returned by a directory watch: a
// single typed event channel plus a way to stop watching and inspect any
// terminal error the background pump goroutine hit.
type WatchHandle struct {
	events *Stream[filesystem.Event]
	stop   func()
	err    *Result[error]
}

// NewWatchHandle assembles a WatchHandle from the channel, stop callback
// and terminal-error slot a demultiplexer goroutine drives.
func NewWatchHandle(events <-chan filesystem.Event, stop func(), err *Result[error]) *WatchHandle {
	return &WatchHandle{events: NewStream(events), stop: stop, err: err}
}

// Events returns the watch's event channel, closed when the watch ends
// (whether by Stop, by context cancellation or by a stream error). Only
// the first call succeeds; later calls return ok=false.
func (h *WatchHandle) Events() (<-chan filesystem.Event, bool) { return h.events.Take() }

// Stop ends the watch and releases the underlying stream.
func (h *WatchHandle) Stop() { h.stop() }

// Err returns the error that ended the watch, if any. It blocks until the
// watch ends, bounded only by the watch's own lifetime.
func (h *WatchHandle) Err() error {
	v, waitErr := h.err.Wait(context.Background())
	if waitErr != nil {
		return nil
	}
	return v
}
