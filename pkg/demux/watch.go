package demux

import (
	"errors"
	"io"
	"sync"

	"github.com/e2b-dev/e2b-go/pkg/filesystem"
	"github.com/e2b-dev/e2b-go/pkg/handle"
	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

// Watch fans a filesystem watch stream out into a live WatchHandle, one
// goroutine translating start/keepalive/filesystem frames into typed
// Events and stopping cleanly when the caller calls Stop.
func Watch(stream *rpcclient.MessageStream) *handle.WatchHandle {
	events := make(chan filesystem.Event)
	errSlot := handle.NewResult[error]()
	stopped := make(chan struct{})

	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			close(stopped)
			stream.Close()
		})
	}

	go pumpWatch(stream, events, errSlot, stopped)

	return handle.NewWatchHandle(events, stop, errSlot)
}

func pumpWatch(stream *rpcclient.MessageStream, events chan<- filesystem.Event, errSlot *handle.Result[error], stopped <-chan struct{}) {
	finish := func(err error) {
		close(events)
		errSlot.Fill(err)
	}

	for {
		evt, ok, err := filesystem.DecodeWatchFrame(stream)
		if err != nil {
			select {
			case <-stopped:
				finish(nil)
			default:
				if errors.Is(err, io.EOF) {
					finish(nil)
				} else {
					finish(err)
				}
			}
			return
		}
		if !ok {
			continue
		}
		select {
		case events <- evt:
		case <-stopped:
			finish(nil)
			return
		}
	}
}
