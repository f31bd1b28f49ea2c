package demux

// unboundedPipe returns connected send/receive channel ends with an
// elastic buffer between them. The pump goroutine never blocks on a slow
// or absent consumer, which is what lets a caller Wait on a command
// without ever taking its stdout/stderr channels. Closing the send end
// closes the receive end once the buffer drains.
func unboundedPipe() (chan<- []byte, <-chan []byte) {
	in := make(chan []byte)
	out := make(chan []byte)
	go func() {
		var queue [][]byte
		for in != nil || len(queue) > 0 {
			sendCh := chan []byte(nil)
			var next []byte
			if len(queue) > 0 {
				sendCh = out
				next = queue[0]
			}
			select {
			case v, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				queue = append(queue, v)
			case sendCh <- next:
				queue = queue[1:]
			}
		}
		close(out)
	}()
	return in, out
}
