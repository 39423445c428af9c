package progress

// Event reports the transfer state of one body.
type Event struct {
	// BytesRead is the running total of bytes transferred so far.
	BytesRead int64

	// TotalBytes is the declared length of the body, or -1 if unknown.
	TotalBytes int64

	// Completed is set on the final event of a successful transfer.
	Completed bool

	// Err is set on the terminal failure event of a transfer.
	Err error
}

// Failed reports whether e is a terminal failure event.
func (e Event) Failed() bool {
	return e.Err != nil
}

// Percent returns the completed share in the range [0, 100], or -1 when
// the total is unknown.
func (e Event) Percent() float64 {
	if e.TotalBytes < 0 {
		return -1
	}
	if e.TotalBytes == 0 {
		if e.Completed {
			return 100
		}
		return 0
	}
	return float64(e.BytesRead) * 100 / float64(e.TotalBytes)
}

// Listener receives progress events for one key.
//
// Listeners are called on the goroutine reading the body and must not
// block for long.
type Listener func(Event)

// Funcs builds a Listener from separate progress and failure callbacks.
// Either may be nil.
func Funcs(onProgress func(read, total int64, completed bool), onError func(err error)) Listener {
	return func(e Event) {
		if e.Failed() {
			if onError != nil {
				onError(e.Err)
			}
			return
		}
		if onProgress != nil {
			onProgress(e.BytesRead, e.TotalBytes, e.Completed)
		}
	}
}
