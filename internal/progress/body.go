package progress

import (
	"errors"
	"io"
	"time"

	"golang.org/x/time/rate"
)

// Body wraps a request or response body and reports transfer progress to a
// Dispatcher under a fixed key.
//
// Bytes pass straight through to the caller's buffer. Each read that moves
// data produces an intermediate event. The final event has Completed set
// and is sent once, either when a known total has been read or at EOF. A
// read error other than io.EOF produces one failure event and is returned
// to the caller unchanged.
//
// A Body is not safe for concurrent reads, like any io.Reader.
type Body struct {
	rc    io.ReadCloser
	total int64
	key   string
	d     Dispatcher

	throttle *rate.Sometimes
	read     int64
	done     bool
}

// BodyOption configures a Body.
type BodyOption func(*Body)

// WithInterval coalesces intermediate events so that at most one is sent
// per interval. Final and failure events are always sent. A non-positive
// interval sends every event.
func WithInterval(interval time.Duration) BodyOption {
	return func(b *Body) {
		if interval > 0 {
			b.throttle = &rate.Sometimes{Interval: interval}
		} else {
			b.throttle = nil
		}
	}
}

// NewBody wraps rc. total is the declared length; pass -1 when unknown.
func NewBody(rc io.ReadCloser, total int64, key string, d Dispatcher, opts ...BodyOption) *Body {
	if total < 0 {
		total = -1
	}
	b := &Body{rc: rc, total: total, key: key, d: d}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Read implements io.Reader.
func (b *Body) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if n > 0 {
		b.read += int64(n)
	}
	if b.done {
		return n, err
	}

	switch {
	case err != nil && !errors.Is(err, io.EOF):
		b.done = true
		b.emit(Event{BytesRead: b.read, TotalBytes: b.total, Err: err})
	case err != nil || (b.total >= 0 && b.read >= b.total):
		b.done = true
		b.emit(Event{BytesRead: b.read, TotalBytes: b.total, Completed: true})
	case n > 0:
		b.progress()
	}
	return n, err
}

// Close closes the underlying body.
func (b *Body) Close() error {
	return b.rc.Close()
}

// BytesRead returns the number of bytes read so far.
func (b *Body) BytesRead() int64 {
	return b.read
}

func (b *Body) progress() {
	e := Event{BytesRead: b.read, TotalBytes: b.total}
	if b.throttle == nil {
		b.emit(e)
		return
	}
	b.throttle.Do(func() { b.emit(e) })
}

func (b *Body) emit(e Event) {
	if b.d != nil {
		b.d.Dispatch(b.key, e)
	}
}
