package variant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

var (
	// ErrReadTimeout is the cause of a request cancelled because the server
	// sent nothing for longer than the read timeout.
	ErrReadTimeout = errors.New("read timeout")

	// ErrWriteTimeout is the cause of a request cancelled because the request
	// body stalled for longer than the write timeout.
	ErrWriteTimeout = errors.New("write timeout")
)

// TimeoutError reports a request aborted by a read or write timeout.
// It matches both the timeout sentinel and the underlying transport error
// with errors.Is.
type TimeoutError struct {
	Cause error
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v after %s: %v", e.Cause, e.After, e.Err)
}

func (e *TimeoutError) Unwrap() []error { return []error{e.Cause, e.Err} }

// Timeout lets net.Error-style checks treat the error as a timeout.
func (e *TimeoutError) Timeout() bool { return true }

type connectTimeoutKey struct{}

// ConnectTimeout returns the connect timeout carried by ctx.
func ConnectTimeout(ctx context.Context) (time.Duration, bool) {
	d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration)
	return d, ok && d > 0
}

// DialContext returns a dial function for http.Transport that bounds each
// dial by the connect timeout of the request that triggered it. Dials
// without one fall back to the dialer's own Timeout.
//
// Every Transport handed to NewCache should dial through this function,
// otherwise per-variant connect timeouts have no effect.
func DialContext(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if d, ok := ConnectTimeout(ctx); ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return dialer.DialContext(ctx, network, addr)
	}
}

// Transport applies a Timeouts triple to each request it forwards to Base.
//
// The connect timeout travels in the request context for DialContext. Read
// and write timeouts are idle timeouts enforced by a watchdog. The write
// clock runs while the request body is consumed and restarts on every
// chunk. The read clock runs while waiting for the response headers and
// then only while a response body Read is blocked, so a caller pausing
// between reads never times out.
type Transport struct {
	Base     http.RoundTripper
	Timeouts Timeouts
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if t.Timeouts.Connect > 0 {
		ctx = context.WithValue(ctx, connectTimeoutKey{}, t.Timeouts.Connect)
	}

	if t.Timeouts.Read <= 0 && t.Timeouts.Write <= 0 {
		if ctx == req.Context() {
			return t.base().RoundTrip(req)
		}
		return t.base().RoundTrip(req.WithContext(ctx))
	}

	ctx, cancel := context.WithCancelCause(ctx)
	w := &watchdog{cancel: cancel, read: t.Timeouts.Read, write: t.Timeouts.Write}

	out := req.WithContext(ctx)
	if req.Body != nil && req.Body != http.NoBody {
		out.Body = &writeBody{ReadCloser: req.Body, w: w}
		w.enter(phaseWrite)
	} else {
		w.enter(phaseRead)
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		w.stop()
		err = w.wrap(ctx, err)
		cancel(nil)
		return nil, err
	}

	// Early responses can arrive before the body is fully sent.
	w.enter(phaseRead)
	w.pause(phaseRead)
	resp.Body = &readBody{ReadCloser: resp.Body, w: w, ctx: ctx, cancel: cancel}
	return resp, nil
}

type phase int

const (
	phaseIdle phase = iota
	phaseWrite
	phaseRead
	phaseDone
)

type watchdog struct {
	mu     sync.Mutex
	phase  phase
	timer  *time.Timer
	cancel context.CancelCauseFunc
	read   time.Duration
	write  time.Duration
}

func (w *watchdog) limitLocked() (time.Duration, error) {
	switch w.phase {
	case phaseWrite:
		return w.write, ErrWriteTimeout
	case phaseRead:
		return w.read, ErrReadTimeout
	}
	return 0, nil
}

// enter moves the watchdog forward to p and starts that phase's clock.
// Phases never move backwards.
func (w *watchdog) enter(p phase) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p <= w.phase {
		return
	}
	w.phase = p
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	d, cause := w.limitLocked()
	if d > 0 {
		w.timer = time.AfterFunc(d, func() { w.cancel(cause) })
	}
}

// touch restarts the clock if the watchdog is still in phase p.
func (w *watchdog) touch(p phase) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != p || w.timer == nil {
		return
	}
	d, _ := w.limitLocked()
	w.timer.Reset(d)
}

// resume starts the clock again if the watchdog is still in phase p.
func (w *watchdog) resume(p phase) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != p {
		return
	}
	d, cause := w.limitLocked()
	if d <= 0 {
		return
	}
	if w.timer != nil {
		w.timer.Reset(d)
		return
	}
	w.timer = time.AfterFunc(d, func() { w.cancel(cause) })
}

// pause stops the clock without leaving phase p.
func (w *watchdog) pause(p phase) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != p || w.timer == nil {
		return
	}
	w.timer.Stop()
}

func (w *watchdog) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.phase = phaseDone
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// wrap turns err into a *TimeoutError when the watchdog cancelled ctx.
func (w *watchdog) wrap(ctx context.Context, err error) error {
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, ErrReadTimeout):
		return &TimeoutError{Cause: ErrReadTimeout, After: w.read, Err: err}
	case errors.Is(cause, ErrWriteTimeout):
		return &TimeoutError{Cause: ErrWriteTimeout, After: w.write, Err: err}
	}
	return err
}

type writeBody struct {
	io.ReadCloser
	w *watchdog
}

func (b *writeBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.w.touch(phaseWrite)
	}
	if err == io.EOF {
		b.w.enter(phaseRead)
	}
	return n, err
}

func (b *writeBody) Close() error {
	b.w.enter(phaseRead)
	return b.ReadCloser.Close()
}

type readBody struct {
	io.ReadCloser
	w      *watchdog
	ctx    context.Context
	cancel context.CancelCauseFunc
}

func (b *readBody) Read(p []byte) (int, error) {
	b.w.resume(phaseRead)
	n, err := b.ReadCloser.Read(p)
	b.w.pause(phaseRead)
	if err != nil {
		b.w.stop()
		if err != io.EOF {
			err = b.w.wrap(b.ctx, err)
		}
		b.cancel(nil)
	}
	return n, err
}

func (b *readBody) Close() error {
	b.w.stop()
	err := b.ReadCloser.Close()
	b.cancel(nil)
	return err
}
