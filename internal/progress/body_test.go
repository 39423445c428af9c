package progress

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns one chunk per Read call, then finalErr.
type chunkReader struct {
	chunks   []int
	finalErr error
	closed   bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.finalErr != nil {
			return 0, r.finalErr
		}
		return 0, io.EOF
	}
	n := min(r.chunks[0], len(p))
	r.chunks[0] -= n
	if r.chunks[0] == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listener(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) get() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestBody_KnownLength(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}
	reg.Add("k", rec.listener)

	body := NewBody(&chunkReader{chunks: []int{400, 400, 200}}, 1000, "k", reg)

	buf := make([]byte, 4096)
	for {
		_, err := body.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	want := []Event{
		{BytesRead: 400, TotalBytes: 1000},
		{BytesRead: 800, TotalBytes: 1000},
		{BytesRead: 1000, TotalBytes: 1000, Completed: true},
	}
	assert.Equal(t, want, rec.get())
	assert.EqualValues(t, 1000, body.BytesRead())
}

func TestBody_UnknownLength(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}
	reg.Add("k", rec.listener)

	body := NewBody(io.NopCloser(strings.NewReader("hello world")), -5, "k", reg)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	events := rec.get()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.True(t, last.Completed)
	assert.EqualValues(t, 11, last.BytesRead)
	assert.EqualValues(t, -1, last.TotalBytes)
	for i, e := range events {
		assert.EqualValues(t, -1, e.TotalBytes)
		if i > 0 {
			assert.GreaterOrEqual(t, e.BytesRead, events[i-1].BytesRead)
		}
	}
	assert.Equal(t, float64(-1), last.Percent())
}

func TestBody_EmptyKnownLength(t *testing.T) {
	rec := &recorder{}
	body := NewBody(io.NopCloser(strings.NewReader("")), 0, "k", DispatcherFunc(func(_ string, e Event) { rec.listener(e) }))

	_, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, []Event{{BytesRead: 0, TotalBytes: 0, Completed: true}}, rec.get())
}


func TestBody_ReadErrorPropagates(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}
	reg.Add("k", rec.listener)

	boom := errors.New("connection reset")
	body := NewBody(&chunkReader{chunks: []int{300}, finalErr: boom}, 1000, "k", reg)

	_, err := io.ReadAll(body)
	require.ErrorIs(t, err, boom)

	events := rec.get()
	require.Len(t, events, 2)
	assert.Equal(t, Event{BytesRead: 300, TotalBytes: 1000}, events[0])
	assert.True(t, events[1].Failed())
	assert.False(t, events[1].Completed)
	assert.ErrorIs(t, events[1].Err, boom)

	// A second failing read does not report again.
	_, err = body.Read(make([]byte, 8))
	require.ErrorIs(t, err, boom)
	assert.Len(t, rec.get(), 2)
}

func TestBody_WithIntervalCoalesces(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}
	reg.Add("k", rec.listener)

	body := NewBody(&chunkReader{chunks: []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}}, 10, "k", reg, WithInterval(time.Hour))

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Len(t, data, 10)

	events := rec.get()
	require.Len(t, events, 2, "first intermediate event plus the final one")
	assert.Equal(t, Event{BytesRead: 1, TotalBytes: 10}, events[0])
	assert.Equal(t, Event{BytesRead: 10, TotalBytes: 10, Completed: true}, events[1])
}

func TestBody_NoListener(t *testing.T) {
	body := NewBody(io.NopCloser(strings.NewReader("abc")), 3, "nobody", NewRegistry())
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	body = NewBody(io.NopCloser(strings.NewReader("abc")), 3, "nobody", nil)
	_, err = io.ReadAll(body)
	require.NoError(t, err)
}

func TestBody_Close(t *testing.T) {
	src := &chunkReader{chunks: []int{10}}
	require.NoError(t, NewBody(src, 10, "k", nil).Close())
	assert.True(t, src.closed)
}

func TestEvent_Percent(t *testing.T) {
	tests := []struct {
		e    Event
		want float64
	}{
		{Event{BytesRead: 250, TotalBytes: 1000}, 25},
		{Event{BytesRead: 5, TotalBytes: -1}, -1},
		{Event{TotalBytes: 0}, 0},
		{Event{TotalBytes: 0, Completed: true}, 100},
	}
	for _, tt := range tests {
		if got := tt.e.Percent(); got != tt.want {
			t.Errorf("%+v.Percent() = %v, want %v", tt.e, got, tt.want)
		}
	}
}
