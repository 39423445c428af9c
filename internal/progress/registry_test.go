package progress

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_AddReplaces(t *testing.T) {
	reg := NewRegistry()
	var first, second int
	reg.Add("k", func(Event) { first++ })
	reg.Add("k", func(Event) { second++ })

	reg.Dispatch("k", Event{})
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_DispatchUnknownKey(t *testing.T) {
	reg := NewRegistry()
	assert.NotPanics(t, func() { reg.Dispatch("missing", Event{BytesRead: 1}) })
}

func TestRegistry_RemoveAndClear(t *testing.T) {
	reg := NewRegistry()
	var calls atomic.Int32
	l := func(Event) { calls.Add(1) }
	reg.Add("a", l)
	reg.Add("b", l)
	reg.Add("c", nil)
	assert.Equal(t, 2, reg.Len())

	reg.Remove("a")
	reg.Dispatch("a", Event{})
	assert.EqualValues(t, 0, calls.Load())

	reg.Clear()
	reg.Dispatch("b", Event{})
	assert.EqualValues(t, 0, calls.Load())
	assert.Equal(t, 0, reg.Len())

	_, ok := reg.Lookup("b")
	assert.False(t, ok)
}

func TestRegistry_NoDispatchAfterClear(t *testing.T) {
	reg := NewRegistry()
	var cleared atomic.Bool
	var late atomic.Int32

	reg.Add("k", func(Event) {
		if cleared.Load() {
			late.Add(1)
		}
	})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					reg.Dispatch("k", Event{})
				}
			}
		}()
	}

	reg.Clear()
	cleared.Store(true)
	for i := 0; i < 1000; i++ {
		reg.Dispatch("k", Event{})
	}
	close(stop)
	wg.Wait()

	// Only dispatches that looked up the listener before Clear may land.
	assert.LessOrEqual(t, late.Load(), int32(8))
}

func TestFuncs(t *testing.T) {
	var gotRead, gotTotal int64
	var gotCompleted bool
	var gotErr error

	l := Funcs(func(read, total int64, completed bool) {
		gotRead, gotTotal, gotCompleted = read, total, completed
	}, func(err error) {
		gotErr = err
	})

	l(Event{BytesRead: 10, TotalBytes: 20, Completed: true})
	assert.EqualValues(t, 10, gotRead)
	assert.EqualValues(t, 20, gotTotal)
	assert.True(t, gotCompleted)
	assert.NoError(t, gotErr)

	boom := errors.New("boom")
	l(Event{Err: boom})
	assert.ErrorIs(t, gotErr, boom)
	assert.EqualValues(t, 10, gotRead, "failure does not call onProgress")

	assert.NotPanics(t, func() { Funcs(nil, nil)(Event{Err: boom}) })
}
