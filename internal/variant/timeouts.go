package variant

import (
	"fmt"
	"time"
)

// Timeouts is the connect/read/write triple that identifies a client
// variant. A zero duration means no timeout for that dimension.
//
// Timeouts is comparable and is used directly as a map key.
type Timeouts struct {
	Connect time.Duration
	Read    time.Duration
	Write   time.Duration
}

// Uniform returns a Timeouts with all three dimensions set to d.
func Uniform(d time.Duration) Timeouts {
	return Timeouts{Connect: d, Read: d, Write: d}
}

// Merge returns t with every non-zero dimension of override applied.
func (t Timeouts) Merge(override Timeouts) Timeouts {
	if override.Connect > 0 {
		t.Connect = override.Connect
	}
	if override.Read > 0 {
		t.Read = override.Read
	}
	if override.Write > 0 {
		t.Write = override.Write
	}
	return t
}

// IsZero reports whether no timeout is set.
func (t Timeouts) IsZero() bool {
	return t == Timeouts{}
}

// String renders the triple for logs, e.g. "connect=15s read=15s write=15s".
func (t Timeouts) String() string {
	return fmt.Sprintf("connect=%s read=%s write=%s", t.Connect, t.Read, t.Write)
}
