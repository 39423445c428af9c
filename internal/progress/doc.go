// Package progress reports body transfer progress to keyed listeners.
//
// A Registry holds one Listener per key. A Body wraps a request or
// response body and dispatches Events under its key as bytes flow:
//
//	reg := progress.NewRegistry()
//	reg.Add("download", func(e progress.Event) {
//	    fmt.Printf("%d/%d\n", e.BytesRead, e.TotalBytes)
//	})
//	resp.Body = progress.NewBody(resp.Body, resp.ContentLength, "download", reg)
//
// Dispatching to a key with no listener is a no-op.
package progress
