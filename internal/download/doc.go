// Package download runs batches of endpoint calls and file downloads on
// top of the helper client.
//
// # Manager
//
// The Manager coordinates:
//
//  1. Concurrent endpoint calls, bounded by MaxConcurrentRequests
//  2. Retries with exponential cooldown
//  3. File downloads streamed to disk
//  4. Byte progress, observed through response listeners
//
// # Basic Usage
//
//	manager := download.NewManager(settings, h, client, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	results := manager.RunRequests(ctx, api.Requests())
//
//	path, err := manager.Download(ctx, api.Download, settings.DownloadsPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Progress Tracking
//
// GetProgress can be polled from another goroutine while calls run:
//
//	received, total, done, calls := manager.GetProgress()
package download
