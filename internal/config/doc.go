// Package config provides configuration management for httphelper.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - Validation
//   - Applying settings to a helper.Helper and its client builder
//
// # Default Settings
//
// Use DefaultSettings() to get the demo defaults:
//
//	settings := config.DefaultSettings()
//	// Base URL https://jenly1314.github.io
//	// github and google aliases registered
//	// 10s connect/read/write timeouts
//	// Progress events at most every 300ms
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/httphelper.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Wiring a Client
//
//	h := helper.New()
//	if err := settings.Apply(h); err != nil {
//	    return err
//	}
//	client, err := settings.Builder(h).Build()
//
// Durations are written as strings such as "10s" or "300ms".
package config
