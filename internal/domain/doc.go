// Package domain holds the alias-to-origin registry used to switch base URLs
// at runtime.
//
// # Origins
//
// An Origin is scheme + host [+ port] [+ base path]:
//
//	o, err := domain.ParseOrigin("https://api.example.com/v2")
//	// o.Scheme == "https", o.Host == "api.example.com", o.BasePath == "/v2"
//
// # Registry
//
// The Registry maps short aliases to origins and may hold a global override:
//
//	reg := domain.NewRegistry()
//	reg.PutURL("github", "https://github.com")
//	reg.SetGlobalURL("https://staging.example.com")
//
//	snap := reg.Snapshot()
//	o, ok := snap.Lookup("github")
//
// The Registry is safe for concurrent use. Readers take a Snapshot, which is
// never modified after it is published.
package domain
