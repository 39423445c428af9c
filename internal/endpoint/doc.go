// Package endpoint declares API calls as static records and resolves their
// markers into a per-call Plan.
//
// An Endpoint carries optional markers: an explicit origin (BaseURL), a
// domain alias (Domain), a timeout override and progress listener keys.
// Resolution reads one registry snapshot and applies, highest priority
// first:
//
//  1. the explicit origin, which always wins;
//  2. the domain alias, falling back to the declared origin when the alias
//     is not registered;
//  3. the registry's global override;
//  4. the declared origin, unchanged.
//
// Resolution never fails and never blocks.
package endpoint
