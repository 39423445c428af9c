package endpoint

import (
	"github.com/handiism/httphelper/internal/domain"
	"github.com/handiism/httphelper/internal/variant"
)

// Source records which rule picked a Plan's origin.
type Source string

const (
	SourceNone     Source = "none"
	SourceExplicit Source = "explicit"
	SourceAlias    Source = "alias"
	SourceGlobal   Source = "global"
)

// Plan is the per-invocation result of resolving an endpoint's markers.
type Plan struct {
	// Origin replaces the request's origin. Nil leaves the URL unchanged.
	Origin *domain.Origin

	// Source tells which rule produced Origin.
	Source Source

	// Timeouts is the full triple to use. Nil means the client defaults.
	Timeouts *variant.Timeouts

	// ResponseKey and RequestKey are progress listener keys; empty means no
	// instrumentation.
	ResponseKey string
	RequestKey  string
}

// Resolver turns endpoint markers into a Plan using the current state of a
// domain registry.
type Resolver struct {
	Domains        *domain.Registry
	Defaults       variant.Timeouts
	IgnoreTimeouts bool
}

// Resolve computes the plan for one call. ep may be nil, in which case only
// the global override can apply.
//
// Resolve never fails: unknown aliases and malformed markers fall back to
// the next rule.
func (r *Resolver) Resolve(ep *Endpoint) Plan {
	var snap domain.Snapshot
	if r.Domains != nil {
		snap = r.Domains.Snapshot()
	}
	return r.ResolveWith(snap, ep)
}

// ResolveWith is Resolve against an explicit registry snapshot.
func (r *Resolver) ResolveWith(snap domain.Snapshot, ep *Endpoint) Plan {
	plan := Plan{Source: SourceNone}

	plan.Origin, plan.Source = resolveOrigin(snap, ep)

	if ep != nil {
		if ep.Timeout != nil && !r.IgnoreTimeouts {
			t := r.Defaults.Merge(variant.Timeouts{
				Connect: ep.Timeout.Connect,
				Read:    ep.Timeout.Read,
				Write:   ep.Timeout.Write,
			})
			plan.Timeouts = &t
		}
		plan.ResponseKey = ep.ResponseProgress
		plan.RequestKey = ep.RequestProgress
	}
	return plan
}

func resolveOrigin(snap domain.Snapshot, ep *Endpoint) (*domain.Origin, Source) {
	if ep != nil && ep.BaseURL != "" {
		if o, err := domain.ParseOrigin(ep.BaseURL); err == nil {
			return &o, SourceExplicit
		}
	}

	if !snap.Dynamic() {
		return nil, SourceNone
	}

	if ep != nil && ep.Domain != "" {
		if o, ok := snap.Lookup(ep.Domain); ok {
			return &o, SourceAlias
		}
		// Unregistered alias: keep the declared origin.
		return nil, SourceNone
	}

	if o, ok := snap.Global(); ok {
		return &o, SourceGlobal
	}
	return nil, SourceNone
}
