package referencing

import (
	"strings"

	"github.com/python-jsonschema/referencing/uri"
)

// Resolved is the outcome of following a reference: the JSON value the
// reference pointed to, plus a Resolver repositioned there so the caller
// can keep resolving further references relative to it.
type Resolved struct {
	Contents any
	Resolver Resolver
}

// scopeFrame is one entry of a Resolver's dynamic scope stack: the URI a
// $ref/$dynamicRef was followed into, and the resource found there.
type scopeFrame struct {
	uri      string
	resource Resource
}

// Resolver resolves references relative to a fixed base URI against an
// immutable Registry, tracking the dynamic scope (spec.md §4.6) accumulated
// by the chain of Lookup calls that produced it. A Resolver is itself
// immutable: every method returns a new one positioned further along,
// never mutating the receiver.
type Resolver struct {
	base     uri.Uri
	registry Registry
	scope    []scopeFrame
}

// Registry returns the registry a Resolver resolves against. When a lookup
// populated a derived registry via a retrieve hook (see Registry.Get),
// that registry is the one held by the Resolver inside the Resolved the
// lookup returned, not by the original Resolver.
func (r Resolver) Registry() Registry { return r.registry }

// Base returns the URI a relative reference resolved from r would be
// joined against.
func (r Resolver) Base() string { return r.base.String() }

// DynamicScope returns the resources this Resolver's chain of lookups has
// passed through, outermost first, including the innermost (current) one.
// The URIs of the frames are not returned. The scope is consulted by
// $dynamicRef/$recursiveRef resolution and exposed so callers implementing
// a validator can report it in errors.
func (r Resolver) DynamicScope() []Resource {
	out := make([]Resource, len(r.scope))
	for i, f := range r.scope {
		out[i] = f.resource
	}
	return out
}

// Lookup resolves ref (an absolute URI, a same-document fragment, or a
// relative reference) against r's base, following $ref/plain-URI
// semantics: the reference's own URI identifies a registered resource (or
// one fetched via the retrieve hook), and any fragment is then evaluated
// against it — a JSON Pointer fragment via Resource.Pointer, a plain-name
// fragment via the registry's anchor index.
func (r Resolver) Lookup(ref string) (Resolved, error) {
	target, err := uri.Join(r.base, ref)
	if err != nil {
		return Resolved{}, err
	}

	base := target.WithEmptyFragmentStripped()
	res, registry, err := r.registry.Get(base.Absolute)
	if err != nil {
		return Resolved{}, err
	}

	next := r
	next.registry = registry
	next.base = base
	next.scope = append(append([]scopeFrame{}, r.scope...), scopeFrame{uri: base.Absolute, resource: res})

	return next.resolveFragment(target, res)
}

// resolveFragment evaluates target's fragment (if any) against res, which
// must already be the resource registered at target's absolute part.
func (r Resolver) resolveFragment(target uri.Uri, res Resource) (Resolved, error) {
	switch target.FragmentKind() {
	case uri.None, uri.Empty:
		return Resolved{Contents: res.Contents(), Resolver: r}, nil
	case uri.JSONPointer:
		return res.Pointer(target.Fragment, r)
	case uri.PlainName:
		anchor, registry, err := r.registry.Anchor(target.Absolute, target.Fragment)
		if err != nil {
			return Resolved{}, err
		}
		next := r
		next.registry = registry
		return Resolved{Contents: anchor.Resource.Contents(), Resolver: next}, nil
	default:
		return Resolved{}, &InvalidAnchorError{
			URI:        target.Absolute,
			Name:       target.Fragment,
			Suggestion: target.InvalidFragmentSuggestion(),
		}
	}
}

// LookupDynamic resolves a $dynamicRef. ref's own URI/fragment are first
// resolved exactly as Lookup would (establishing the "initial target
// resource" per the 2020-12 spec); then, if that anchor is itself dynamic,
// the dynamic scope is walked outermost-to-innermost and the first frame
// whose resource also declares a dynamic anchor of the same name wins
// instead (spec.md §4.6, §8 S5/S6).
func (r Resolver) LookupDynamic(ref string) (Resolved, error) {
	target, err := uri.Join(r.base, ref)
	if err != nil {
		return Resolved{}, err
	}
	if target.FragmentKind() != uri.PlainName {
		return r.Lookup(ref)
	}

	initial, err := r.Lookup(ref)
	if err != nil {
		return Resolved{}, err
	}
	located, _, err := initial.Resolver.registry.Anchor(target.Absolute, target.Fragment)
	if err != nil || !located.Dynamic {
		return initial, nil
	}

	name := target.Fragment
	for _, frame := range r.scope {
		anchor, registry, err := r.registry.Anchor(frame.uri, name)
		if err != nil {
			continue
		}
		if !anchor.Dynamic {
			continue
		}
		next := r
		next.registry = registry
		next.base, _ = uri.Parse(frame.uri)
		return Resolved{Contents: anchor.Resource.Contents(), Resolver: next}, nil
	}
	return initial, nil
}

// LookupRecursive resolves a $recursiveRef (Draft 2019-09). An empty or
// "#" ref resolves to the outermost resource in the dynamic scope that
// declares itself a recursive base ("$recursiveAnchor": true); absent any
// such frame, or for a non-empty ref, it falls back to ordinary Lookup
// semantics (spec.md §4.6).
func (r Resolver) LookupRecursive(ref string) (Resolved, error) {
	trimmed := strings.TrimPrefix(ref, "#")
	if trimmed != "" {
		return r.Lookup(ref)
	}

	for _, frame := range r.scope {
		if frame.resource.IsRecursiveAnchor() {
			next := r
			next.base, _ = uri.Parse(frame.uri)
			return Resolved{Contents: frame.resource.Contents(), Resolver: next}, nil
		}
	}
	return r.Lookup(ref)
}

// InSubresource returns a Resolver for descending into subresource. A
// subresource with no "$id" of its own leaves the resolver as it is: same
// base, same dynamic scope. One with an "$id" rebases the resolver to that
// id joined against r's base, pushes the subresource onto the dynamic
// scope, and registers it under the new base in the resolver's registry
// (a registration that conflicts is skipped).
func (r Resolver) InSubresource(subresource Resource) Resolver {
	next := r
	id := subresource.ID()
	if id == "" {
		return next
	}
	joined, err := uri.Join(r.base, id)
	if err != nil {
		return next
	}
	next.base = joined.WithEmptyFragmentStripped()
	next.scope = append(append([]scopeFrame{}, r.scope...), scopeFrame{uri: next.base.Absolute, resource: subresource})
	if reg, err := next.registry.WithResource(next.base.Absolute, subresource); err == nil {
		next.registry = reg
	}
	return next
}
