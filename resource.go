package referencing

import (
	"iter"
	"reflect"

	"github.com/python-jsonschema/referencing/jsonpointer"
)

// Resource pairs a parsed JSON value with the Specification governing how
// to read identifiers, anchors and subresources out of it.
type Resource struct {
	contents any
	spec     Specification
}

// NewResource is an alias for spec.CreateResource(contents), provided for
// symmetry with FromContents.
func NewResource(contents any, spec Specification) Resource {
	return spec.CreateResource(contents)
}

// FromContents infers contents' Specification from its "$schema" keyword
// (consulting table) and builds a Resource from it. It fails with
// CannotDetermineSpecificationError if "$schema" is absent, not a string,
// or unrecognized.
func FromContents(contents any, table []Specification) (Resource, error) {
	spec, err := DetectSpecification(contents, table)
	if err != nil {
		return Resource{}, err
	}
	return spec.CreateResource(contents), nil
}

// Contents returns the resource's raw JSON value.
func (r Resource) Contents() any { return r.contents }

// Specification returns the dialect descriptor governing r.
func (r Resource) Specification() Specification { return r.spec }

// ID returns r's internal identifier, or "" if it declares none.
func (r Resource) ID() string {
	return r.spec.idOf(r.contents)
}

// Anchors enumerates the anchors r exposes directly (not those of its
// subresources).
func (r Resource) Anchors() iter.Seq[Anchor] {
	return r.spec.anchorsOf(r.contents)
}

// Subresources lazily enumerates r's child subresources, each wrapped in
// r's own Specification. A child's own "$schema", if any, is not
// consulted, here or by the registry's crawl step.
func (r Resource) Subresources() iter.Seq[Resource] {
	return func(yield func(Resource) bool) {
		for child := range r.spec.subresourcesOf(r.contents) {
			if !yield(r.spec.CreateResource(child)) {
				return
			}
		}
	}
}

// IsRecursiveAnchor reports whether r declares itself a Draft 2019-09
// recursive base ("$recursiveAnchor": true).
func (r Resource) IsRecursiveAnchor() bool {
	return r.spec.isRecursiveAnchorAt(r.contents)
}

// Pointer evaluates a JSON Pointer from r's root, returning a Resolved
// positioned via resolver (the caller-supplied resolver describing how
// further resolution should proceed from here). Pointer("") always
// succeeds and returns r's own contents.
//
// The walk is token-by-token rather than a single jsonpointer.Evaluate
// call: spec.md §4.6 requires that each intermediate object the pointer
// passes through that is itself a subresource under r's dialect re-base
// the resolver (new base = join(current base, subresource.id()), the
// subresource pushed onto the dynamic scope) before continuing, so that
// $ref/$dynamicRef/$recursiveRef resolved from the returned Resolved see
// the right base and dynamic scope — not just r's own.
func (r Resource) Pointer(ptr string, resolver Resolver) (Resolved, error) {
	current := r.contents
	enclosing := r.contents
	currentResolver := resolver

	for _, token := range jsonpointer.Tokens(ptr) {
		next, ok := jsonpointer.Step(current, token)
		if !ok {
			return Resolved{}, &PointerToNowhereError{
				Reference: ptr,
				URI:       resolver.base.String(),
				Err:       &jsonpointer.NotFoundError{Pointer: ptr, Token: token},
			}
		}
		current = next
		if r.spec.isSubresourceOf(enclosing, current) {
			sub := r.spec.CreateResource(current)
			currentResolver = currentResolver.InSubresource(sub)
			enclosing = current
		}
	}
	return Resolved{Contents: current, Resolver: currentResolver}, nil
}

// isSubresourceOf reports whether child is one of the subresources
// enclosing's dialect declares directly on it (spec.subresourcesOf
// yields values by reference, so map identity — not deep equality —
// is what distinguishes "this exact node" from "a node that merely
// looks the same").
func (spec Specification) isSubresourceOf(enclosing, child any) bool {
	childMap, ok := child.(map[string]any)
	if !ok {
		return false
	}
	childPtr := reflect.ValueOf(childMap).Pointer()
	for sub := range spec.subresourcesOf(enclosing) {
		subMap, ok := sub.(map[string]any)
		if !ok {
			continue
		}
		if reflect.ValueOf(subMap).Pointer() == childPtr {
			return true
		}
	}
	return false
}
