package referencing

import (
	"iter"
	"strings"
)

// Anchor is a named pointer into a resource: a plain-name fragment that
// designates a JSON Pointer location within the resource that declared it.
type Anchor struct {
	// Name is the plain anchor name, as it appears after "#" in a
	// reference (no leading "#", no slashes).
	Name string
	// Dynamic marks a $dynamicAnchor (2020-12): one that participates in
	// the dynamic-scope walk rather than resolving directly. Draft
	// 2019-09's $recursiveAnchor is not an Anchor; see
	// Specification.RecursiveAnchorAt.
	Dynamic bool
}

// Specification is a per-dialect descriptor: a closed set of pure
// functions over a resource's contents that know how to find its own
// identifier, enumerate the anchors it exposes, and enumerate its child
// subresources. The dialect table (package dialects) supplies the concrete
// descriptors for the JSON Schema drafts; new dialects are added by
// constructing another Specification value, never by special-casing a
// dialect name inside this package.
type Specification struct {
	// Name identifies the dialect, e.g. "draft2020-12".
	Name string
	// MetaSchemaURI is the dialect's canonical "$schema" value.
	MetaSchemaURI string

	// IDOf returns contents' internal identifier ($id/id), or "" if
	// contents declares none.
	IDOf func(contents any) string
	// AnchorsIn enumerates the anchors exposed directly by contents
	// (not by its subresources).
	AnchorsIn func(contents any) iter.Seq[Anchor]
	// SubresourcesOf lazily enumerates contents' child JSON subtrees that
	// are themselves resources under this same Specification.
	SubresourcesOf func(contents any) iter.Seq[any]

	// RecursiveAnchorAt reports whether contents declares itself a
	// recursive base ("$recursiveAnchor": true, Draft 2019-09). Dialects
	// without that keyword leave this nil. It is independent of named
	// Anchors: $recursiveRef resolution walks the dynamic scope for the
	// outermost frame where this returns true, rather than matching a
	// name (spec.md §4.6).
	RecursiveAnchorAt func(contents any) bool
}

// anchorsOf is a nil-safe call to spec.AnchorsIn.
func (spec Specification) anchorsOf(contents any) iter.Seq[Anchor] {
	if spec.AnchorsIn == nil {
		return func(func(Anchor) bool) {}
	}
	return spec.AnchorsIn(contents)
}

// subresourcesOf is a nil-safe call to spec.SubresourcesOf.
func (spec Specification) subresourcesOf(contents any) iter.Seq[any] {
	if spec.SubresourcesOf == nil {
		return func(func(any) bool) {}
	}
	return spec.SubresourcesOf(contents)
}

// isRecursiveAnchorAt is a nil-safe call to spec.RecursiveAnchorAt.
func (spec Specification) isRecursiveAnchorAt(contents any) bool {
	if spec.RecursiveAnchorAt == nil {
		return false
	}
	return spec.RecursiveAnchorAt(contents)
}

// idOf is a nil-safe call to spec.IDOf, additionally applying the "strip
// an empty trailing fragment; an empty result means absent" normalization
// every dialect shares (spec.md §4.3, §9 open question).
func (spec Specification) idOf(contents any) string {
	if spec.IDOf == nil {
		return ""
	}
	return normalizeID(spec.IDOf(contents))
}

// normalizeID strips an empty trailing fragment ("foo#" becomes "foo"). An
// empty string or a bare "#" normalizes to "", meaning no id at all.
func normalizeID(raw string) string {
	raw = strings.TrimSuffix(raw, "#")
	return raw
}

// CreateResource builds a Resource governed by spec directly, bypassing
// $schema-based detection.
func (spec Specification) CreateResource(contents any) Resource {
	return Resource{contents: contents, spec: spec}
}

// DetectSpecification infers contents' dialect from its "$schema" keyword
// by consulting table, returning CannotDetermineSpecificationError if
// "$schema" is absent, not a string, or matches no entry in table.
func DetectSpecification(contents any, table []Specification) (Specification, error) {
	obj, ok := contents.(map[string]any)
	if !ok {
		return Specification{}, &CannotDetermineSpecificationError{Schema: contents}
	}
	raw, ok := obj["$schema"]
	if !ok {
		return Specification{}, &CannotDetermineSpecificationError{Schema: nil}
	}
	schema, ok := raw.(string)
	if !ok {
		return Specification{}, &CannotDetermineSpecificationError{Schema: raw}
	}
	trimmed := strings.TrimSuffix(schema, "#")
	for _, spec := range table {
		if strings.TrimSuffix(spec.MetaSchemaURI, "#") == trimmed {
			return spec, nil
		}
	}
	return Specification{}, &CannotDetermineSpecificationError{Schema: schema}
}
