package referencing

import "fmt"

// NoSuchResourceError is returned when a URI is not present in the registry
// and no retrieve hook is configured. When a configured hook fails,
// Registry.Get returns an UnretrievableError wrapping the hook's error
// instead.
type NoSuchResourceError struct {
	URI string
}

func (e *NoSuchResourceError) Error() string {
	return fmt.Sprintf("referencing: no such resource %q", e.URI)
}

// NoSuchAnchorError is returned when a resource exists but declares no
// anchor of the requested name.
type NoSuchAnchorError struct {
	URI  string
	Name string
}

func (e *NoSuchAnchorError) Error() string {
	return fmt.Sprintf("referencing: resource %q has no anchor %q", e.URI, e.Name)
}

// PointerToNowhereError is returned when a JSON Pointer step falls off the
// resource's document.
type PointerToNowhereError struct {
	Reference string
	URI       string
	Err       error
}

func (e *PointerToNowhereError) Error() string {
	return fmt.Sprintf("referencing: %q does not exist within %q: %v", e.Reference, e.URI, e.Err)
}

func (e *PointerToNowhereError) Unwrap() error { return e.Err }

// InvalidAnchorError is returned when a fragment is a malformed anchor: it
// contains "/" without starting with it.
type InvalidAnchorError struct {
	URI        string
	Name       string
	Suggestion string
}

func (e *InvalidAnchorError) Error() string {
	msg := fmt.Sprintf("referencing: %q in %q is not a valid anchor", e.Name, e.URI)
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

// CannotDetermineSpecificationError is returned when a resource's dialect
// cannot be inferred: "$schema" is absent, not a string, or not one of the
// known meta-schema URIs.
type CannotDetermineSpecificationError struct {
	Schema any
}

func (e *CannotDetermineSpecificationError) Error() string {
	return fmt.Sprintf("referencing: cannot determine specification from $schema %#v", e.Schema)
}

// NoInternalIDError is returned by the id-based registration shorthand when
// a resource declares no internal identifier to register it under.
type NoInternalIDError struct {
	Resource Resource
}

func (e *NoInternalIDError) Error() string {
	return "referencing: resource has no internal id and cannot be added without an explicit uri"
}

// UnretrievableError wraps a retrieve hook failure for a given URI.
type UnretrievableError struct {
	URI string
	Err error
}

func (e *UnretrievableError) Error() string {
	return fmt.Sprintf("referencing: could not retrieve %q: %v", e.URI, e.Err)
}

func (e *UnretrievableError) Unwrap() error { return e.Err }

// ResourceConflictError is returned by With* / Combine when the same URI is
// registered twice with differing resources.
type ResourceConflictError struct {
	URI      string
	Existing Resource
	New      Resource
}

func (e *ResourceConflictError) Error() string {
	return fmt.Sprintf("referencing: %q is already registered with a different resource", e.URI)
}
