package referencing

import (
	"reflect"
	"sort"

	"github.com/python-jsonschema/referencing/internal/pmap"
	"github.com/python-jsonschema/referencing/uri"
	"golang.org/x/sync/singleflight"
)

// indexedAnchor is what the registry's anchor index stores for one
// (uri, name) pair: the exact subtree the anchor designates, plus whether
// it is a dynamic anchor participating in the $dynamicRef scope walk.
type indexedAnchor struct {
	resource Resource
	dynamic  bool
}

// ResolvedAnchor is the result of a successful Registry.Anchor lookup.
type ResolvedAnchor struct {
	Resource Resource
	Dynamic  bool
}

// retrieveCache is the mutable, pointer-shared half of a Registry's
// retrieve hook: the hook function itself plus a singleflight.Group that
// dedups concurrent misses for the same URI across every Registry value
// derived from the one that configured the hook (spec.md §8 property 9,
// §5 concurrency model).
type retrieveCache struct {
	fn    Retrieve
	group singleflight.Group
}

// Registry is an immutable, structurally-shared mapping from absolute URI
// to Resource, an anchor index, and a set of URIs registered but not yet
// crawled for nested $id/$anchor declarations. Every With* method and Crawl
// return a new Registry; the receiver is never mutated.
type Registry struct {
	resources pmap.Map[string, Resource]
	anchors   pmap.Map[string, pmap.Map[string, indexedAnchor]]
	uncrawled pmap.Map[string, struct{}]
	table     []Specification
	cache     *retrieveCache
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithRetrieveHook configures the function the registry calls on a Get
// miss. Its results are memoized into the Registry returned by Get.
func WithRetrieveHook(fn Retrieve) RegistryOption {
	return func(r *Registry) {
		if fn != nil {
			r.cache = &retrieveCache{fn: fn}
		}
	}
}

// WithSpecificationTable supplies the dialect table WithContents consults
// to detect a resource's Specification from "$schema". TextRetriever and
// the retrieve transports take their own table argument and do not see
// this one. Without this option, WithContents fails on every pair with
// CannotDetermineSpecificationError.
func WithSpecificationTable(table []Specification) RegistryOption {
	return func(r *Registry) { r.table = table }
}

// NewRegistry returns the empty registry, configured by opts.
func NewRegistry(opts ...RegistryOption) Registry {
	var r Registry
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// sameResource reports whether a and b are the same resource for
// conflict-detection purposes: same dialect name and deeply equal
// contents. (Specification holds func fields, so Resource cannot use plain
// ==.)
func sameResource(a, b Resource) bool {
	return a.spec.Name == b.spec.Name && reflect.DeepEqual(a.contents, b.contents)
}

// normalizeKey parses u and returns its absolute part with an empty
// fragment stripped: the string every registry map is keyed by.
func normalizeKey(u string) (string, error) {
	parsed, err := uri.Parse(u)
	if err != nil {
		return "", err
	}
	return parsed.WithEmptyFragmentStripped().Absolute, nil
}

// WithResource registers resource under u (normalized), returning the
// derived Registry. Registering the identical resource twice under the
// same URI is a no-op; registering a different one is a
// ResourceConflictError.
//
// When resource declares its own internal id and that id (joined against
// u) differs from u, the registry additionally registers resource under
// that canonical URI: a resource registered non-canonically must still be
// reachable, with identical anchors, from its own id (spec.md §8
// invariant 6).
func (reg Registry) WithResource(u string, resource Resource) (Registry, error) {
	key, err := normalizeKey(u)
	if err != nil {
		return reg, err
	}
	next, err := reg.withResourceAt(key, resource)
	if err != nil {
		return reg, err
	}
	canon, err := canonicalURIOf(key, resource)
	if err != nil {
		return reg, err
	}
	if canon == "" || canon == key {
		return next, nil
	}
	next, err = next.withResourceAt(canon, resource)
	if err != nil {
		return reg, err
	}
	return next, nil
}

// withResourceAt registers resource under the already-normalized key,
// without any canonical-alias follow-up.
func (reg Registry) withResourceAt(key string, resource Resource) (Registry, error) {
	if existing, ok := reg.resources.Get(key); ok {
		if sameResource(existing, resource) {
			return reg, nil
		}
		return reg, &ResourceConflictError{URI: key, Existing: existing, New: resource}
	}
	next := reg
	next.resources = reg.resources.With(key, resource)
	next.uncrawled = reg.uncrawled.With(key, struct{}{})
	return next, nil
}

// canonicalURIOf returns the URI resource's own id designates, joined
// against base, with its empty fragment stripped — or "" if resource
// declares no id.
func canonicalURIOf(base string, resource Resource) (string, error) {
	id := resource.ID()
	if id == "" {
		return "", nil
	}
	baseURI, err := uri.Parse(base)
	if err != nil {
		return "", err
	}
	joined, err := uri.Join(baseURI, id)
	if err != nil {
		return "", err
	}
	return joined.WithEmptyFragmentStripped().Absolute, nil
}

// WithResources registers every (uri, resource) pair, as repeated calls to
// WithResource would.
func (reg Registry) WithResources(pairs map[string]Resource) (Registry, error) {
	next := reg
	for u, res := range pairs {
		var err error
		next, err = next.WithResource(u, res)
		if err != nil {
			return reg, err
		}
	}
	return next, nil
}

// WithContents registers every (uri, json value) pair, inferring each
// value's Specification via FromContents against the registry's dialect
// table (see WithSpecificationTable).
func (reg Registry) WithContents(pairs map[string]any) (Registry, error) {
	next := reg
	for u, contents := range pairs {
		res, err := FromContents(contents, next.table)
		if err != nil {
			return reg, err
		}
		next, err = next.WithResource(u, res)
		if err != nil {
			return reg, err
		}
	}
	return next, nil
}

// WithIdentifiedResource registers resource under the URI given by its own
// ID(), failing with NoInternalIDError if it declares none.
func (reg Registry) WithIdentifiedResource(resource Resource) (Registry, error) {
	id := resource.ID()
	if id == "" {
		return reg, &NoInternalIDError{Resource: resource}
	}
	return reg.WithResource(id, resource)
}

// Crawl walks every uncrawled resource's subresources, registering any
// that declare their own id and indexing every anchor discovered along the
// way (spec.md §4.5). It is idempotent: crawling an already-crawled
// registry is a no-op.
func (reg Registry) Crawl() (Registry, error) {
	next := reg
	var pending []string
	next.uncrawled.All(func(u string, _ struct{}) bool {
		pending = append(pending, u)
		return true
	})
	for _, u := range pending {
		res, ok := next.resources.Get(u)
		if !ok {
			continue
		}
		var err error
		next, err = next.crawlInto(u, res)
		if err != nil {
			return reg, err
		}
		next.uncrawled = next.uncrawled.Without(u)
	}
	return next, nil
}

// crawlInto indexes res's own anchors under base and recurses into res's
// subresources: those with an id() are registered at the URI obtained by
// joining that id against base and crawled from there; those without are
// walked in place, their anchors indexed under the same base.
func (reg Registry) crawlInto(base string, res Resource) (Registry, error) {
	next := reg
	for a := range res.Anchors() {
		next = next.indexAnchor(base, a.Name, indexedAnchor{resource: res, dynamic: a.Dynamic})
	}

	baseURI, err := uri.Parse(base)
	if err != nil {
		return reg, err
	}

	for sub := range res.Subresources() {
		id := sub.ID()
		if id == "" {
			next, err = next.crawlInto(base, sub)
			if err != nil {
				return reg, err
			}
			continue
		}
		joined, err := uri.Join(baseURI, id)
		if err != nil {
			return reg, err
		}
		subAbs := joined.WithEmptyFragmentStripped().Absolute
		if existing, ok := next.resources.Get(subAbs); ok {
			if !sameResource(existing, sub) {
				return reg, &ResourceConflictError{URI: subAbs, Existing: existing, New: sub}
			}
		} else {
			next.resources = next.resources.With(subAbs, sub)
		}
		next, err = next.crawlInto(subAbs, sub)
		if err != nil {
			return reg, err
		}
	}
	return next, nil
}

// indexAnchor records that name, found at base, designates entry.
func (reg Registry) indexAnchor(base, name string, entry indexedAnchor) Registry {
	next := reg
	byName, _ := next.anchors.Get(base)
	next.anchors = next.anchors.With(base, byName.With(name, entry))
	return next
}

// Get returns the resource registered at u (fragment ignored), invoking
// the configured retrieve hook on a miss and returning the Registry the
// hook's result was memoized into. Callers that want the benefit of that
// memoization on a subsequent Get must use the returned Registry, not the
// receiver.
func (reg Registry) Get(u string) (Resource, Registry, error) {
	key, err := normalizeKey(u)
	if err != nil {
		return Resource{}, reg, err
	}
	if res, ok := reg.resources.Get(key); ok {
		return res, reg, nil
	}
	if reg.cache == nil {
		return Resource{}, reg, &NoSuchResourceError{URI: key}
	}
	v, err, _ := reg.cache.group.Do(key, func() (any, error) {
		return reg.cache.fn(key)
	})
	if err != nil {
		return Resource{}, reg, &UnretrievableError{URI: key, Err: err}
	}
	res := v.(Resource)
	next, err := reg.WithResource(key, res)
	if err != nil {
		return Resource{}, reg, err
	}
	return res, next, nil
}

// Anchor looks up the named anchor within the resource registered at u,
// crawling that resource first if it has not yet been crawled.
func (reg Registry) Anchor(u, name string) (ResolvedAnchor, Registry, error) {
	_, next, err := reg.Get(u)
	if err != nil {
		return ResolvedAnchor{}, next, err
	}
	key, _ := normalizeKey(u)
	if _, stillUncrawled := next.uncrawled.Get(key); stillUncrawled {
		res, _ := next.resources.Get(key)
		next, err = next.crawlInto(key, res)
		if err != nil {
			return ResolvedAnchor{}, reg, err
		}
		next.uncrawled = next.uncrawled.Without(key)
	}
	byName, ok := next.anchors.Get(key)
	if !ok {
		return ResolvedAnchor{}, next, &NoSuchAnchorError{URI: key, Name: name}
	}
	entry, ok := byName.Get(name)
	if !ok {
		return ResolvedAnchor{}, next, &NoSuchAnchorError{URI: key, Name: name}
	}
	return ResolvedAnchor{Resource: entry.resource, Dynamic: entry.dynamic}, next, nil
}

// Contents returns the JSON contents of the resource registered at u.
func (reg Registry) Contents(u string) (any, Registry, error) {
	res, next, err := reg.Get(u)
	if err != nil {
		return nil, next, err
	}
	return res.Contents(), next, nil
}

// Resolver returns a Resolver positioned at baseURI.
func (reg Registry) Resolver(baseURI string) (Resolver, error) {
	base, err := uri.Parse(baseURI)
	if err != nil {
		return Resolver{}, err
	}
	return Resolver{base: base, registry: reg}, nil
}

// ResolverWithRoot is like Resolver, but additionally registers resource
// as the anonymous root (URI "") before positioning the resolver there.
func (reg Registry) ResolverWithRoot(resource Resource) (Resolver, error) {
	next, err := reg.WithResource("", resource)
	if err != nil {
		return Resolver{}, err
	}
	return Resolver{base: uri.Uri{}, registry: next}, nil
}

// Combine merges reg and other; a URI registered differently in both is a
// ResourceConflictError naming the URI and both conflicting resources.
func (reg Registry) Combine(other Registry) (Registry, error) {
	next := reg
	var err error
	other.resources.All(func(u string, res Resource) bool {
		next, err = next.WithResource(u, res)
		return err == nil
	})
	if err != nil {
		return reg, err
	}
	other.uncrawled.All(func(u string, _ struct{}) bool {
		if _, crawled := next.resources.Get(u); crawled {
			if _, stillUncrawled := next.uncrawled.Get(u); !stillUncrawled {
				return true
			}
		}
		next.uncrawled = next.uncrawled.With(u, struct{}{})
		return true
	})
	return next, nil
}

// Len reports the number of distinct registered URIs.
func (reg Registry) Len() int {
	return reg.resources.Len()
}

// Resources iterates every (uri, resource) pair in the registry, in
// ascending URI order for reproducible output.
func (reg Registry) Resources() func(func(string, Resource) bool) {
	return func(yield func(string, Resource) bool) {
		keys := make([]string, 0, reg.resources.Len())
		reg.resources.All(func(k string, _ Resource) bool {
			keys = append(keys, k)
			return true
		})
		sort.Strings(keys)
		for _, k := range keys {
			v, _ := reg.resources.Get(k)
			if !yield(k, v) {
				return
			}
		}
	}
}
