package referencing

import (
	"bytes"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
)

// Retrieve is the registry's single injection point for producing a
// Resource for a URI it does not yet know about. Implementations are
// expected to be pure enough to memoize: concurrent misses for the same URI
// share a single call, and the result is memoized into the Registry that
// Registry.Get returns. A later miss on a Registry that does not hold that
// result calls the Retrieve again.
type Retrieve func(uri string) (Resource, error)

// TextRetriever adapts a function that fetches raw JSON text into a
// Retrieve, decoding the result with goccy/go-json (UseNumber-equivalent
// number handling, matching how callers decode resources elsewhere in this
// module) and inferring its Specification via FromContents against table.
// It additionally memoizes decoded results in-process, independent of
// whatever caching the returned Retrieve's caller layers on top via the
// registry's own read-through cache.
func TextRetriever(table []Specification, fetch func(uri string) ([]byte, error)) Retrieve {
	var (
		mu    sync.Mutex
		cache = map[string]Resource{}
	)
	return func(uri string) (Resource, error) {
		mu.Lock()
		if res, ok := cache[uri]; ok {
			mu.Unlock()
			return res, nil
		}
		mu.Unlock()

		data, err := fetch(uri)
		if err != nil {
			return Resource{}, fmt.Errorf("retrieving %q: %w", uri, err)
		}
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		var contents any
		if err := decoder.Decode(&contents); err != nil {
			return Resource{}, fmt.Errorf("decoding %q: %w", uri, err)
		}
		res, err := FromContents(contents, table)
		if err != nil {
			return Resource{}, err
		}

		mu.Lock()
		cache[uri] = res
		mu.Unlock()
		return res, nil
	}
}
