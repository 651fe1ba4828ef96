package referencing_test

import (
	"testing"

	referencing "github.com/python-jsonschema/referencing"
	"github.com/python-jsonschema/referencing/dialects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anchorN() map[string]any {
	return map[string]any{
		"$id":     "urn:ex:a",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"$defs": map[string]any{
			"N": map[string]any{"$anchor": "N", "type": "integer", "minimum": 0},
		},
	}
}

func TestRegistryPointerIntoDefs(t *testing.T) {
	reg := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	reg, err := reg.WithContents(map[string]any{"urn:ex:a": anchorN()})
	require.NoError(t, err)

	resolver, err := reg.Resolver("")
	require.NoError(t, err)

	resolved, err := resolver.Lookup("urn:ex:a#/$defs/N")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$anchor": "N", "type": "integer", "minimum": 0}, resolved.Contents)
}

func TestRegistryPlainNameAnchor(t *testing.T) {
	reg := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	reg, err := reg.WithContents(map[string]any{"urn:ex:a": anchorN()})
	require.NoError(t, err)

	resolver, err := reg.Resolver("")
	require.NoError(t, err)

	byPointer, err := resolver.Lookup("urn:ex:a#/$defs/N")
	require.NoError(t, err)
	byAnchor, err := resolver.Lookup("urn:ex:a#N")
	require.NoError(t, err)
	assert.Equal(t, byPointer.Contents, byAnchor.Contents)
}

func TestRegistryNonCanonicalURIAnchor(t *testing.T) {
	reg := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	reg, err := reg.WithContents(map[string]any{"http://x/": anchorN()})
	require.NoError(t, err)

	resolver, err := reg.Resolver("")
	require.NoError(t, err)

	resolved, err := resolver.Lookup("http://x/#N")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"$anchor": "N", "type": "integer", "minimum": 0}, resolved.Contents)
}

func TestRegistryNonCanonicalRegistrationAlsoResolvesByOwnID(t *testing.T) {
	reg := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	reg, err := reg.WithContents(map[string]any{"http://x/": anchorN()})
	require.NoError(t, err)

	resolver, err := reg.Resolver("")
	require.NoError(t, err)

	byNonCanonical, err := resolver.Lookup("http://x/#N")
	require.NoError(t, err)
	byCanonical, err := resolver.Lookup("urn:ex:a#N")
	require.NoError(t, err)
	assert.Equal(t, byNonCanonical.Contents, byCanonical.Contents)
}

func TestRegistryWithIdentifiedResourceNoInternalID(t *testing.T) {
	reg := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	res := dialects.Draft2020.CreateResource(map[string]any{"type": "string"})

	_, err := reg.WithIdentifiedResource(res)
	require.Error(t, err)
	var noID *referencing.NoInternalIDError
	assert.ErrorAs(t, err, &noID)
}

func TestRegistryWithIdentifiedResourceUsesOwnID(t *testing.T) {
	reg := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	res := dialects.Draft2020.CreateResource(map[string]any{
		"$id":     "urn:ex:c",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "string",
	})

	reg, err := reg.WithIdentifiedResource(res)
	require.NoError(t, err)

	got, _, err := reg.Get("urn:ex:c")
	require.NoError(t, err)
	assert.Equal(t, res.Contents(), got.Contents())
}

func TestFromContentsMissingSchema(t *testing.T) {
	_, err := referencing.FromContents(map[string]any{"$id": "urn:b", "type": "integer"}, dialects.All())
	require.Error(t, err)
	var cannot *referencing.CannotDetermineSpecificationError
	assert.ErrorAs(t, err, &cannot)
}

func TestRegistryInvalidFragmentSuggestion(t *testing.T) {
	reg := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	reg, err := reg.WithContents(map[string]any{"urn:ex:a": anchorN()})
	require.NoError(t, err)

	resolver, err := reg.Resolver("")
	require.NoError(t, err)

	_, err = resolver.Lookup("urn:ex:a#foo/bar")
	require.Error(t, err)
	var invalid *referencing.InvalidAnchorError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Suggestion, "#/foo/bar")
}

func TestRegistryResourceConflict(t *testing.T) {
	reg := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	reg, err := reg.WithContents(map[string]any{"urn:ex:a": anchorN()})
	require.NoError(t, err)

	other := map[string]any{
		"$id":     "urn:ex:a",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "string",
	}
	_, err = reg.WithContents(map[string]any{"urn:ex:a": other})
	require.Error(t, err)
	var conflict *referencing.ResourceConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestRegistryGetUnknownURI(t *testing.T) {
	reg := referencing.NewRegistry()
	_, _, err := reg.Get("urn:missing")
	require.Error(t, err)
	var notFound *referencing.NoSuchResourceError
	assert.ErrorAs(t, err, &notFound)
}

func TestRegistryRetrieveHookMemoizes(t *testing.T) {
	calls := 0
	hook := referencing.Retrieve(func(uri string) (referencing.Resource, error) {
		calls++
		return dialects.Draft2020.CreateResource(map[string]any{"$id": uri, "type": "string"}), nil
	})
	reg := referencing.NewRegistry(referencing.WithRetrieveHook(hook))

	_, reg, err := reg.Get("urn:fetched")
	require.NoError(t, err)
	_, _, err = reg.Get("urn:fetched")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRegistryCombineConflict(t *testing.T) {
	a := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	a, err := a.WithContents(map[string]any{"urn:ex:a": anchorN()})
	require.NoError(t, err)

	b := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	b, err = b.WithContents(map[string]any{"urn:ex:a": map[string]any{
		"$id":     "urn:ex:a",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "boolean",
	}})
	require.NoError(t, err)

	_, err = a.Combine(b)
	require.Error(t, err)
	var conflict *referencing.ResourceConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestRegistryLenAndResources(t *testing.T) {
	reg := referencing.NewRegistry(referencing.WithSpecificationTable(dialects.All()))
	reg, err := reg.WithContents(map[string]any{
		"urn:ex:a": anchorN(),
		"urn:ex:b": map[string]any{"$id": "urn:ex:b", "$schema": "https://json-schema.org/draft/2020-12/schema", "type": "string"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	var seen []string
	for u, _ := range reg.Resources() {
		seen = append(seen, u)
	}
	assert.Equal(t, []string{"urn:ex:a", "urn:ex:b"}, seen)
}
