package pmap_test

import (
	"testing"

	"github.com/python-jsonschema/referencing/internal/pmap"
	"github.com/stretchr/testify/assert"
)

func TestWithLeavesOriginalUnchanged(t *testing.T) {
	m0 := pmap.Of(map[string]int{"a": 1})
	m1 := m0.With("b", 2)

	_, ok := m0.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 1, m0.Len())

	v, ok := m1.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, m1.Len())
}

func TestWithOverwriteDoesNotGrowLen(t *testing.T) {
	m0 := pmap.Of(map[string]int{"a": 1})
	m1 := m0.With("a", 2)
	assert.Equal(t, 1, m1.Len())
	v, _ := m1.Get("a")
	assert.Equal(t, 2, v)
}

func TestChainedLookupPrefersNewest(t *testing.T) {
	m := pmap.Of(map[string]int{"a": 1}).With("a", 2).With("a", 3)
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCompactPreservesObservableState(t *testing.T) {
	m := pmap.Of(map[string]int{"a": 1}).With("b", 2).With("c", 3)
	compacted := m.Compact()
	assert.Equal(t, m.Len(), compacted.Len())
	for _, k := range []string{"a", "b", "c"} {
		v1, ok1 := m.Get(k)
		v2, ok2 := compacted.Get(k)
		assert.Equal(t, ok1, ok2)
		assert.Equal(t, v1, v2)
	}
}

func TestAllVisitsEveryKeyOnce(t *testing.T) {
	m := pmap.Of(map[string]int{"a": 1, "b": 2}).With("c", 3).With("a", 10)
	seen := map[string]int{}
	m.All(func(k string, v int) bool {
		seen[k] = v
		return true
	})
	assert.Equal(t, map[string]int{"a": 10, "b": 2, "c": 3}, seen)
}

func TestWithAllSingleFrame(t *testing.T) {
	m := pmap.Of(map[string]int{"a": 1}).WithAll(map[string]int{"b": 2, "c": 3})
	assert.Equal(t, 3, m.Len())
}

func TestWithoutRemovesKeyWithoutAffectingOriginal(t *testing.T) {
	m0 := pmap.Of(map[string]int{"a": 1, "b": 2})
	m1 := m0.Without("a")

	_, ok := m1.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, m1.Len())

	v, ok := m0.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, m0.Len())
}

func TestWithoutThenWithRestoresKey(t *testing.T) {
	m := pmap.Of(map[string]int{"a": 1}).Without("a").With("a", 2)
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, m.Len())
}
