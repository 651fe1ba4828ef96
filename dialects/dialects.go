// Package dialects is the concrete JSON Schema dialect table: the
// referencing.Specification descriptors for drafts 4, 6, 7, 2019-09 and
// 2020-12. The core engine (package referencing) never special-cases a
// dialect name; every dialect-specific rule lives here.
package dialects

import (
	"iter"

	"github.com/python-jsonschema/referencing"
)

// schemaBearing describes how one keyword's value should be walked to find
// nested subresources.
type schemaBearing struct {
	keyword string
	kind    kind
}

type kind int

const (
	// single: the keyword's value, if an object, is itself a subresource.
	single kind = iota
	// flexibleItems: the value is a subresource if an object, or (pre-2020
	// "items") an array of subresources if an array.
	flexibleItems
	// array: the value is an array whose object elements are subresources.
	array
	// mapValues: the value is an object whose object-valued properties are
	// subresources.
	mapValues
)

func (sb schemaBearing) collect(obj map[string]any, yield func(any) bool) bool {
	v, ok := obj[sb.keyword]
	if !ok {
		return true
	}
	switch sb.kind {
	case single:
		if sub, ok := v.(map[string]any); ok {
			if !yield(sub) {
				return false
			}
		}
	case flexibleItems:
		switch items := v.(type) {
		case map[string]any:
			if !yield(items) {
				return false
			}
		case []any:
			for _, item := range items {
				if sub, ok := item.(map[string]any); ok {
					if !yield(sub) {
						return false
					}
				}
			}
		}
	case array:
		arr, ok := v.([]any)
		if !ok {
			return true
		}
		for _, item := range arr {
			if sub, ok := item.(map[string]any); ok {
				if !yield(sub) {
					return false
				}
			}
		}
	case mapValues:
		m, ok := v.(map[string]any)
		if !ok {
			return true
		}
		for _, pv := range m {
			if sub, ok := pv.(map[string]any); ok {
				if !yield(sub) {
					return false
				}
			}
		}
	}
	return true
}

// subresourcesFunc builds a referencing.Specification.SubresourcesOf
// implementation that walks table in order, skipping boolean schemas
// entirely (they carry no further subresources).
func subresourcesFunc(table []schemaBearing) func(any) iter.Seq[any] {
	return func(contents any) iter.Seq[any] {
		return func(yield func(any) bool) {
			obj, ok := contents.(map[string]any)
			if !ok {
				return // boolean schema: no subresources
			}
			for _, sb := range table {
				if !sb.collect(obj, yield) {
					return
				}
			}
		}
	}
}

// commonObjectKeywords are schema-bearing keywords present, with identical
// meaning, from Draft4 through 2020-12.
var commonObjectKeywords = []schemaBearing{
	{"properties", mapValues},
	{"patternProperties", mapValues},
	{"definitions", mapValues}, // inspected even where renamed to "$defs"
	{"allOf", array},
	{"anyOf", array},
	{"oneOf", array},
	{"not", single},
}

func idOf(keyword string) func(any) string {
	return func(contents any) string {
		obj, ok := contents.(map[string]any)
		if !ok {
			return ""
		}
		id, _ := obj[keyword].(string)
		return id
	}
}

func anchorsPreDraft2019(idKeyword string) func(any) iter.Seq[referencing.Anchor] {
	return func(contents any) iter.Seq[referencing.Anchor] {
		return func(yield func(referencing.Anchor) bool) {
			obj, ok := contents.(map[string]any)
			if !ok {
				return
			}
			if _, hasRef := obj["$ref"]; hasRef {
				// All other properties in a "$ref" object are ignored.
				return
			}
			id, ok := obj[idKeyword].(string)
			if !ok {
				return
			}
			_, frag, hasFrag := cutFragment(id)
			if !hasFrag || frag == "" || containsSlash(frag) {
				return
			}
			yield(referencing.Anchor{Name: frag})
		}
	}
}

func anchors2019() func(any) iter.Seq[referencing.Anchor] {
	return func(contents any) iter.Seq[referencing.Anchor] {
		return func(yield func(referencing.Anchor) bool) {
			obj, ok := contents.(map[string]any)
			if !ok {
				return
			}
			if name, ok := obj["$anchor"].(string); ok && name != "" {
				if !yield(referencing.Anchor{Name: name}) {
					return
				}
			}
		}
	}
}

func anchors2020() func(any) iter.Seq[referencing.Anchor] {
	return func(contents any) iter.Seq[referencing.Anchor] {
		return func(yield func(referencing.Anchor) bool) {
			obj, ok := contents.(map[string]any)
			if !ok {
				return
			}
			if name, ok := obj["$anchor"].(string); ok && name != "" {
				if !yield(referencing.Anchor{Name: name}) {
					return
				}
			}
			if name, ok := obj["$dynamicAnchor"].(string); ok && name != "" {
				if !yield(referencing.Anchor{Name: name, Dynamic: true}) {
					return
				}
			}
		}
	}
}

func cutFragment(s string) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '#' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func containsSlash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return true
		}
	}
	return false
}

// Draft4 is http://json-schema.org/draft-04/schema#.
var Draft4 = referencing.Specification{
	Name:          "draft4",
	MetaSchemaURI: "http://json-schema.org/draft-04/schema#",
	IDOf:          idOf("id"),
	AnchorsIn:     anchorsPreDraft2019("id"),
	SubresourcesOf: subresourcesFunc(append([]schemaBearing{
		{"items", flexibleItems},
		{"additionalItems", single},
		{"additionalProperties", single},
	}, commonObjectKeywords...)),
}

// Draft6 is http://json-schema.org/draft-06/schema#.
var Draft6 = referencing.Specification{
	Name:          "draft6",
	MetaSchemaURI: "http://json-schema.org/draft-06/schema#",
	IDOf:          idOf("$id"),
	AnchorsIn:     anchorsPreDraft2019("$id"),
	SubresourcesOf: subresourcesFunc(append([]schemaBearing{
		{"items", flexibleItems},
		{"additionalItems", single},
		{"additionalProperties", single},
		{"contains", single},
		{"propertyNames", single},
	}, commonObjectKeywords...)),
}

// Draft7 is http://json-schema.org/draft-07/schema#.
var Draft7 = referencing.Specification{
	Name:          "draft7",
	MetaSchemaURI: "http://json-schema.org/draft-07/schema#",
	IDOf:          idOf("$id"),
	AnchorsIn:     anchorsPreDraft2019("$id"),
	SubresourcesOf: subresourcesFunc(append([]schemaBearing{
		{"items", flexibleItems},
		{"additionalItems", single},
		{"additionalProperties", single},
		{"contains", single},
		{"propertyNames", single},
		{"if", single},
		{"then", single},
		{"else", single},
	}, commonObjectKeywords...)),
}

// Draft2019 is https://json-schema.org/draft/2019-09/schema.
var Draft2019 = referencing.Specification{
	Name:          "draft2019-09",
	MetaSchemaURI: "https://json-schema.org/draft/2019-09/schema",
	IDOf:          idOf("$id"),
	AnchorsIn:     anchors2019(),
	SubresourcesOf: subresourcesFunc(append([]schemaBearing{
		{"items", flexibleItems},
		{"additionalItems", single},
		{"additionalProperties", single},
		{"contains", single},
		{"propertyNames", single},
		{"if", single},
		{"then", single},
		{"else", single},
		{"dependentSchemas", mapValues},
		{"unevaluatedItems", single},
		{"unevaluatedProperties", single},
		{"$defs", mapValues},
	}, commonObjectKeywords...)),
	RecursiveAnchorAt: func(contents any) bool {
		obj, ok := contents.(map[string]any)
		if !ok {
			return false
		}
		v, _ := obj["$recursiveAnchor"].(bool)
		return v
	},
}

// Draft2020 is https://json-schema.org/draft/2020-12/schema.
var Draft2020 = referencing.Specification{
	Name:          "draft2020-12",
	MetaSchemaURI: "https://json-schema.org/draft/2020-12/schema",
	IDOf:          idOf("$id"),
	AnchorsIn:     anchors2020(),
	SubresourcesOf: subresourcesFunc(append([]schemaBearing{
		{"items", single},
		{"prefixItems", array},
		{"additionalProperties", single},
		{"contains", single},
		{"propertyNames", single},
		{"if", single},
		{"then", single},
		{"else", single},
		{"dependentSchemas", mapValues},
		{"unevaluatedItems", single},
		{"unevaluatedProperties", single},
		{"$defs", mapValues},
	}, commonObjectKeywords...)),
}

// All returns the dialect table in draft order, the slice
// referencing.FromContents/DetectSpecification consult to infer a
// resource's specification from its "$schema" keyword.
func All() []referencing.Specification {
	return []referencing.Specification{Draft4, Draft6, Draft7, Draft2019, Draft2020}
}
