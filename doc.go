// Package referencing implements a specification-agnostic reference
// resolution engine for JSON documents: an immutable, structurally-shared
// Registry of Resources, and a Resolver that follows $ref/$dynamicRef-style
// references through it while tracking the dynamic scope needed for
// 2019-09 $recursiveRef and 2020-12 $dynamicRef semantics.
//
// The engine itself knows nothing about JSON Schema; package dialects
// supplies the Specification descriptors for drafts 4 through 2020-12.
package referencing
