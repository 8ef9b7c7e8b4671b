// Package document models a parsed specification as a tree of scalars,
// sequences and mappings.
package document

import (
	"reflect"
	"slices"
	"sort"
)

// RefKey is the key of a reference node.
const RefKey = "$ref"

// CyclicKey tags a reference that was left unexpanded because it is already
// being expanded further up the tree.
const CyclicKey = "x-cyclic"

// Node is one of Scalar, Sequence, Mapping or CyclicRef.
type Node interface {
	node()
}

// Scalar holds a string, int, float64, bool or nil.
type Scalar struct {
	Value any
}

// Sequence is an ordered list of nodes.
type Sequence []Node

// Mapping maps string keys to nodes.
type Mapping map[string]Node

// CyclicRef marks a reference the resolver did not expand again.
type CyclicRef struct {
	Ref string
}

func (Scalar) node()    {}
func (Sequence) node()  {}
func (Mapping) node()   {}
func (CyclicRef) node() {}

// String is shorthand for a string scalar.
func String(s string) Scalar {
	return Scalar{Value: s}
}

// Ref returns the target path when m is a reference: exactly one key, $ref,
// holding a string.
func (m Mapping) Ref() (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	s, ok := m[RefKey].(Scalar)
	if !ok {
		return "", false
	}
	path, ok := s.Value.(string)
	return path, ok
}

// Keys returns the mapping keys in sorted order.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get walks nested mappings along path. It returns false when a step is
// missing or lands on something other than a mapping before the end.
func (m Mapping) Get(path ...string) (Node, bool) {
	var cur Node = m
	for _, p := range path {
		mm, ok := cur.(Mapping)
		if !ok {
			return nil, false
		}
		cur, ok = mm[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Node) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Scalar:
		bv, ok := b.(Scalar)
		return ok && reflect.DeepEqual(av.Value, bv.Value)
	case CyclicRef:
		bv, ok := b.(CyclicRef)
		return ok && av.Ref == bv.Ref
	case Sequence:
		bv, ok := b.(Sequence)
		return ok && slices.EqualFunc(av, bv, Equal)
	case Mapping:
		bv, ok := b.(Mapping)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return false
}
