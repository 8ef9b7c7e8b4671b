// Package refs builds the component index of a spec document and replaces
// $ref nodes with the components they name.
package refs

import (
	"fmt"
	"sort"

	"github.com/tinyalpaca/alpacagen/internal/document"
	"github.com/tinyalpaca/alpacagen/internal/specerrors"
)

const componentsKey = "components"

// Index maps "#/components/{type}/{name}" to the component definition.
type Index map[string]document.Node

// BuildIndex collects every definition under the top-level components section.
func BuildIndex(doc document.Mapping) (Index, error) {
	raw, ok := doc[componentsKey]
	if !ok {
		return nil, &specerrors.MalformedSpecError{Section: componentsKey, Message: "section is missing"}
	}
	all, ok := raw.(document.Mapping)
	if !ok {
		return nil, &specerrors.MalformedSpecError{Section: componentsKey, Message: "expected a mapping"}
	}

	idx := make(Index)
	for _, componentType := range all.Keys() {
		ofType, ok := all[componentType].(document.Mapping)
		if !ok {
			return nil, &specerrors.MalformedSpecError{
				Section: componentsKey + "/" + componentType,
				Message: "expected a mapping of component names to definitions",
			}
		}
		for name, def := range ofType {
			idx[Path(componentType, name)] = def
		}
	}
	return idx, nil
}

// Path returns the reference path of a component.
func Path(componentType, name string) string {
	return fmt.Sprintf("#/%s/%s/%s", componentsKey, componentType, name)
}

// Lookup returns the definition at ref.
func (idx Index) Lookup(ref string) (document.Node, bool) {
	n, ok := idx[ref]
	return n, ok
}

// Keys returns the reference paths in sorted order.
func (idx Index) Keys() []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of indexed components.
func (idx Index) Len() int {
	return len(idx)
}
