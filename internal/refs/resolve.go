package refs

import (
	"strings"

	"github.com/tinyalpaca/alpacagen/internal/document"
	"github.com/tinyalpaca/alpacagen/internal/specerrors"
)

const (
	pathsKey = "paths"

	// deviceTypeSegment is the path segment shared by operations common to
	// every device type.
	deviceTypeSegment = "{device_type}"
)

// Resolve returns a copy of n with every reference replaced by the resolved
// component it names. A reference met again while its own expansion is still
// in progress becomes a document.CyclicRef instead of being expanded.
// Neither n nor idx is modified.
func Resolve(n document.Node, idx Index) (document.Node, error) {
	r := &resolver{
		index:     idx,
		resolving: make(map[string]bool),
	}
	return r.resolve(n)
}

// ResolvePaths resolves the paths section. When deviceType is not empty only
// the paths served by that device type are kept, including the ones common to
// all device types.
func ResolvePaths(doc document.Mapping, idx Index, deviceType string) (document.Mapping, error) {
	paths, err := Paths(doc)
	if err != nil {
		return nil, err
	}

	selected := make(document.Mapping, len(paths))
	for p, item := range paths {
		if deviceType == "" || PathDeviceType(p) == deviceType || PathDeviceType(p) == deviceTypeSegment {
			selected[p] = item
		}
	}

	resolved, err := Resolve(selected, idx)
	if err != nil {
		return nil, err
	}
	m, ok := resolved.(document.Mapping)
	if !ok {
		return nil, &specerrors.MalformedSpecError{Section: pathsKey, Message: "expected a mapping"}
	}
	return m, nil
}

// Paths returns the paths section of doc.
func Paths(doc document.Mapping) (document.Mapping, error) {
	raw, ok := doc[pathsKey]
	if !ok {
		return nil, &specerrors.MalformedSpecError{Section: pathsKey, Message: "section is missing"}
	}
	paths, ok := raw.(document.Mapping)
	if !ok {
		return nil, &specerrors.MalformedSpecError{Section: pathsKey, Message: "expected a mapping"}
	}
	return paths, nil
}

// PathDeviceType returns the first segment of an API path, which names the
// device type ("/camera/{device_number}/gain" -> "camera").
func PathDeviceType(path string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return seg
}

type resolver struct {
	index Index
	// resolving holds the refs being expanded on the current recursion path.
	resolving map[string]bool
}

func (r *resolver) resolve(n document.Node) (document.Node, error) {
	switch v := n.(type) {
	case document.Mapping:
		if ref, ok := v.Ref(); ok {
			return r.resolveRef(ref)
		}
		out := make(document.Mapping, len(v))
		for _, k := range v.Keys() {
			rv, err := r.resolve(v[k])
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil

	case document.Sequence:
		out := make(document.Sequence, len(v))
		for i, item := range v {
			rv, err := r.resolve(item)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	}

	return n, nil
}

func (r *resolver) resolveRef(ref string) (document.Node, error) {
	if r.resolving[ref] {
		return document.CyclicRef{Ref: ref}, nil
	}

	target, ok := r.index.Lookup(ref)
	if !ok {
		return nil, &specerrors.UnresolvedReferenceError{Ref: ref}
	}

	r.resolving[ref] = true
	defer delete(r.resolving, ref)

	return r.resolve(target)
}
