package model

import (
	"slices"
	"sort"
	"strings"
)

// CommonDeviceType is the path segment of operations every device type serves.
const CommonDeviceType = "{device_type}"

type Spec struct {
	Info       Info
	Paths      []Path
	Operations []Operation
	// DeviceTypeEnum holds the values the device_type path parameter declares, if any.
	DeviceTypeEnum []string
}

type Info struct {
	Title       string
	Description string
	Version     string
}

type Path struct {
	Path       string
	DeviceType string
	Operations []Operation
}

// DeviceTypes returns the device types that have operations of their own,
// together with any declared in the device_type parameter, sorted.
func (s *Spec) DeviceTypes() []string {
	seen := make(map[string]bool)
	for _, p := range s.Paths {
		if p.DeviceType != "" && p.DeviceType != CommonDeviceType {
			seen[p.DeviceType] = true
		}
	}
	for _, dt := range s.DeviceTypeEnum {
		seen[strings.ToLower(dt)] = true
	}

	types := make([]string, 0, len(seen))
	for dt := range seen {
		types = append(types, dt)
	}
	sort.Strings(types)
	return types
}

// OperationsFor returns the operations a device type serves: its own and the
// common ones. An empty deviceType returns all operations.
func (s *Spec) OperationsFor(deviceType string) []Operation {
	if deviceType == "" {
		return s.Operations
	}
	var ops []Operation
	for _, op := range s.Operations {
		if op.DeviceType == deviceType || op.DeviceType == CommonDeviceType {
			ops = append(ops, op)
		}
	}
	return ops
}

// Operation returns the operation for method and path.
func (s *Spec) Operation(method Method, path string) (*Operation, bool) {
	i := slices.IndexFunc(s.Operations, func(op Operation) bool {
		return op.Method == method && op.Path == path
	})
	if i < 0 {
		return nil, false
	}
	return &s.Operations[i], true
}
