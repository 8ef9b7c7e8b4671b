// Package specerrors defines the error kinds raised while obtaining, parsing
// and dereferencing the Alpaca device API specification.
//
// Each error type matches its sentinel with errors.Is, and the concrete type
// can be recovered with errors.As:
//
//	var refErr *specerrors.UnresolvedReferenceError
//	if errors.As(err, &refErr) {
//	    fmt.Println("missing component:", refErr.Ref)
//	}
package specerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch indicates the spec text could not be read from cache or network.
	ErrFetch = errors.New("spec fetch error")

	// ErrMalformedSpec indicates the spec parsed but lacks expected structure.
	ErrMalformedSpec = errors.New("malformed spec")

	// ErrUnresolvedReference indicates a $ref names a path absent from the component index.
	ErrUnresolvedReference = errors.New("unresolved reference")
)

// FetchError reports a network or filesystem failure while obtaining spec text.
type FetchError struct {
	// Source is the URL or file path involved.
	Source string
	// Op is what was being done: "read cache", "fetch", "write cache".
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("spec fetch error: %s %s", e.Op, e.Source)
	}
	return fmt.Sprintf("spec fetch error: %s %s: %v", e.Op, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// MalformedSpecError reports a document that is missing an expected section or
// has one of the wrong shape.
type MalformedSpecError struct {
	// Section is the slash separated location, e.g. "components/schemas".
	Section string
	Message string
	Err     error
}

func (e *MalformedSpecError) Error() string {
	msg := "malformed spec"
	if e.Section != "" {
		msg += " at " + e.Section
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedSpecError) Unwrap() error { return e.Err }

func (e *MalformedSpecError) Is(target error) bool { return target == ErrMalformedSpec }

// UnresolvedReferenceError reports a $ref whose path has no component.
type UnresolvedReferenceError struct {
	Ref string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: %s", e.Ref)
}

func (e *UnresolvedReferenceError) Is(target error) bool { return target == ErrUnresolvedReference }
