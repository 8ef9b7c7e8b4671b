package model

import "strings"

type Operation struct {
	ID          string
	Method      Method
	Path        string
	DeviceType  string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	// Parameters are values carried in the request path or query string.
	Parameters []Parameter
	// Properties are the named fields of the request body.
	Properties []Property
	Responses  []Response
}

// PathParameters returns the parameters whose position is fixed by the path template.
func (o Operation) PathParameters() []Parameter {
	return o.parametersIn(LocationPath)
}

// QueryParameters returns the parameters identified by name in the query string.
func (o Operation) QueryParameters() []Parameter {
	return o.parametersIn(LocationQuery)
}

func (o Operation) parametersIn(loc ParameterLocation) []Parameter {
	var out []Parameter
	for _, p := range o.Parameters {
		if p.In == loc {
			out = append(out, p)
		}
	}
	return out
}

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

// ParseMethod maps a case-insensitive HTTP method name to a Method.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToUpper(s))
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions, MethodTrace:
		return m, true
	}
	return "", false
}

type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
)

// Parameter is a named value in the request path or query string. Path
// parameters are positional, placed by name in the path template; query
// parameters may appear in any order and unknown ones are ignored.
type Parameter struct {
	Name        string
	In          ParameterLocation
	Description string
	Required    bool
	Type        string
	Format      string
	Enum        []string
}

// Property is a named value in a request or response body.
type Property struct {
	Name        string
	Description string
	Required    bool
	Type        string
	Format      string
}

type Response struct {
	StatusCode  string
	Description string
	// Schema is the name of the referenced component schema, if any.
	Schema string
}
