package refs

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tinyalpaca/alpacagen/internal/document"
	"github.com/tinyalpaca/alpacagen/internal/specerrors"
)

func ref(path string) document.Mapping {
	return document.Mapping{document.RefKey: document.String(path)}
}

func parse(t *testing.T, text string) document.Mapping {
	t.Helper()
	doc, err := document.Parse([]byte(text))
	require.NoError(t, err)
	return doc
}

func TestBuildIndex(t *testing.T) {
	doc := parse(t, `
components:
  schemas:
    Point:
      type: integer
    AlpacaResponse:
      type: object
  parameters:
    device_number:
      name: device_number
      in: path
    device_type:
      name: device_type
      in: path
  responses:
    "400":
      description: Bad request
`)

	idx, err := BuildIndex(doc)
	require.NoError(t, err)
	require.Equal(t, 5, idx.Len())
	require.Equal(t, []string{
		"#/components/parameters/device_number",
		"#/components/parameters/device_type",
		"#/components/responses/400",
		"#/components/schemas/AlpacaResponse",
		"#/components/schemas/Point",
	}, idx.Keys())

	point, ok := idx.Lookup("#/components/schemas/Point")
	require.True(t, ok)
	require.True(t, document.Equal(document.Mapping{"type": document.String("integer")}, point))

	_, ok = idx.Lookup("#/components/schemas/Missing")
	require.False(t, ok)
}

func TestBuildIndexEmptyTypes(t *testing.T) {
	idx, err := BuildIndex(parse(t, `
components:
  schemas: {}
  examples: {}
`))
	require.NoError(t, err)
	require.Zero(t, idx.Len())
}

func TestBuildIndexErrors(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		errContains string
	}{
		{
			name:        "missing components",
			input:       "paths: {}\n",
			errContains: "malformed spec at components: section is missing",
		},
		{
			name:        "components is a list",
			input:       "components:\n  - schemas\n",
			errContains: "malformed spec at components: expected a mapping",
		},
		{
			name:        "component type is a scalar",
			input:       "components:\n  schemas: nope\n",
			errContains: "malformed spec at components/schemas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildIndex(parse(t, tt.input))
			require.ErrorIs(t, err, specerrors.ErrMalformedSpec)
			require.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestBuildIndexDoesNotMutate(t *testing.T) {
	doc := parse(t, "components:\n  schemas:\n    A:\n      type: string\n")
	before := parse(t, "components:\n  schemas:\n    A:\n      type: string\n")

	_, err := BuildIndex(doc)
	require.NoError(t, err)
	require.True(t, document.Equal(before, doc))
}

func TestResolveWithoutReferences(t *testing.T) {
	doc := parse(t, `
paths:
  /camera/{device_number}/gain:
    get:
      summary: Returns the camera's gain
      tags: [Camera Specific Methods]
      responses:
        "200":
          description: Transaction complete or exception
`)

	got, err := Resolve(doc, Index{})
	require.NoError(t, err)
	require.True(t, document.Equal(doc, got))
}

func TestResolveSingleReference(t *testing.T) {
	idx := Index{
		"#/components/schemas/Point": document.Mapping{"type": document.String("integer")},
	}

	got, err := Resolve(ref("#/components/schemas/Point"), idx)
	require.NoError(t, err)
	require.True(t, document.Equal(document.Mapping{"type": document.String("integer")}, got))
}

func TestResolveNestedInSequences(t *testing.T) {
	idx, err := BuildIndex(parse(t, `
components:
  parameters:
    device_type:
      name: device_type
      in: path
      required: true
    device_number:
      name: device_number
      in: path
      required: true
`))
	require.NoError(t, err)

	doc := parse(t, `
get:
  parameters:
    - $ref: '#/components/parameters/device_type'
    - $ref: '#/components/parameters/device_number'
    - name: ClientID
      in: query
`)

	got, err := Resolve(doc, idx)
	require.NoError(t, err)

	want := parse(t, `
get:
  parameters:
    - name: device_type
      in: path
      required: true
    - name: device_number
      in: path
      required: true
    - name: ClientID
      in: query
`)
	require.True(t, document.Equal(want, got))
}

func TestResolveChain(t *testing.T) {
	idx := Index{
		"#/components/schemas/A": ref("#/components/schemas/B"),
		"#/components/schemas/B": document.Mapping{
			"type":  document.String("array"),
			"items": ref("#/components/schemas/C"),
		},
		"#/components/schemas/C": document.Mapping{"type": document.String("integer")},
	}

	got, err := Resolve(document.Mapping{"schema": ref("#/components/schemas/A")}, idx)
	require.NoError(t, err)

	want := document.Mapping{
		"schema": document.Mapping{
			"type":  document.String("array"),
			"items": document.Mapping{"type": document.String("integer")},
		},
	}
	require.True(t, document.Equal(want, got))
}

func TestResolveSelfReference(t *testing.T) {
	idx := Index{
		"#/components/schemas/A": document.Mapping{
			"type": document.String("object"),
			"properties": document.Mapping{
				"next": ref("#/components/schemas/A"),
			},
		},
	}

	got, err := Resolve(ref("#/components/schemas/A"), idx)
	require.NoError(t, err)

	want := document.Mapping{
		"type": document.String("object"),
		"properties": document.Mapping{
			"next": document.CyclicRef{Ref: "#/components/schemas/A"},
		},
	}
	require.True(t, document.Equal(want, got))
}

func TestResolveMutualReference(t *testing.T) {
	idx := Index{
		"#/components/schemas/A": document.Mapping{"b": ref("#/components/schemas/B")},
		"#/components/schemas/B": document.Mapping{"a": ref("#/components/schemas/A")},
	}

	got, err := Resolve(document.Sequence{
		ref("#/components/schemas/A"),
		ref("#/components/schemas/B"),
	}, idx)
	require.NoError(t, err)

	want := document.Sequence{
		document.Mapping{"b": document.Mapping{"a": document.CyclicRef{Ref: "#/components/schemas/A"}}},
		document.Mapping{"a": document.Mapping{"b": document.CyclicRef{Ref: "#/components/schemas/B"}}},
	}
	require.True(t, document.Equal(want, got))
}

func TestResolveSiblingReferenceIsNotCyclic(t *testing.T) {
	// The same component used twice side by side is expanded both times.
	idx := Index{
		"#/components/schemas/Point": document.Mapping{"type": document.String("integer")},
	}

	got, err := Resolve(document.Mapping{
		"x": ref("#/components/schemas/Point"),
		"y": ref("#/components/schemas/Point"),
	}, idx)
	require.NoError(t, err)

	point := document.Mapping{"type": document.String("integer")}
	require.True(t, document.Equal(document.Mapping{"x": point, "y": point}, got))
}

func TestResolveUnresolvedReference(t *testing.T) {
	idx := Index{
		"#/components/schemas/A": ref("#/components/schemas/Missing"),
	}

	got, err := Resolve(document.Mapping{"schema": ref("#/components/schemas/A")}, idx)
	require.Nil(t, got)
	require.ErrorIs(t, err, specerrors.ErrUnresolvedReference)

	var refErr *specerrors.UnresolvedReferenceError
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, "#/components/schemas/Missing", refErr.Ref)
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	idx := Index{
		"#/components/schemas/Point": document.Mapping{"type": document.String("integer")},
	}
	doc := document.Mapping{"schema": ref("#/components/schemas/Point")}

	_, err := Resolve(doc, idx)
	require.NoError(t, err)

	require.True(t, document.Equal(document.Mapping{"schema": ref("#/components/schemas/Point")}, doc))
	require.True(t, document.Equal(document.Mapping{"type": document.String("integer")}, idx["#/components/schemas/Point"]))
}

func TestResolvePointExample(t *testing.T) {
	doc := parse(t, `
components:
  schemas:
    Point:
      type: integer
`)
	idx, err := BuildIndex(doc)
	require.NoError(t, err)

	got, err := Resolve(ref("#/components/schemas/Point"), idx)
	require.NoError(t, err)
	require.True(t, document.Equal(document.Mapping{"type": document.String("integer")}, got))
}

const devicePaths = `
paths:
  /{device_type}/{device_number}/action:
    put:
      parameters:
        - $ref: '#/components/parameters/device_number'
  /camera/{device_number}/gain:
    get:
      parameters:
        - $ref: '#/components/parameters/device_number'
  /focuser/{device_number}/position:
    get:
      summary: Returns the focuser's current position
components:
  parameters:
    device_number:
      name: device_number
      in: path
`

func TestResolvePaths(t *testing.T) {
	doc := parse(t, devicePaths)
	idx, err := BuildIndex(doc)
	require.NoError(t, err)

	tests := []struct {
		name       string
		deviceType string
		want       []string
	}{
		{
			name: "all paths",
			want: []string{
				"/camera/{device_number}/gain",
				"/focuser/{device_number}/position",
				"/{device_type}/{device_number}/action",
			},
		},
		{
			name:       "camera",
			deviceType: "camera",
			want: []string{
				"/camera/{device_number}/gain",
				"/{device_type}/{device_number}/action",
			},
		},
		{
			name:       "unknown device type keeps common paths",
			deviceType: "dome",
			want:       []string{"/{device_type}/{device_number}/action"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePaths(doc, idx, tt.deviceType)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Keys())
		})
	}

	got, err := ResolvePaths(doc, idx, "camera")
	require.NoError(t, err)
	param, ok := got.Get("/camera/{device_number}/gain", "get")
	require.True(t, ok)
	require.True(t, document.Equal(
		document.Sequence{document.Mapping{"name": document.String("device_number"), "in": document.String("path")}},
		param.(document.Mapping)["parameters"],
	))
}

func TestResolvePathsMissing(t *testing.T) {
	_, err := ResolvePaths(parse(t, "components: {}\n"), Index{}, "")
	require.ErrorIs(t, err, specerrors.ErrMalformedSpec)
	require.Contains(t, err.Error(), "paths")
}

func TestResolvePathsReferenceToScalar(t *testing.T) {
	doc := parse(t, `
paths:
  $ref: '#/components/schemas/N'
components:
  schemas:
    N: 5
`)
	idx, err := BuildIndex(doc)
	require.NoError(t, err)

	_, err = ResolvePaths(doc, idx, "")
	var malformed *specerrors.MalformedSpecError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "paths", malformed.Section)
	require.Equal(t, "expected a mapping", malformed.Message)
}

func TestPathDeviceType(t *testing.T) {
	require.Equal(t, "camera", PathDeviceType("/camera/{device_number}/gain"))
	require.Equal(t, "{device_type}", PathDeviceType("/{device_type}/{device_number}/action"))
	require.Equal(t, "management", PathDeviceType("management"))
	require.Equal(t, "", PathDeviceType("/"))
}
