package loader

import (
	"strings"

	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/tinyalpaca/alpacagen/internal/model"
	"github.com/tinyalpaca/alpacagen/internal/refs"
)

const (
	formMediaType        = "application/x-www-form-urlencoded"
	deviceTypeParamName  = "device_type"
	componentSchemasPath = "#/components/schemas/"
)

func Transform(result *Result) (*model.Spec, error) {
	doc := result.Document.Model

	spec := &model.Spec{
		Info: transformInfo(doc.Info),
	}

	if doc.Paths != nil {
		for pathStr, pathItem := range doc.Paths.PathItems.FromOldest() {
			path := transformPath(pathStr, pathItem)
			spec.Paths = append(spec.Paths, path)
			spec.Operations = append(spec.Operations, path.Operations...)

			for _, op := range path.Operations {
				for _, p := range op.Parameters {
					if p.Name == deviceTypeParamName && len(p.Enum) > 0 && len(spec.DeviceTypeEnum) == 0 {
						spec.DeviceTypeEnum = p.Enum
					}
				}
			}
		}
	}

	return spec, nil
}

func transformInfo(info *base.Info) model.Info {
	if info == nil {
		return model.Info{}
	}
	return model.Info{
		Title:       info.Title,
		Description: info.Description,
		Version:     info.Version,
	}
}

func transformPath(pathStr string, pathItem *v3.PathItem) model.Path {
	path := model.Path{
		Path:       pathStr,
		DeviceType: refs.PathDeviceType(pathStr),
	}

	// Use a slice for deterministic ordering
	methods := []struct {
		method model.Method
		op     *v3.Operation
	}{
		{model.MethodGet, pathItem.Get},
		{model.MethodPost, pathItem.Post},
		{model.MethodPut, pathItem.Put},
		{model.MethodDelete, pathItem.Delete},
		{model.MethodPatch, pathItem.Patch},
		{model.MethodHead, pathItem.Head},
		{model.MethodOptions, pathItem.Options},
		{model.MethodTrace, pathItem.Trace},
	}

	for _, m := range methods {
		if m.op == nil {
			continue
		}
		operation := transformOperation(m.method, path, pathItem.Parameters, m.op)
		path.Operations = append(path.Operations, operation)
	}

	return path
}

func transformOperation(method model.Method, path model.Path, shared []*v3.Parameter, op *v3.Operation) model.Operation {
	operation := model.Operation{
		ID:          op.OperationId,
		Method:      method,
		Path:        path.Path,
		DeviceType:  path.DeviceType,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        op.Tags,
		Deprecated:  boolPtr(op.Deprecated),
	}

	// Operation-level parameters override path-level ones with the same name and location.
	overridden := make(map[string]bool)
	for _, p := range op.Parameters {
		overridden[p.In+"/"+p.Name] = true
	}
	for _, p := range shared {
		if !overridden[p.In+"/"+p.Name] {
			operation.Parameters = append(operation.Parameters, transformParameter(p))
		}
	}
	for _, p := range op.Parameters {
		operation.Parameters = append(operation.Parameters, transformParameter(p))
	}

	if op.RequestBody != nil {
		operation.Properties = transformRequestBody(op.RequestBody)
	}

	if op.Responses != nil && op.Responses.Codes != nil {
		for code, resp := range op.Responses.Codes.FromOldest() {
			operation.Responses = append(operation.Responses, transformResponse(code, resp))
		}
	}

	return operation
}

func transformParameter(p *v3.Parameter) model.Parameter {
	param := model.Parameter{
		Name:        p.Name,
		In:          model.ParameterLocation(strings.ToLower(p.In)),
		Description: p.Description,
		Required:    boolPtr(p.Required),
	}

	if p.Schema != nil {
		if s := p.Schema.Schema(); s != nil {
			param.Type = schemaType(s)
			param.Format = s.Format
			for _, e := range s.Enum {
				param.Enum = append(param.Enum, e.Value)
			}
		}
	}

	return param
}

// transformRequestBody lists the fields of the body, preferring the form
// encoding Alpaca clients send.
func transformRequestBody(rb *v3.RequestBody) []model.Property {
	if rb.Content == nil {
		return nil
	}

	var proxy *base.SchemaProxy
	if mt, ok := rb.Content.Get(formMediaType); ok && mt.Schema != nil {
		proxy = mt.Schema
	} else {
		for _, mt := range rb.Content.FromOldest() {
			if mt.Schema != nil {
				proxy = mt.Schema
				break
			}
		}
	}
	if proxy == nil {
		return nil
	}

	return transformProperties(proxy.Schema())
}

func transformProperties(s *base.Schema) []model.Property {
	if s == nil || s.Properties == nil {
		return nil
	}

	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}

	var props []model.Property
	for name, propProxy := range s.Properties.FromOldest() {
		prop := model.Property{
			Name:     name,
			Required: required[name],
		}
		if ps := propProxy.Schema(); ps != nil {
			prop.Description = ps.Description
			prop.Type = schemaType(ps)
			prop.Format = ps.Format
		}
		props = append(props, prop)
	}
	return props
}

func transformResponse(code string, resp *v3.Response) model.Response {
	response := model.Response{
		StatusCode:  code,
		Description: resp.Description,
	}

	if resp.Content != nil {
		for _, content := range resp.Content.FromOldest() {
			if content.Schema == nil {
				continue
			}
			if ref := content.Schema.GetReference(); strings.HasPrefix(ref, componentSchemasPath) {
				response.Schema = strings.TrimPrefix(ref, componentSchemasPath)
				break
			}
		}
	}

	return response
}

func schemaType(s *base.Schema) string {
	if len(s.Type) > 0 {
		return s.Type[0]
	}
	return ""
}

func boolPtr(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
