package loader

import (
	"fmt"
	"strings"

	"github.com/pb33f/libopenapi"
	validator "github.com/pb33f/libopenapi-validator"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

type Result struct {
	Document *libopenapi.DocumentModel[v3.Document]
	Version  string
	Warnings []string
	RawData  []byte

	doc libopenapi.Document
}

// Finding is one problem reported by document validation.
type Finding struct {
	Message string
	Reason  string
	Line    int
	Column  int
}

func (f Finding) String() string {
	s := f.Message
	if f.Reason != "" {
		s += ": " + f.Reason
	}
	if f.Line > 0 {
		s += fmt.Sprintf(" (line %d, column %d)", f.Line, f.Column)
	}
	return s
}

func Load(data []byte) (*Result, error) {
	doc, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.") {
		return nil, fmt.Errorf("unsupported OpenAPI version: %s (only 3.x supported)", version)
	}

	model, err := doc.BuildV3Model()
	if err != nil {
		return nil, fmt.Errorf("building OpenAPI model: %w", err)
	}

	result := &Result{
		Document: model,
		Version:  version,
		RawData:  data,
		doc:      doc,
	}

	if strings.HasPrefix(version, "3.0") {
		result.Warnings = append(result.Warnings, "OpenAPI 3.0.x detected; some 3.1 features unavailable")
	}

	return result, nil
}

// Validate checks the loaded document against the OpenAPI schema. It returns
// the findings; an empty slice means the document is valid.
func Validate(result *Result) ([]Finding, error) {
	v, errs := validator.NewValidator(result.doc)
	if len(errs) > 0 {
		return nil, fmt.Errorf("creating validator: %w", errs[0])
	}

	valid, verrs := v.ValidateDocument()
	if valid {
		return nil, nil
	}

	findings := make([]Finding, 0, len(verrs))
	for _, e := range verrs {
		findings = append(findings, Finding{
			Message: e.Message,
			Reason:  e.Reason,
			Line:    e.SpecLine,
			Column:  e.SpecCol,
		})
	}
	return findings, nil
}
