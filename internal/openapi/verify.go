package openapi

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
}

// InvalidDocumentError lists every problem libopenapi-validator reported.
type InvalidDocumentError struct {
	Errors []string
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("OpenAPI document is invalid: %s", strings.Join(e.Errors, "; "))
}

// Verify parses an exported document, builds its v3 model and validates it
// against the OpenAPI schema.
func Verify(data []byte) (*Result, error) {
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

	v, errs := validator.NewValidator(doc)
	if len(errs) > 0 {
		return nil, fmt.Errorf("creating validator: %w", errs[0])
	}
	if valid, validationErrs := v.ValidateDocument(); !valid {
		invalid := &InvalidDocumentError{}
		for _, ve := range validationErrs {
			invalid.Errors = append(invalid.Errors, ve.Error())
			for _, se := range ve.SchemaValidationErrors {
				invalid.Errors = append(invalid.Errors, se.Reason)
			}
		}
		return nil, invalid
	}

	return &Result{Document: model, Version: version}, nil
}
