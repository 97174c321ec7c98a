// Package validation checks the sign-in and sign-up forms against JSON schemas.
package validation

import (
	"fmt"
	"sort"
	"strings"

	apperrors "scoutly/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

const signUpSchema = `{
	"type": "object",
	"properties": {
		"email":    {"type": "string", "format": "email"},
		"password": {"type": "string", "minLength": 6},
		"fullName": {"type": "string", "minLength": 1, "pattern": "\\S"}
	},
	"required": ["email", "password", "fullName"]
}`

const signInSchema = `{
	"type": "object",
	"properties": {
		"email":    {"type": "string", "format": "email"},
		"password": {"type": "string", "minLength": 1}
	},
	"required": ["email", "password"]
}`

var (
	SignUp = mustCompile(signUpSchema)
	SignIn = mustCompile(signInSchema)
)

func mustCompile(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return s
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validate checks doc against schema and reports every violation, sorted by field.
func Validate(schema *gojsonschema.Schema, doc interface{}) *ValidationResult {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field: "(root)", Message: err.Error(), Code: "SCHEMA_ERROR",
		}}}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out
}

// AsError converts a failed result into a validation StandardError.
func (r *ValidationResult) AsError() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return apperrors.NewValidationError(strings.Join(msgs, "; "))
}

func ValidateSignUp(email, password, fullName string) error {
	return Validate(SignUp, map[string]interface{}{
		"email":    email,
		"password": password,
		"fullName": fullName,
	}).AsError()
}

func ValidateSignIn(email, password string) error {
	return Validate(SignIn, map[string]interface{}{
		"email":    email,
		"password": password,
	}).AsError()
}
