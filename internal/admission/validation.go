// internal/admission/validation.go
package admission

import (
	"fmt"
	"strings"

	apperrors "researchhub/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

const createSchema = `{
	"type": "object",
	"properties": {
		"studentId":    {"type": "string", "minLength": 1},
		"studentName":  {"type": "string", "minLength": 1, "maxLength": 200},
		"studentEmail": {"type": "string", "format": "email"},
		"coverLetter":  {"type": "string", "maxLength": 10000},
		"resumeFilename": {"type": "string", "minLength": 1, "maxLength": 255}
	},
	"required": ["studentId", "studentName", "studentEmail", "resumeFilename"],
	"additionalProperties": false
}`

var createSchemaLoader = gojsonschema.NewStringLoader(createSchema)

func validateCreateInput(in *CreateInput) error {
	doc := map[string]interface{}{
		"studentId":      in.StudentID,
		"studentName":    in.StudentName,
		"studentEmail":   in.StudentEmail,
		"resumeFilename": in.ResumeFilename,
	}
	if in.CoverLetter != "" {
		doc["coverLetter"] = in.CoverLetter
	}

	result, err := gojsonschema.Validate(createSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return apperrors.NewValidationFailed(err.Error())
	}
	if !result.Valid() {
		var details []string
		for _, e := range result.Errors() {
			details = append(details, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return apperrors.NewValidationFailed(strings.Join(details, "; "))
	}
	return nil
}
