// internal/lifecycle/validation.go
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	apperrors "researchhub/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// CreateProjectInput is a new listing.
type CreateProjectInput struct {
	ProfessorID         string
	ContactEmail        string
	Title               string
	Description         string
	Positions           int
	ResearchCategories  []string
	Requirements        []string
	ApplicationDeadline *time.Time
	Publish             bool
}

// UpdateProjectInput rewrites the mutable listing fields. Status and
// visibility are absent on purpose.
type UpdateProjectInput struct {
	Title               string
	Description         string
	Positions           int
	ResearchCategories  []string
	Requirements        []string
	ApplicationDeadline *time.Time
}

const createProjectSchema = `{
	"type": "object",
	"properties": {
		"professorId":  {"type": "string", "minLength": 1},
		"contactEmail": {"type": "string", "format": "email"},
		"title":        {"type": "string", "minLength": 1, "maxLength": 200},
		"description":  {"type": "string", "maxLength": 10000},
		"positions":    {"type": "integer", "minimum": 1}
	},
	"required": ["professorId", "contactEmail", "title", "positions"],
	"additionalProperties": false
}`

const updateProjectSchema = `{
	"type": "object",
	"properties": {
		"title":       {"type": "string", "minLength": 1, "maxLength": 200},
		"description": {"type": "string", "maxLength": 10000},
		"positions":   {"type": "integer", "minimum": 1}
	},
	"required": ["title", "positions"],
	"additionalProperties": false
}`

var (
	createProjectSchemaLoader = gojsonschema.NewStringLoader(createProjectSchema)
	updateProjectSchemaLoader = gojsonschema.NewStringLoader(updateProjectSchema)
)

func validateCreateProjectInput(in *CreateProjectInput) error {
	doc := map[string]interface{}{
		"professorId":  in.ProfessorID,
		"contactEmail": in.ContactEmail,
		"title":        in.Title,
		"positions":    in.Positions,
	}
	if in.Description != "" {
		doc["description"] = in.Description
	}
	return validateAgainst(createProjectSchemaLoader, doc)
}

func validateUpdateProjectInput(in *UpdateProjectInput) error {
	doc := map[string]interface{}{
		"title":     in.Title,
		"positions": in.Positions,
	}
	if in.Description != "" {
		doc["description"] = in.Description
	}
	return validateAgainst(updateProjectSchemaLoader, doc)
}

func validateAgainst(schema gojsonschema.JSONLoader, doc map[string]interface{}) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(doc))
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
