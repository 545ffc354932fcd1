// internal/models/project.go
package models

import "time"

// ProjectStatus is the lifecycle state of a research-position listing.
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusPublished ProjectStatus = "published"
	ProjectStatusClosed    ProjectStatus = "closed"
	// ProjectStatusArchived is modeled but no operation reaches it yet.
	ProjectStatusArchived ProjectStatus = "archived"
)

// Project is a faculty-owned research-position listing.
//
// Status and IsVisible are mutated only through the lifecycle orchestrator
// once a project leaves draft; IsVisible is independent of Status, so a
// published project can still be hidden.
type Project struct {
	ID                  string        `json:"id"`
	ProfessorID         string        `json:"professorId"`
	ContactEmail        string        `json:"contactEmail"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Status              ProjectStatus `json:"status"`
	IsVisible           bool          `json:"isVisible"`
	Positions           int           `json:"positions"`
	ResearchCategories  []string      `json:"researchCategories"`
	Requirements        []string      `json:"requirements"`
	ApplicationDeadline *time.Time    `json:"applicationDeadline,omitempty"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// Expired reports whether the application deadline is strictly before now.
// A deadline equal to now is not expired.
func (p *Project) Expired(now time.Time) bool {
	return p.ApplicationDeadline != nil && p.ApplicationDeadline.Before(now)
}
