// internal/models/application.go
package models

import "time"

// ApplicationStatus is the state of a student application.
type ApplicationStatus string

const (
	ApplicationStatusPending ApplicationStatus = "pending"
	ApplicationStatusClosed  ApplicationStatus = "closed"
)

// Application is a student's submission against one project. The project
// reference is immutable, and at most one application exists per
// (project, student) pair.
type Application struct {
	ID           string            `json:"id"`
	ProjectID    string            `json:"projectId"`
	StudentID    string            `json:"studentId"`
	StudentName  string            `json:"studentName"`
	StudentEmail string            `json:"studentEmail"`
	CoverLetter  string            `json:"coverLetter,omitempty"`
	ResumePath   string            `json:"resumePath,omitempty"`
	Status       ApplicationStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}
