// internal/models/notification.go
package models

// EventType identifies one of the lifecycle-triggered notification messages.
type EventType string

const (
	// EventApplicationReceived confirms a submission to the student.
	EventApplicationReceived EventType = "application-received"
	// EventApplicationAlert tells the professor a new application arrived.
	EventApplicationAlert EventType = "application-alert"
	// EventStatusChanged tells the student their application status moved.
	EventStatusChanged EventType = "status-changed"
	// EventProjectClosed tells each pending applicant the project closed.
	EventProjectClosed EventType = "project-closed"
)

// Notification is a transient delivery request. It is never persisted;
// duplicate sends on retry are acceptable, so the ID exists for logging,
// not idempotency.
type Notification struct {
	ID             string            `json:"id"`
	Type           EventType         `json:"type"`
	RecipientEmail string            `json:"recipientEmail"`
	RecipientName  string            `json:"recipientName,omitempty"`
	Context        map[string]string `json:"context,omitempty"`
}
