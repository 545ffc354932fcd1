// internal/admission/service.go

// Package admission validates a candidate application against project state
// and owns the application-side mutations: create, status update, delete,
// and the bulk cascade used by project closure.
package admission

import (
	"context"

	"researchhub/internal/common/clock"
	apperrors "researchhub/internal/common/errors"
	"researchhub/internal/common/logger"
	"researchhub/internal/models"
	"researchhub/internal/store"

	"github.com/google/uuid"
)

// ProjectReader is the slice of the project store admission needs.
type ProjectReader interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
}

// ApplicationStore is the slice of the application store admission needs.
type ApplicationStore interface {
	Insert(ctx context.Context, a *models.Application) error
	Exists(ctx context.Context, projectID, studentID string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
	GetForOwner(ctx context.Context, id, professorID string) (*models.Application, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error)
	CloseAllPending(ctx context.Context, projectID string) (store.BulkResult, error)
	Delete(ctx context.Context, id string) (*models.Application, error)
}

// ResumeStore uploads and removes resume blobs.
type ResumeStore interface {
	Upload(ctx context.Context, projectID, filename string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Dispatcher hands notification events to the delivery queue.
type Dispatcher interface {
	Enqueue(ctx context.Context, n *models.Notification) error
}

// CreateInput is a candidate application.
type CreateInput struct {
	ProjectID      string
	StudentID      string
	StudentName    string
	StudentEmail   string
	CoverLetter    string
	ResumeFilename string
	Resume         []byte
}

// Service implements application admission control.
type Service struct {
	projects     ProjectReader
	applications ApplicationStore
	resumes      ResumeStore
	dispatcher   Dispatcher
	clock        clock.Clock
	logger       logger.Logger
}

func NewService(
	projects ProjectReader,
	applications ApplicationStore,
	resumes ResumeStore,
	dispatcher Dispatcher,
	clk clock.Clock,
	log logger.Logger,
) *Service {
	return &Service{
		projects:     projects,
		applications: applications,
		resumes:      resumes,
		dispatcher:   dispatcher,
		clock:        clk,
		logger:       log.WithFields(map[string]interface{}{"service": "admission"}),
	}
}

// Create admits one application against the project's current state. The
// duplicate check and the insert are not atomic; two concurrent submissions
// by the same student can both pass the check.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*models.Application, error) {
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	if project == nil {
		return nil, apperrors.NewNotFound("project")
	}
	if project.Status != models.ProjectStatusPublished {
		return nil, apperrors.NewInvalidState("project is not accepting applications")
	}
	if project.Expired(s.clock.Now()) {
		return nil, apperrors.NewDeadlinePassed(project.ID)
	}

	exists, err := s.applications.Exists(ctx, in.ProjectID, in.StudentID)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	if exists {
		return nil, apperrors.NewConflict("duplicate application",
			"an application already exists for this project and student")
	}

	resumeKey, err := s.resumes.Upload(ctx, in.ProjectID, in.ResumeFilename, in.Resume)
	if err != nil {
		// Nothing persisted yet; abort before touching the record store.
		return nil, err
	}

	app := &models.Application{
		ID:           uuid.New().String(),
		ProjectID:    in.ProjectID,
		StudentID:    in.StudentID,
		StudentName:  in.StudentName,
		StudentEmail: in.StudentEmail,
		CoverLetter:  in.CoverLetter,
		ResumePath:   resumeKey,
		Status:       models.ApplicationStatusPending,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.applications.Insert(ctx, app); err != nil {
		// Compensate for the orphaned blob, best-effort, then surface the
		// original failure.
		if delErr := s.resumes.Delete(ctx, resumeKey); delErr != nil {
			s.logger.Warn("orphaned resume cleanup failed", map[string]interface{}{
				"key":   resumeKey,
				"error": delErr,
			})
		}
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}

	s.logger.Info("application created", map[string]interface{}{
		"applicationId": app.ID,
		"projectId":     project.ID,
		"studentId":     in.StudentID,
	})

	s.enqueue(ctx, &models.Notification{
		Type:           models.EventApplicationReceived,
		RecipientEmail: in.StudentEmail,
		RecipientName:  in.StudentName,
		Context: map[string]string{
			"projectTitle":  project.Title,
			"applicationId": app.ID,
		},
	})
	s.enqueue(ctx, &models.Notification{
		Type:           models.EventApplicationAlert,
		RecipientEmail: project.ContactEmail,
		Context: map[string]string{
			"projectTitle": project.Title,
			"studentName":  in.StudentName,
		},
	})

	return app, nil
}

// UpdateStatus writes a new application status on behalf of the professor
// who owns the parent project. Ownership misses surface as not-found.
func (s *Service) UpdateStatus(ctx context.Context, professorID, applicationID string, status models.ApplicationStatus) (*models.Application, error) {
	if status != models.ApplicationStatusPending && status != models.ApplicationStatusClosed {
		return nil, apperrors.NewInvalidState("unknown application status")
	}

	existing, err := s.applications.GetForOwner(ctx, applicationID, professorID)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	if existing == nil {
		return nil, apperrors.NewNotFound("application")
	}

	updated, err := s.applications.UpdateStatus(ctx, applicationID, status)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	if updated == nil {
		return nil, apperrors.NewNotFound("application")
	}

	// The status-changed template renders the project title; the status
	// write is already committed, so a failed title lookup degrades the
	// message rather than failing the operation.
	notificationCtx := map[string]string{
		"status":        string(status),
		"applicationId": updated.ID,
	}
	project, err := s.projects.GetByID(ctx, updated.ProjectID)
	if err != nil {
		s.logger.Warn("project title lookup failed", map[string]interface{}{
			"applicationId": updated.ID,
			"projectId":     updated.ProjectID,
			"error":         err,
		})
	} else if project != nil {
		notificationCtx["projectTitle"] = project.Title
	}

	s.enqueue(ctx, &models.Notification{
		Type:           models.EventStatusChanged,
		RecipientEmail: updated.StudentEmail,
		RecipientName:  updated.StudentName,
		Context:        notificationCtx,
	})

	return updated, nil
}

// BulkClose is the cascade entry used by project closure: every pending
// application for the project moves to closed in one conditional write.
func (s *Service) BulkClose(ctx context.Context, projectID string) (store.BulkResult, error) {
	res, err := s.applications.CloseAllPending(ctx, projectID)
	if err != nil {
		return store.BulkResult{}, apperrors.NewDependencyFailure("entity store", err)
	}
	return res, nil
}

// Delete removes a student's own application along with its resume blob.
// The blob delete is best-effort cleanup.
func (s *Service) Delete(ctx context.Context, studentID, applicationID string) error {
	existing, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return apperrors.NewDependencyFailure("entity store", err)
	}
	if existing == nil || existing.StudentID != studentID {
		return apperrors.NewNotFound("application")
	}

	deleted, err := s.applications.Delete(ctx, applicationID)
	if err != nil {
		return apperrors.NewDependencyFailure("entity store", err)
	}
	if deleted == nil {
		return apperrors.NewNotFound("application")
	}
	if deleted.ResumePath != "" {
		if err := s.resumes.Delete(ctx, deleted.ResumePath); err != nil {
			s.logger.Warn("resume blob cleanup failed", map[string]interface{}{
				"applicationId": applicationID,
				"key":           deleted.ResumePath,
				"error":         err,
			})
		}
	}
	return nil
}

// enqueue is fire-and-forget relative to the caller: queue failures are
// logged and swallowed where they occur.
func (s *Service) enqueue(ctx context.Context, n *models.Notification) {
	if err := s.dispatcher.Enqueue(ctx, n); err != nil {
		s.logger.Error("notification enqueue failed", map[string]interface{}{
			"type":      n.Type,
			"recipient": n.RecipientEmail,
			"error":     err,
		})
	}
}
