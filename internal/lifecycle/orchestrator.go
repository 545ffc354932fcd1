// internal/lifecycle/orchestrator.go

// Package lifecycle owns the project state machine and the close cascade.
// Projects move draft -> published -> closed; archived is declared on the
// model but no operation reaches it.
package lifecycle

import (
	"context"

	"researchhub/internal/common/clock"
	apperrors "researchhub/internal/common/errors"
	"researchhub/internal/common/logger"
	"researchhub/internal/common/metrics"
	"researchhub/internal/models"
	"researchhub/internal/store"

	"github.com/google/uuid"
)

// ProjectStore is the slice of the project store the orchestrator needs.
type ProjectStore interface {
	Insert(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	GetOwned(ctx context.Context, id, professorID string) (*models.Project, error)
	List(ctx context.Context, f store.ProjectFilter) ([]*models.Project, error)
	UpdateDetails(ctx context.Context, p *models.Project) (*models.Project, error)
	Publish(ctx context.Context, id, professorID string) (*models.Project, error)
	SetVisibility(ctx context.Context, id, professorID string, visible bool) (*models.Project, error)
	CloseOwned(ctx context.Context, id, professorID string) (*models.Project, error)
	Close(ctx context.Context, id string) (*models.Project, error)
	Delete(ctx context.Context, id, professorID string) (*models.Project, error)
}

// ApplicationLister reads the pending applications a close must cascade to.
type ApplicationLister interface {
	ListPendingByProject(ctx context.Context, projectID string) ([]*models.Application, error)
}

// Cascader bulk-closes a project's pending applications.
type Cascader interface {
	BulkClose(ctx context.Context, projectID string) (store.BulkResult, error)
}

// Dispatcher hands notification events to the delivery queue.
type Dispatcher interface {
	Enqueue(ctx context.Context, n *models.Notification) error
}

// CloseResult reports what one close operation did.
type CloseResult struct {
	Project             *models.Project
	ApplicationsClosed  int64
	NotificationsQueued int
}

// Orchestrator drives project lifecycle transitions.
type Orchestrator struct {
	projects     ProjectStore
	applications ApplicationLister
	cascader     Cascader
	dispatcher   Dispatcher
	clock        clock.Clock
	logger       logger.Logger
}

func NewOrchestrator(
	projects ProjectStore,
	applications ApplicationLister,
	cascader Cascader,
	dispatcher Dispatcher,
	clk clock.Clock,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		projects:     projects,
		applications: applications,
		cascader:     cascader,
		dispatcher:   dispatcher,
		clock:        clk,
		logger:       log.WithFields(map[string]interface{}{"service": "lifecycle"}),
	}
}

// CreateProject inserts a new listing. It starts in draft, or directly in
// published when the owner asks for it. Published listings are visible.
func (o *Orchestrator) CreateProject(ctx context.Context, in *CreateProjectInput) (*models.Project, error) {
	if err := validateCreateProjectInput(in); err != nil {
		return nil, err
	}

	status := models.ProjectStatusDraft
	if in.Publish {
		status = models.ProjectStatusPublished
	}
	p := &models.Project{
		ID:                  uuid.New().String(),
		ProfessorID:         in.ProfessorID,
		ContactEmail:        in.ContactEmail,
		Title:               in.Title,
		Description:         in.Description,
		Status:              status,
		IsVisible:           status == models.ProjectStatusPublished,
		Positions:           in.Positions,
		ResearchCategories:  in.ResearchCategories,
		Requirements:        in.Requirements,
		ApplicationDeadline: in.ApplicationDeadline,
		CreatedAt:           o.clock.Now(),
	}
	if err := o.projects.Insert(ctx, p); err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}

	o.logger.Info("project created", map[string]interface{}{
		"projectId":   p.ID,
		"professorId": p.ProfessorID,
		"status":      p.Status,
	})
	return p, nil
}

// UpdateProject rewrites the mutable listing fields of an owned project.
// Status and visibility never move through this path.
func (o *Orchestrator) UpdateProject(ctx context.Context, professorID, projectID string, in *UpdateProjectInput) (*models.Project, error) {
	if err := validateUpdateProjectInput(in); err != nil {
		return nil, err
	}

	updated, err := o.projects.UpdateDetails(ctx, &models.Project{
		ID:                  projectID,
		ProfessorID:         professorID,
		Title:               in.Title,
		Description:         in.Description,
		Positions:           in.Positions,
		ResearchCategories:  in.ResearchCategories,
		Requirements:        in.Requirements,
		ApplicationDeadline: in.ApplicationDeadline,
	})
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	if updated == nil {
		return nil, apperrors.NewNotFound("project")
	}
	return updated, nil
}

// GetProject is the owner-scoped read. A foreign or absent project is
// indistinguishable from not-found.
func (o *Orchestrator) GetProject(ctx context.Context, professorID, projectID string) (*models.Project, error) {
	p, err := o.projects.GetOwned(ctx, projectID, professorID)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	if p == nil {
		return nil, apperrors.NewNotFound("project")
	}
	return p, nil
}

// ListProjects passes the filter through to the store.
func (o *Orchestrator) ListProjects(ctx context.Context, f store.ProjectFilter) ([]*models.Project, error) {
	projects, err := o.projects.List(ctx, f)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	return projects, nil
}

// PublishProject moves an owned draft to published. Anything else the filter
// can miss on, the caller sees as not-found.
func (o *Orchestrator) PublishProject(ctx context.Context, professorID, projectID string) (*models.Project, error) {
	p, err := o.projects.Publish(ctx, projectID, professorID)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	if p == nil {
		return nil, apperrors.NewNotFound("project")
	}
	o.logger.Info("project published", map[string]interface{}{
		"projectId":   p.ID,
		"professorId": professorID,
	})
	return p, nil
}

// SetVisibility hides or shows an owned listing without touching its status.
func (o *Orchestrator) SetVisibility(ctx context.Context, professorID, projectID string, visible bool) (*models.Project, error) {
	p, err := o.projects.SetVisibility(ctx, projectID, professorID, visible)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	if p == nil {
		return nil, apperrors.NewNotFound("project")
	}
	return p, nil
}

// Close is the owner-initiated close. The conditional write scopes on
// id + owner + published; a miss on any predicate surfaces as not-found with
// no hint of which predicate failed.
func (o *Orchestrator) Close(ctx context.Context, professorID, projectID string) (*CloseResult, error) {
	p, err := o.projects.CloseOwned(ctx, projectID, professorID)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	if p == nil {
		return nil, apperrors.NewNotFound("project")
	}
	return o.cascade(ctx, p, "manual")
}

// CloseExpired is the sweep-path close, scoped by id alone. The project was
// selected as expired moments ago; a miss here means another actor already
// closed it, which is still not-found to the caller.
func (o *Orchestrator) CloseExpired(ctx context.Context, projectID string) (*CloseResult, error) {
	p, err := o.projects.Close(ctx, projectID)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}
	if p == nil {
		return nil, apperrors.NewNotFound("project")
	}
	return o.cascade(ctx, p, "sweep")
}

// cascade runs after a successful status write: fetch the pending
// applications, bulk-close them, then queue one project-closed notification
// per fetched applicant. A cascade failure leaves the project closed with
// pending applications; nothing rolls the status write back. A repeat close
// finds no pending applications and cascades nothing.
func (o *Orchestrator) cascade(ctx context.Context, p *models.Project, trigger string) (*CloseResult, error) {
	metrics.ProjectsClosed.WithLabelValues(trigger).Inc()

	apps, err := o.applications.ListPendingByProject(ctx, p.ID)
	if err != nil {
		o.logger.Error("cascade aborted after status write", map[string]interface{}{
			"projectId": p.ID,
			"error":     err,
		})
		return nil, apperrors.NewDependencyFailure("entity store", err)
	}

	res, err := o.cascader.BulkClose(ctx, p.ID)
	if err != nil {
		o.logger.Error("cascade aborted after status write", map[string]interface{}{
			"projectId": p.ID,
			"error":     err,
		})
		return nil, err
	}
	metrics.ApplicationsCascaded.Add(float64(res.Modified))

	queued := 0
	for _, app := range apps {
		n := &models.Notification{
			Type:           models.EventProjectClosed,
			RecipientEmail: app.StudentEmail,
			RecipientName:  app.StudentName,
			Context: map[string]string{
				"projectTitle":  p.Title,
				"applicationId": app.ID,
			},
		}
		if err := o.dispatcher.Enqueue(ctx, n); err != nil {
			o.logger.Error("notification enqueue failed", map[string]interface{}{
				"projectId":     p.ID,
				"applicationId": app.ID,
				"error":         err,
			})
			continue
		}
		queued++
	}

	o.logger.Info("project closed", map[string]interface{}{
		"projectId":           p.ID,
		"trigger":             trigger,
		"applicationsClosed":  res.Modified,
		"notificationsQueued": queued,
	})
	return &CloseResult{
		Project:             p,
		ApplicationsClosed:  res.Modified,
		NotificationsQueued: queued,
	}, nil
}

// DeleteProject removes an owned project while it is draft or closed.
// Published projects must be closed first.
func (o *Orchestrator) DeleteProject(ctx context.Context, professorID, projectID string) error {
	p, err := o.projects.Delete(ctx, projectID, professorID)
	if err != nil {
		return apperrors.NewDependencyFailure("entity store", err)
	}
	if p == nil {
		return apperrors.NewNotFound("project")
	}
	o.logger.Info("project deleted", map[string]interface{}{
		"projectId":   projectID,
		"professorId": professorID,
	})
	return nil
}
