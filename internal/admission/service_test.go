// internal/admission/service_test.go
package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"researchhub/internal/common/clock"
	apperrors "researchhub/internal/common/errors"
	"researchhub/internal/common/logger"
	"researchhub/internal/models"
	"researchhub/internal/notify"
	"researchhub/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type fakeProjects struct {
	byID map[string]*models.Project
	err  error
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (*models.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

type fakeApplications struct {
	byID       map[string]*models.Application
	duplicates map[string]bool // key: projectID + "/" + studentID
	owners     map[string]string
	insertErr  error
	inserted   []*models.Application
	closedBulk []string
	deleted    []string
}

func newFakeApplications() *fakeApplications {
	return &fakeApplications{
		byID:       map[string]*models.Application{},
		duplicates: map[string]bool{},
		owners:     map[string]string{},
	}
}

func (f *fakeApplications) Insert(_ context.Context, a *models.Application) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, a)
	f.byID[a.ID] = a
	return nil
}

func (f *fakeApplications) Exists(_ context.Context, projectID, studentID string) (bool, error) {
	return f.duplicates[projectID+"/"+studentID], nil
}

func (f *fakeApplications) GetByID(_ context.Context, id string) (*models.Application, error) {
	return f.byID[id], nil
}

func (f *fakeApplications) GetForOwner(_ context.Context, id, professorID string) (*models.Application, error) {
	a := f.byID[id]
	if a == nil || f.owners[a.ProjectID] != professorID {
		return nil, nil
	}
	return a, nil
}

func (f *fakeApplications) UpdateStatus(_ context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	a := f.byID[id]
	if a == nil {
		return nil, nil
	}
	a.Status = status
	return a, nil
}

func (f *fakeApplications) CloseAllPending(_ context.Context, projectID string) (store.BulkResult, error) {
	f.closedBulk = append(f.closedBulk, projectID)
	var n int64
	for _, a := range f.byID {
		if a.ProjectID == projectID && a.Status == models.ApplicationStatusPending {
			a.Status = models.ApplicationStatusClosed
			n++
		}
	}
	return store.BulkResult{Matched: n, Modified: n}, nil
}

func (f *fakeApplications) Delete(_ context.Context, id string) (*models.Application, error) {
	a := f.byID[id]
	if a == nil {
		return nil, nil
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return a, nil
}

type fakeResumes struct {
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
}

func (f *fakeResumes) Upload(_ context.Context, projectID, filename string, _ []byte) (string, error) {
	if f.uploadErr != nil {
		return "", apperrors.NewDependencyFailure("blob store", f.uploadErr)
	}
	key := "projects/" + projectID + "/cv/123_" + filename
	f.uploads = append(f.uploads, key)
	return key, nil
}

func (f *fakeResumes) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return apperrors.NewDependencyFailure("blob store", f.deleteErr)
	}
	f.deletes = append(f.deletes, key)
	return nil
}

type fakeDispatcher struct {
	events []*models.Notification
	err    error
}

func (f *fakeDispatcher) Enqueue(_ context.Context, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, n)
	return nil
}

// ==========================
// Helpers
// ==========================

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func publishedProject(id string, deadline *time.Time) *models.Project {
	return &models.Project{
		ID:                  id,
		ProfessorID:         "prof-1",
		ContactEmail:        "prof@example.edu",
		Title:               "Graph Mining RA",
		Status:              models.ProjectStatusPublished,
		IsVisible:           true,
		Positions:           1,
		ApplicationDeadline: deadline,
	}
}

func createInput() *CreateInput {
	return &CreateInput{
		ProjectID:      "proj-1",
		StudentID:      "student-1",
		StudentName:    "Ada Park",
		StudentEmail:   "ada@example.edu",
		CoverLetter:    "I would like to join.",
		ResumeFilename: "resume.pdf",
		Resume:         []byte("pdf-bytes"),
	}
}

type fixture struct {
	svc        *Service
	projects   *fakeProjects
	apps       *fakeApplications
	resumes    *fakeResumes
	dispatcher *fakeDispatcher
}

func newFixture(t *testing.T) *fixture {
	deadline := testNow.Add(24 * time.Hour)
	f := &fixture{
		projects: &fakeProjects{byID: map[string]*models.Project{
			"proj-1": publishedProject("proj-1", &deadline),
		}},
		apps:       newFakeApplications(),
		resumes:    &fakeResumes{},
		dispatcher: &fakeDispatcher{},
	}
	f.apps.owners["proj-1"] = "prof-1"
	f.svc = NewService(f.projects, f.apps, f.resumes, f.dispatcher,
		clock.NewFake(testNow), logger.NewTestLogger(t))
	return f
}

// ==========================
// Create
// ==========================

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)

	app, err := f.svc.Create(context.Background(), createInput())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.NotEmpty(t, app.ID)
	assert.NotEmpty(t, app.ResumePath)
	require.Len(t, f.apps.inserted, 1)
	require.Len(t, f.resumes.uploads, 1)

	// Confirmation to the student plus an alert to the professor.
	require.Len(t, f.dispatcher.events, 2)
	assert.Equal(t, models.EventApplicationReceived, f.dispatcher.events[0].Type)
	assert.Equal(t, "ada@example.edu", f.dispatcher.events[0].RecipientEmail)
	assert.Equal(t, models.EventApplicationAlert, f.dispatcher.events[1].Type)
	assert.Equal(t, "prof@example.edu", f.dispatcher.events[1].RecipientEmail)
}

func TestCreate_ProjectNotFound(t *testing.T) {
	f := newFixture(t)
	in := createInput()
	in.ProjectID = "missing"

	_, err := f.svc.Create(context.Background(), in)

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, f.resumes.uploads)
}

func TestCreate_ProjectNotPublished(t *testing.T) {
	f := newFixture(t)
	f.projects.byID["proj-1"].Status = models.ProjectStatusDraft

	_, err := f.svc.Create(context.Background(), createInput())

	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestCreate_ClosedProject(t *testing.T) {
	f := newFixture(t)
	f.projects.byID["proj-1"].Status = models.ProjectStatusClosed

	_, err := f.svc.Create(context.Background(), createInput())

	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestCreate_DeadlinePassed(t *testing.T) {
	f := newFixture(t)
	past := testNow.Add(-time.Minute)
	f.projects.byID["proj-1"].ApplicationDeadline = &past

	_, err := f.svc.Create(context.Background(), createInput())

	require.Error(t, err)
	assert.True(t, apperrors.IsDeadlinePassed(err))
}

func TestCreate_DeadlineEqualToNowIsNotExpired(t *testing.T) {
	f := newFixture(t)
	boundary := testNow
	f.projects.byID["proj-1"].ApplicationDeadline = &boundary

	_, err := f.svc.Create(context.Background(), createInput())

	assert.NoError(t, err)
}

func TestCreate_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.apps.duplicates["proj-1/student-1"] = true

	_, err := f.svc.Create(context.Background(), createInput())

	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, f.resumes.uploads)
	assert.Empty(t, f.apps.inserted)
}

func TestCreate_SequentialDuplicateRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), createInput())
	require.NoError(t, err)

	// The fake mirrors what the store would report after the first insert.
	f.apps.duplicates["proj-1/student-1"] = true

	_, err = f.svc.Create(context.Background(), createInput())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestCreate_ResumeUploadFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.resumes.uploadErr = errors.New("bucket unavailable")

	_, err := f.svc.Create(context.Background(), createInput())

	require.Error(t, err)
	assert.True(t, apperrors.IsDependencyFailure(err))
	assert.Empty(t, f.apps.inserted)
	assert.Empty(t, f.dispatcher.events)
}

func TestCreate_InsertFailureCleansUpBlob(t *testing.T) {
	f := newFixture(t)
	f.apps.insertErr = errors.New("deadlock detected")

	_, err := f.svc.Create(context.Background(), createInput())

	require.Error(t, err)
	assert.True(t, apperrors.IsDependencyFailure(err))
	require.Len(t, f.resumes.deletes, 1)
	assert.Equal(t, f.resumes.uploads[0], f.resumes.deletes[0])
	assert.Empty(t, f.dispatcher.events)
}

func TestCreate_InsertFailureWithFailedCleanupStillSurfacesInsertError(t *testing.T) {
	f := newFixture(t)
	f.apps.insertErr = errors.New("deadlock detected")
	f.resumes.deleteErr = errors.New("bucket unavailable")

	_, err := f.svc.Create(context.Background(), createInput())

	require.Error(t, err)
	assert.True(t, apperrors.IsDependencyFailure(err))
	assert.Contains(t, err.Error(), "entity store")
}

func TestCreate_EnqueueFailureDoesNotUnwindRecord(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.err = errors.New("queue down")

	app, err := f.svc.Create(context.Background(), createInput())

	require.NoError(t, err)
	require.NotNil(t, app)
	require.Len(t, f.apps.inserted, 1)
}

func TestCreate_ValidationFailure(t *testing.T) {
	f := newFixture(t)
	in := createInput()
	in.StudentEmail = "not-an-email"

	_, err := f.svc.Create(context.Background(), in)

	require.Error(t, err)
	assert.True(t, apperrors.IsValidationFailed(err))
	assert.Empty(t, f.resumes.uploads)
}

// ==========================
// UpdateStatus
// ==========================

func TestUpdateStatus_Success(t *testing.T) {
	f := newFixture(t)
	f.apps.byID["app-1"] = &models.Application{
		ID:           "app-1",
		ProjectID:    "proj-1",
		StudentID:    "student-1",
		StudentEmail: "ada@example.edu",
		Status:       models.ApplicationStatusPending,
	}

	updated, err := f.svc.UpdateStatus(context.Background(), "prof-1", "app-1", models.ApplicationStatusClosed)

	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusClosed, updated.Status)
	require.Len(t, f.dispatcher.events, 1)
	assert.Equal(t, models.EventStatusChanged, f.dispatcher.events[0].Type)
	assert.Equal(t, "ada@example.edu", f.dispatcher.events[0].RecipientEmail)
	assert.Equal(t, "Graph Mining RA", f.dispatcher.events[0].Context["projectTitle"])
}

func TestUpdateStatus_NotificationRendersProjectTitle(t *testing.T) {
	f := newFixture(t)
	f.apps.byID["app-1"] = &models.Application{
		ID:           "app-1",
		ProjectID:    "proj-1",
		StudentID:    "student-1",
		StudentName:  "Ada Park",
		StudentEmail: "ada@example.edu",
		Status:       models.ApplicationStatusPending,
	}

	_, err := f.svc.UpdateStatus(context.Background(), "prof-1", "app-1", models.ApplicationStatusClosed)
	require.NoError(t, err)

	require.Len(t, f.dispatcher.events, 1)
	msg, err := notify.RenderMessage(notify.Templates(), f.dispatcher.events[0])
	require.NoError(t, err)
	assert.Contains(t, msg.Subject, "Graph Mining RA")
	assert.Contains(t, msg.Text, `"Graph Mining RA"`)
	assert.Contains(t, msg.Text, "closed")
}

func TestUpdateStatus_TitleLookupFailureStillNotifies(t *testing.T) {
	f := newFixture(t)
	f.apps.byID["app-1"] = &models.Application{
		ID: "app-1", ProjectID: "proj-1", StudentID: "student-1",
		StudentEmail: "ada@example.edu",
		Status:       models.ApplicationStatusPending,
	}
	// GetForOwner resolves through the fake's owners map, so only the title
	// lookup sees this error.
	updated, err := f.svc.UpdateStatus(context.Background(), "prof-1", "app-1", models.ApplicationStatusClosed)
	require.NoError(t, err)
	require.NotNil(t, updated)

	f.apps.byID["app-2"] = &models.Application{
		ID: "app-2", ProjectID: "proj-1", StudentID: "student-2",
		StudentEmail: "bob@example.edu",
		Status:       models.ApplicationStatusPending,
	}
	f.projects.err = errors.New("connection reset")
	_, err = f.svc.UpdateStatus(context.Background(), "prof-1", "app-2", models.ApplicationStatusClosed)

	require.NoError(t, err)
	require.Len(t, f.dispatcher.events, 2)
	assert.Empty(t, f.dispatcher.events[1].Context["projectTitle"])
	assert.Equal(t, "closed", f.dispatcher.events[1].Context["status"])
}

func TestUpdateStatus_ForeignOwnerLooksAbsent(t *testing.T) {
	f := newFixture(t)
	f.apps.byID["app-1"] = &models.Application{
		ID: "app-1", ProjectID: "proj-1", StudentID: "student-1",
		Status: models.ApplicationStatusPending,
	}

	_, err := f.svc.UpdateStatus(context.Background(), "prof-other", "app-1", models.ApplicationStatusClosed)

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, f.dispatcher.events)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), "prof-1", "app-1", "rejected")

	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidState(err))
}

// ==========================
// Delete
// ==========================

func TestDelete_RemovesRecordAndBlob(t *testing.T) {
	f := newFixture(t)
	f.apps.byID["app-1"] = &models.Application{
		ID: "app-1", ProjectID: "proj-1", StudentID: "student-1",
		ResumePath: "projects/proj-1/cv/123_resume_pdf",
		Status:     models.ApplicationStatusPending,
	}

	err := f.svc.Delete(context.Background(), "student-1", "app-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"app-1"}, f.apps.deleted)
	assert.Equal(t, []string{"projects/proj-1/cv/123_resume_pdf"}, f.resumes.deletes)
}

func TestDelete_BlobFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.apps.byID["app-1"] = &models.Application{
		ID: "app-1", ProjectID: "proj-1", StudentID: "student-1",
		ResumePath: "projects/proj-1/cv/123_resume_pdf",
	}
	f.resumes.deleteErr = errors.New("bucket unavailable")

	err := f.svc.Delete(context.Background(), "student-1", "app-1")

	assert.NoError(t, err)
	assert.Equal(t, []string{"app-1"}, f.apps.deleted)
}

func TestDelete_ForeignStudentLooksAbsent(t *testing.T) {
	f := newFixture(t)
	f.apps.byID["app-1"] = &models.Application{
		ID: "app-1", ProjectID: "proj-1", StudentID: "student-1",
	}

	err := f.svc.Delete(context.Background(), "student-2", "app-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, f.apps.deleted)
}
