// internal/store/application_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"researchhub/internal/models"
)

// BulkResult reports the outcome of a multi-row conditional update.
type BulkResult struct {
	Matched  int64
	Modified int64
}

// ApplicationStore provides typed CRUD access to application records.
type ApplicationStore struct {
	db *sql.DB
}

func NewApplicationStore(db *sql.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

const applicationColumns = `id, project_id, student_id, student_name, student_email,
	cover_letter, resume_path, status, created_at, updated_at`

func scanApplication(row interface{ Scan(...interface{}) error }) (*models.Application, error) {
	var a models.Application
	err := row.Scan(
		&a.ID, &a.ProjectID, &a.StudentID, &a.StudentName, &a.StudentEmail,
		&a.CoverLetter, &a.ResumePath, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ApplicationStore) Insert(ctx context.Context, a *models.Application) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, project_id, student_id, student_name, student_email,
			cover_letter, resume_path, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		a.ID, a.ProjectID, a.StudentID, a.StudentName, a.StudentEmail,
		a.CoverLetter, a.ResumePath, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert application: %v", ErrQueryFailed, err)
	}
	return nil
}

// GetByID returns the application or nil when no record matches.
func (s *ApplicationStore) GetByID(ctx context.Context, id string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get application: %v", ErrQueryFailed, err)
	}
	return a, nil
}

// GetForOwner returns the application only when the parent project belongs
// to the given professor. Ownership misses look like absence.
func (s *ApplicationStore) GetForOwner(ctx context.Context, id, professorID string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.project_id, a.student_id, a.student_name, a.student_email,
			a.cover_letter, a.resume_path, a.status, a.created_at, a.updated_at
		FROM applications a
		JOIN projects p ON p.id = a.project_id
		WHERE a.id = $1 AND p.professor_id = $2`,
		id, professorID)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get application for owner: %v", ErrQueryFailed, err)
	}
	return a, nil
}

// Exists reports whether an application is already recorded for the
// (project, student) pair. Callers use it as a pre-insert duplicate check;
// it is not atomic with the insert that follows.
func (s *ApplicationStore) Exists(ctx context.Context, projectID, studentID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM applications
			WHERE project_id = $1 AND student_id = $2
		)`, projectID, studentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: duplicate check: %v", ErrQueryFailed, err)
	}
	return exists, nil
}

// ListPendingByProject returns every pending application for the project.
func (s *ApplicationStore) ListPendingByProject(ctx context.Context, projectID string) ([]*models.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE project_id = $1 AND status = $2`,
		projectID, models.ApplicationStatusPending)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending applications: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan application: %v", ErrQueryFailed, err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list pending applications: %v", ErrQueryFailed, err)
	}
	return apps, nil
}

// CloseAllPending bulk-transitions the project's pending applications to
// closed. Zero matches is a no-op, not an error.
func (s *ApplicationStore) CloseAllPending(ctx context.Context, projectID string) (BulkResult, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, updated_at = NOW()
		WHERE project_id = $1 AND status = $3`,
		projectID, models.ApplicationStatusClosed, models.ApplicationStatusPending)
	if err != nil {
		return BulkResult{}, fmt.Errorf("%w: close pending applications: %v", ErrQueryFailed, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return BulkResult{}, fmt.Errorf("%w: close pending applications: %v", ErrQueryFailed, err)
	}
	// The filter only matches rows the update changes, so matched and
	// modified counts are equal here.
	return BulkResult{Matched: affected, Modified: affected}, nil
}

// UpdateStatus writes the new status and returns the updated record, or nil
// when the application is absent.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE applications
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+applicationColumns,
		id, status)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: update application status: %v", ErrQueryFailed, err)
	}
	return a, nil
}

// Delete removes the application and returns the deleted record so callers
// can clean up the associated resume blob.
func (s *ApplicationStore) Delete(ctx context.Context, id string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM applications WHERE id = $1
		RETURNING `+applicationColumns, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: delete application: %v", ErrQueryFailed, err)
	}
	return a, nil
}
