// internal/store/project_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"researchhub/internal/models"

	"github.com/lib/pq"
)

var (
	ErrQueryFailed = errors.New("QUERY_FAILED")
)

// ProjectFilter narrows List results. Zero values mean "no constraint".
type ProjectFilter struct {
	ProfessorID string
	Status      models.ProjectStatus
	VisibleOnly bool
	Category    string
	SortBy      string // "created_at" (default) or "application_deadline"
	Descending  bool
	Limit       int
	Offset      int
}

// ProjectStore provides typed CRUD access to project records.
type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectColumns = `id, professor_id, contact_email, title, description, status, is_visible, positions,
	research_categories, requirements, application_deadline, created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*models.Project, error) {
	var p models.Project
	var deadline sql.NullTime
	err := row.Scan(
		&p.ID, &p.ProfessorID, &p.ContactEmail, &p.Title, &p.Description, &p.Status,
		&p.IsVisible, &p.Positions, pq.Array(&p.ResearchCategories), pq.Array(&p.Requirements),
		&deadline, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		t := deadline.Time
		p.ApplicationDeadline = &t
	}
	return &p, nil
}

func (s *ProjectStore) Insert(ctx context.Context, p *models.Project) error {
	var deadline sql.NullTime
	if p.ApplicationDeadline != nil {
		deadline = sql.NullTime{Time: *p.ApplicationDeadline, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (
			id, professor_id, contact_email, title, description, status, is_visible, positions,
			research_categories, requirements, application_deadline, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		p.ID, p.ProfessorID, p.ContactEmail, p.Title, p.Description, p.Status, p.IsVisible,
		p.Positions, pq.Array(p.ResearchCategories), pq.Array(p.Requirements),
		deadline, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert project: %v", ErrQueryFailed, err)
	}
	return nil
}

// GetByID returns the project or nil when no record matches.
func (s *ProjectStore) GetByID(ctx context.Context, id string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get project: %v", ErrQueryFailed, err)
	}
	return p, nil
}

// GetOwned returns the project only when the given professor owns it.
// A miss on either predicate is indistinguishable from absence.
func (s *ProjectStore) GetOwned(ctx context.Context, id, professorID string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND professor_id = $2`,
		id, professorID)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get owned project: %v", ErrQueryFailed, err)
	}
	return p, nil
}

// List returns projects matching the filter with sort and pagination.
func (s *ProjectStore) List(ctx context.Context, f ProjectFilter) ([]*models.Project, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ProfessorID != "" {
		conds = append(conds, "professor_id = "+arg(f.ProfessorID))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.VisibleOnly {
		conds = append(conds, "is_visible = TRUE")
	}
	if f.Category != "" {
		conds = append(conds, arg(f.Category)+" = ANY(research_categories)")
	}

	query := `SELECT ` + projectColumns + ` FROM projects`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	sortBy := "created_at"
	if f.SortBy == "application_deadline" {
		sortBy = "application_deadline"
	}
	direction := "ASC"
	if f.Descending {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list projects: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan project: %v", ErrQueryFailed, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list projects: %v", ErrQueryFailed, err)
	}
	return projects, nil
}

// ListExpired returns published projects whose deadline is strictly before
// the given instant. A deadline equal to now is not expired.
func (s *ProjectStore) ListExpired(ctx context.Context, now time.Time) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE status = $1 AND application_deadline IS NOT NULL AND application_deadline < $2`,
		models.ProjectStatusPublished, now)
	if err != nil {
		return nil, fmt.Errorf("%w: list expired projects: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan project: %v", ErrQueryFailed, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list expired projects: %v", ErrQueryFailed, err)
	}
	return projects, nil
}

// UpdateDetails writes the mutable listing fields, scoped by id and owner.
// Status and visibility are deliberately excluded; those move only through
// Publish and the close operations. Returns nil when no row matched.
func (s *ProjectStore) UpdateDetails(ctx context.Context, p *models.Project) (*models.Project, error) {
	var deadline sql.NullTime
	if p.ApplicationDeadline != nil {
		deadline = sql.NullTime{Time: *p.ApplicationDeadline, Valid: true}
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET title = $3, description = $4, positions = $5,
			research_categories = $6, requirements = $7,
			application_deadline = $8, updated_at = NOW()
		WHERE id = $1 AND professor_id = $2
		RETURNING `+projectColumns,
		p.ID, p.ProfessorID, p.Title, p.Description, p.Positions,
		pq.Array(p.ResearchCategories), pq.Array(p.Requirements), deadline,
	)
	updated, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: update project: %v", ErrQueryFailed, err)
	}
	return updated, nil
}

// Publish moves a draft project to published, scoped by id and owner.
// Returns nil when the project is absent, foreign, or not a draft.
func (s *ProjectStore) Publish(ctx context.Context, id, professorID string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND professor_id = $2 AND status = $4
		RETURNING `+projectColumns,
		id, professorID, models.ProjectStatusPublished, models.ProjectStatusDraft,
	)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: publish project: %v", ErrQueryFailed, err)
	}
	return p, nil
}

// SetVisibility toggles the listing flag, scoped by id and owner. Visibility
// is independent of status; close forces it false but a published project
// can be hidden without closing it. Returns nil when no row matched.
func (s *ProjectStore) SetVisibility(ctx context.Context, id, professorID string, visible bool) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET is_visible = $3, updated_at = NOW()
		WHERE id = $1 AND professor_id = $2
		RETURNING `+projectColumns,
		id, professorID, visible,
	)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: set project visibility: %v", ErrQueryFailed, err)
	}
	return p, nil
}

// CloseOwned conditionally closes a published project scoped by id and
// owner. Returns nil when no row matched, which callers surface as
// not-found rather than a distinct error.
func (s *ProjectStore) CloseOwned(ctx context.Context, id, professorID string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET status = $3, is_visible = FALSE, updated_at = NOW()
		WHERE id = $1 AND professor_id = $2 AND status = $4
		RETURNING `+projectColumns,
		id, professorID, models.ProjectStatusClosed, models.ProjectStatusPublished,
	)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: close project: %v", ErrQueryFailed, err)
	}
	return p, nil
}

// Close is the sweep-path variant of CloseOwned, scoped by id alone.
func (s *ProjectStore) Close(ctx context.Context, id string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET status = $2, is_visible = FALSE, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+projectColumns,
		id, models.ProjectStatusClosed, models.ProjectStatusPublished,
	)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: close project: %v", ErrQueryFailed, err)
	}
	return p, nil
}

// Delete removes an owned project while it is draft or closed. Returns nil
// when no row matched.
func (s *ProjectStore) Delete(ctx context.Context, id, professorID string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM projects
		WHERE id = $1 AND professor_id = $2 AND status IN ($3, $4)
		RETURNING `+projectColumns,
		id, professorID, models.ProjectStatusDraft, models.ProjectStatusClosed,
	)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: delete project: %v", ErrQueryFailed, err)
	}
	return p, nil
}
