// Package repository provides PostgreSQL access for the assistant. Every
// query is scoped to the calling user.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"supaco_backend/platform/apperr"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Reader is the read side used to build context snapshots.
type Reader interface {
	RecentProjects(ctx context.Context, userID uuid.UUID, limit int) ([]ProjectSummary, error)
	RecentProspects(ctx context.Context, userID uuid.UUID, limit int) ([]ProspectSummary, error)
	ProjectStatusCounts(ctx context.Context, userID uuid.UUID) (StatusCounts, error)
	ProspectStatusCounts(ctx context.Context, userID uuid.UUID) (StatusCounts, error)
	UpcomingDeadlines(ctx context.Context, userID uuid.UUID, limit int) ([]Deadline, error)
}

// Writer is the mutation side used by the action executor.
type Writer interface {
	FindProjectsByName(ctx context.Context, userID uuid.UUID, ref string, limit int) ([]Candidate, error)
	FindProspectsByName(ctx context.Context, userID uuid.UUID, ref string, limit int) ([]Candidate, error)
	CreateProject(ctx context.Context, userID uuid.UUID, p NewProject) (uuid.UUID, error)
	CreateProspect(ctx context.Context, userID uuid.UUID, p NewProspect) (uuid.UUID, error)
	CreateTask(ctx context.Context, userID uuid.UUID, t NewTask) (uuid.UUID, error)
	CreateNote(ctx context.Context, userID uuid.UUID, n NewNote) (uuid.UUID, error)
	UpdateProjectStatus(ctx context.Context, userID, projectID uuid.UUID, status string) error
	UpdateProspectStatus(ctx context.Context, userID, prospectID uuid.UUID, status string) error
	WinProspect(ctx context.Context, userID, prospectID uuid.UUID, projectNamePrefix string) (WinResult, error)
}

// Repository combines both sides.
type Repository interface {
	Reader
	Writer
}

// Repo implements Repository over a pgx pool.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

// New creates a new assistant repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const recentProjectsQuery = `
	SELECT id, name, client_name, status, budget::float8 AS budget, deadline, created_at
	FROM projects
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2`

const recentProspectsQuery = `
	SELECT id, first_name, last_name, company, status, estimated_budget::float8 AS estimated_budget, source, updated_at
	FROM prospects
	WHERE user_id = $1
	ORDER BY updated_at DESC
	LIMIT $2`

const projectStatusCountsQuery = `
	SELECT status, COUNT(*)::int AS count, COALESCE(SUM(budget), 0)::float8 AS budget
	FROM projects
	WHERE user_id = $1
	GROUP BY status`

const prospectStatusCountsQuery = `
	SELECT status, COUNT(*)::int AS count, COALESCE(SUM(estimated_budget), 0)::float8 AS budget
	FROM prospects
	WHERE user_id = $1
	GROUP BY status`

const upcomingDeadlinesQuery = `
	SELECT id, name, client_name, deadline
	FROM projects
	WHERE user_id = $1
	  AND deadline IS NOT NULL
	  AND deadline >= CURRENT_DATE
	  AND status <> 'termine'
	ORDER BY deadline ASC
	LIMIT $2`

const findProjectsByNameQuery = `
	SELECT id, name
	FROM projects
	WHERE user_id = $1 AND name ILIKE $2 ESCAPE '\'
	ORDER BY created_at DESC, id
	LIMIT $3`

const findProspectsByNameQuery = `
	SELECT id, first_name || ' ' || last_name AS name
	FROM prospects
	WHERE user_id = $1
	  AND (first_name ILIKE $2 ESCAPE '\'
	    OR last_name ILIKE $3 ESCAPE '\'
	    OR (first_name || ' ' || last_name) ILIKE $4 ESCAPE '\')
	ORDER BY updated_at DESC, id
	LIMIT $5`

const createProjectQuery = `
	INSERT INTO projects (user_id, name, client_name, client_email, client_phone, description, budget, status, deadline)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`

const createProspectQuery = `
	INSERT INTO prospects (user_id, first_name, last_name, email, phone, company, source, estimated_budget, needs, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id`

const createTaskQuery = `
	INSERT INTO tasks (project_id, title, description, status, priority, due_date)
	SELECT p.id, $3, $4, 'todo', $5, $6
	FROM projects p
	WHERE p.id = $1 AND p.user_id = $2
	RETURNING id`

const createNoteQuery = `
	INSERT INTO notes (project_id, title, content)
	SELECT p.id, $3, $4
	FROM projects p
	WHERE p.id = $1 AND p.user_id = $2
	RETURNING id`

const updateProjectStatusQuery = `UPDATE projects SET status = $3 WHERE id = $1 AND user_id = $2`

const updateProspectStatusQuery = `UPDATE prospects SET status = $3 WHERE id = $1 AND user_id = $2`

const lockProspectQuery = `
	SELECT id, first_name, last_name, email, phone, needs, estimated_budget::float8 AS estimated_budget, project_id
	FROM prospects
	WHERE id = $1 AND user_id = $2
	FOR UPDATE`

const linkWonProspectQuery = `UPDATE prospects SET status = 'gagne', project_id = $3 WHERE id = $1 AND user_id = $2`

const createProjectFromProspectQuery = `
	INSERT INTO projects (user_id, name, client_name, client_email, client_phone, description, budget, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, 'devis')
	RETURNING id`

type statusRow struct {
	Status string  `db:"status"`
	Count  int     `db:"count"`
	Budget float64 `db:"budget"`
}

type lockedProspect struct {
	ID              uuid.UUID  `db:"id"`
	FirstName       string     `db:"first_name"`
	LastName        string     `db:"last_name"`
	Email           *string    `db:"email"`
	Phone           *string    `db:"phone"`
	Needs           *string    `db:"needs"`
	EstimatedBudget *float64   `db:"estimated_budget"`
	ProjectID       *uuid.UUID `db:"project_id"`
}

func (r *Repo) RecentProjects(ctx context.Context, userID uuid.UUID, limit int) ([]ProjectSummary, error) {
	var rows []ProjectSummary
	if err := pgxscan.Select(ctx, r.pool, &rows, recentProjectsQuery, userID, limit); err != nil {
		return nil, fmt.Errorf("recent projects: %w", err)
	}
	return rows, nil
}

func (r *Repo) RecentProspects(ctx context.Context, userID uuid.UUID, limit int) ([]ProspectSummary, error) {
	var rows []ProspectSummary
	if err := pgxscan.Select(ctx, r.pool, &rows, recentProspectsQuery, userID, limit); err != nil {
		return nil, fmt.Errorf("recent prospects: %w", err)
	}
	return rows, nil
}

func (r *Repo) ProjectStatusCounts(ctx context.Context, userID uuid.UUID) (StatusCounts, error) {
	return r.statusCounts(ctx, projectStatusCountsQuery, userID)
}

func (r *Repo) ProspectStatusCounts(ctx context.Context, userID uuid.UUID) (StatusCounts, error) {
	return r.statusCounts(ctx, prospectStatusCountsQuery, userID)
}

func (r *Repo) statusCounts(ctx context.Context, query string, userID uuid.UUID) (StatusCounts, error) {
	var rows []statusRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, userID); err != nil {
		return StatusCounts{}, fmt.Errorf("status counts: %w", err)
	}
	return foldStatusRows(rows), nil
}

func foldStatusRows(rows []statusRow) StatusCounts {
	counts := StatusCounts{ByStatus: make(map[string]int, len(rows))}
	for _, row := range rows {
		counts.ByStatus[row.Status] = row.Count
		counts.Total += row.Count
		counts.BudgetSum += row.Budget
	}
	return counts
}

func (r *Repo) UpcomingDeadlines(ctx context.Context, userID uuid.UUID, limit int) ([]Deadline, error) {
	var rows []Deadline
	if err := pgxscan.Select(ctx, r.pool, &rows, upcomingDeadlinesQuery, userID, limit); err != nil {
		return nil, fmt.Errorf("upcoming deadlines: %w", err)
	}
	return rows, nil
}

func (r *Repo) FindProjectsByName(ctx context.Context, userID uuid.UUID, ref string, limit int) ([]Candidate, error) {
	var rows []Candidate
	if err := pgxscan.Select(ctx, r.pool, &rows, findProjectsByNameQuery, userID, containsPattern(ref), limit); err != nil {
		return nil, fmt.Errorf("find projects by name: %w", err)
	}
	return rows, nil
}

// FindProspectsByName matches ref against the full name, and its first word
// against first names and the remainder against last names.
func (r *Repo) FindProspectsByName(ctx context.Context, userID uuid.UUID, ref string, limit int) ([]Candidate, error) {
	first, last := splitPersonName(ref)
	var rows []Candidate
	err := pgxscan.Select(ctx, r.pool, &rows, findProspectsByNameQuery,
		userID, containsPattern(first), containsPattern(last), containsPattern(ref), limit)
	if err != nil {
		return nil, fmt.Errorf("find prospects by name: %w", err)
	}
	return rows, nil
}

func (r *Repo) CreateProject(ctx context.Context, userID uuid.UUID, p NewProject) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, createProjectQuery,
		userID, p.Name, p.ClientName, p.ClientEmail, p.ClientPhone, p.Description, p.Budget, p.Status, p.Deadline,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create project: %w", err)
	}
	return id, nil
}

func (r *Repo) CreateProspect(ctx context.Context, userID uuid.UUID, p NewProspect) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, createProspectQuery,
		userID, p.FirstName, p.LastName, p.Email, p.Phone, p.Company, p.Source, p.EstimatedBudget, p.Needs, p.Notes,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create prospect: %w", err)
	}
	return id, nil
}

func (r *Repo) CreateTask(ctx context.Context, userID uuid.UUID, t NewTask) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, createTaskQuery,
		t.ProjectID, userID, t.Title, t.Description, t.Priority, t.DueDate,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperr.NotFound("project not found")
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("create task: %w", err)
	}
	return id, nil
}

func (r *Repo) CreateNote(ctx context.Context, userID uuid.UUID, n NewNote) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, createNoteQuery, n.ProjectID, userID, n.Title, n.Content).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperr.NotFound("project not found")
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("create note: %w", err)
	}
	return id, nil
}

func (r *Repo) UpdateProjectStatus(ctx context.Context, userID, projectID uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, updateProjectStatusQuery, projectID, userID, status)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("project not found")
	}
	return nil
}

func (r *Repo) UpdateProspectStatus(ctx context.Context, userID, prospectID uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, updateProspectStatusQuery, prospectID, userID, status)
	if err != nil {
		return fmt.Errorf("update prospect status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prospect not found")
	}
	return nil
}

// WinProspect marks a prospect as won. A prospect without a linked project
// gets one created from its own fields and linked, in the same transaction.
func (r *Repo) WinProspect(ctx context.Context, userID, prospectID uuid.UUID, projectNamePrefix string) (result WinResult, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return WinResult{}, fmt.Errorf("begin win prospect: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var p lockedProspect
	if err = pgxscan.Get(ctx, tx, &p, lockProspectQuery, prospectID, userID); err != nil {
		if pgxscan.NotFound(err) {
			return WinResult{}, apperr.NotFound("prospect not found")
		}
		return WinResult{}, fmt.Errorf("lock prospect: %w", err)
	}

	result = WinResult{ProspectID: p.ID, LinkedProjectID: p.ProjectID}

	if p.ProjectID != nil {
		if _, err = tx.Exec(ctx, updateProspectStatusQuery, p.ID, userID, ProspectStatusWon); err != nil {
			return WinResult{}, fmt.Errorf("update won prospect: %w", err)
		}
	} else {
		clientName := strings.TrimSpace(p.FirstName + " " + p.LastName)
		projectName := strings.TrimSpace(projectNamePrefix + " " + clientName)

		var projectID uuid.UUID
		err = tx.QueryRow(ctx, createProjectFromProspectQuery,
			userID, projectName, clientName, p.Email, p.Phone, p.Needs, p.EstimatedBudget,
		).Scan(&projectID)
		if err != nil {
			return WinResult{}, fmt.Errorf("create project from prospect: %w", err)
		}
		if _, err = tx.Exec(ctx, linkWonProspectQuery, p.ID, userID, projectID); err != nil {
			return WinResult{}, fmt.Errorf("link won prospect: %w", err)
		}
		result.ProjectID = &projectID
		result.LinkedProjectID = &projectID
	}

	if err = tx.Commit(ctx); err != nil {
		return WinResult{}, fmt.Errorf("commit win prospect: %w", err)
	}
	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching ref anywhere, with LIKE
// metacharacters in ref taken literally.
func containsPattern(ref string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(ref)) + "%"
}

// splitPersonName splits "Jean Pierre Dupont" into "Jean" and "Pierre Dupont".
// A single word is used for both halves.
func splitPersonName(ref string) (string, string) {
	fields := strings.Fields(ref)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], fields[0]
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
