package repository

import (
	"time"

	"github.com/google/uuid"
)

// Project status values.
const (
	ProjectStatusQuote      = "devis"
	ProjectStatusInProgress = "en_cours"
	ProjectStatusDone       = "termine"
	ProjectStatusCancelled  = "annule"
)

// Prospect status values.
const (
	ProspectStatusNew           = "nouveau"
	ProspectStatusContacted     = "contacte"
	ProspectStatusQualification = "qualification"
	ProspectStatusProposal      = "proposition"
	ProspectStatusNegotiation   = "negociation"
	ProspectStatusWon           = "gagne"
	ProspectStatusLost          = "perdu"
)

// Prospect source values.
const (
	SourceWebsite   = "site_web"
	SourceReferral  = "recommandation"
	SourceLinkedIn  = "linkedin"
	SourceTradeFair = "salon"
	SourceOther     = "autre"
)

// Task defaults.
const (
	TaskStatusTodo     = "todo"
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// ProjectSummary is a project row as shown to the assistant.
type ProjectSummary struct {
	ID         uuid.UUID  `db:"id"`
	Name       string     `db:"name"`
	ClientName string     `db:"client_name"`
	Status     string     `db:"status"`
	Budget     *float64   `db:"budget"`
	Deadline   *time.Time `db:"deadline"`
	CreatedAt  time.Time  `db:"created_at"`
}

// ProspectSummary is a prospect row as shown to the assistant.
type ProspectSummary struct {
	ID              uuid.UUID `db:"id"`
	FirstName       string    `db:"first_name"`
	LastName        string    `db:"last_name"`
	Company         *string   `db:"company"`
	Status          string    `db:"status"`
	EstimatedBudget *float64  `db:"estimated_budget"`
	Source          string    `db:"source"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Deadline is an upcoming, unfinished project deadline.
type Deadline struct {
	ProjectID  uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	ClientName string    `db:"client_name"`
	Deadline   time.Time `db:"deadline"`
}

// StatusCounts aggregates rows per status with a budget total.
type StatusCounts struct {
	Total     int
	ByStatus  map[string]int
	BudgetSum float64
}

// Count returns the number of rows in status.
func (s StatusCounts) Count(status string) int {
	return s.ByStatus[status]
}

// Candidate is a named entity returned by a name search.
type Candidate struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"name"`
}

// NewProject holds the fields of a project to insert. Nil pointers are stored as NULL.
type NewProject struct {
	Name        string
	ClientName  string
	ClientEmail *string
	ClientPhone *string
	Description *string
	Budget      *float64
	Status      string
	Deadline    *time.Time
}

// NewProspect holds the fields of a prospect to insert.
type NewProspect struct {
	FirstName       string
	LastName        string
	Email           *string
	Phone           *string
	Company         *string
	Source          string
	EstimatedBudget *float64
	Needs           *string
	Notes           *string
}

// NewTask holds the fields of a task to insert on an existing project.
type NewTask struct {
	ProjectID   uuid.UUID
	Title       string
	Description *string
	Priority    string
	DueDate     *time.Time
}

// NewNote holds the fields of a note to insert on an existing project.
type NewNote struct {
	ProjectID uuid.UUID
	Title     string
	Content   string
}

// WinResult reports the outcome of marking a prospect as won.
type WinResult struct {
	ProspectID uuid.UUID
	// ProjectID is set when a project was created and linked by this call.
	ProjectID *uuid.UUID
	// LinkedProjectID is the prospect's project after the call, new or existing.
	LinkedProjectID *uuid.UUID
}
