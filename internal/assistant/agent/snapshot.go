package agent

import (
	"context"
	"strings"

	"supaco_backend/internal/assistant/repository"
	"supaco_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	snapshotProjectLimit  = 20
	snapshotProspectLimit = 20
	snapshotDeadlineLimit = 5
)

// ProjectView is a project as embedded in the prompt.
type ProjectView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Client   string `json:"client"`
	Status   string `json:"status"`
	Budget   string `json:"budget"`
	Deadline string `json:"deadline"`
}

// ProspectView is a prospect as embedded in the prompt.
type ProspectView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Company         string `json:"company"`
	Status          string `json:"status"`
	EstimatedBudget string `json:"estimatedBudget"`
	Source          string `json:"source"`
}

// DeadlineView is an upcoming project deadline.
type DeadlineView struct {
	Project string `json:"project"`
	Client  string `json:"client"`
	Date    string `json:"date"`
}

// StatusStats counts rows per status.
type StatusStats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"byStatus"`
	TotalBudget string         `json:"totalBudget"`
}

// Statistics groups the per-entity counters.
type Statistics struct {
	Projects  StatusStats `json:"projects"`
	Prospects StatusStats `json:"prospects"`
}

// Snapshot is the bounded summary of a user's data used to ground the model.
type Snapshot struct {
	Projects   []ProjectView  `json:"projects"`
	Prospects  []ProspectView `json:"prospects"`
	Statistics Statistics     `json:"statistics"`
	Deadlines  []DeadlineView `json:"upcomingDeadlines"`
}

// Snapshotter builds Snapshots from the assistant repository.
type Snapshotter struct {
	repo   repository.Reader
	format formatter
	log    *logger.Logger
}

// NewSnapshotter creates a Snapshotter rendering values in loc.
func NewSnapshotter(repo repository.Reader, loc *Locale, log *logger.Logger) *Snapshotter {
	return &Snapshotter{repo: repo, format: newFormatter(loc), log: log}
}

// Snapshot reads the user's recent data concurrently. It returns nil when any
// read fails; partial snapshots are never returned.
func (s *Snapshotter) Snapshot(ctx context.Context, userID uuid.UUID) *Snapshot {
	var (
		projects      []repository.ProjectSummary
		prospects     []repository.ProspectSummary
		projectStats  repository.StatusCounts
		prospectStats repository.StatusCounts
		deadlines     []repository.Deadline
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projects, err = s.repo.RecentProjects(gctx, userID, snapshotProjectLimit)
		return err
	})
	g.Go(func() (err error) {
		prospects, err = s.repo.RecentProspects(gctx, userID, snapshotProspectLimit)
		return err
	})
	g.Go(func() (err error) {
		projectStats, err = s.repo.ProjectStatusCounts(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		prospectStats, err = s.repo.ProspectStatusCounts(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		deadlines, err = s.repo.UpcomingDeadlines(gctx, userID, snapshotDeadlineLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.WithContext(ctx).DatabaseError("assistant snapshot", err)
		return nil
	}

	snap := &Snapshot{
		Projects:  make([]ProjectView, 0, len(projects)),
		Prospects: make([]ProspectView, 0, len(prospects)),
		Deadlines: make([]DeadlineView, 0, len(deadlines)),
		Statistics: Statistics{
			Projects:  s.stats(projectStats),
			Prospects: s.stats(prospectStats),
		},
	}
	for _, p := range projects {
		snap.Projects = append(snap.Projects, ProjectView{
			ID:       p.ID.String(),
			Name:     p.Name,
			Client:   p.ClientName,
			Status:   p.Status,
			Budget:   s.format.optMoney(p.Budget),
			Deadline: s.format.optDate(p.Deadline),
		})
	}
	for _, p := range prospects {
		snap.Prospects = append(snap.Prospects, ProspectView{
			ID:              p.ID.String(),
			Name:            strings.TrimSpace(p.FirstName + " " + p.LastName),
			Company:         s.format.optText(p.Company),
			Status:          p.Status,
			EstimatedBudget: s.format.optMoney(p.EstimatedBudget),
			Source:          p.Source,
		})
	}
	for _, d := range deadlines {
		snap.Deadlines = append(snap.Deadlines, DeadlineView{
			Project: d.Name,
			Client:  d.ClientName,
			Date:    s.format.date(d.Deadline),
		})
	}
	return snap
}

func (s *Snapshotter) stats(counts repository.StatusCounts) StatusStats {
	byStatus := counts.ByStatus
	if byStatus == nil {
		byStatus = map[string]int{}
	}
	return StatusStats{
		Total:       counts.Total,
		ByStatus:    byStatus,
		TotalBudget: s.format.money(counts.BudgetSum),
	}
}
