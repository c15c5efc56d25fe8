package agent

import (
	"context"
	"testing"
	"time"

	"supaco_backend/internal/assistant/repository"
	"supaco_backend/platform/logger"

	"github.com/google/uuid"
)

func TestSnapshotFormatsValues(t *testing.T) {
	repo := &fakeRepo{}
	userID := uuid.New()
	budget := 800.0
	deadline := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	withBudget := repo.addProject(userID, "Logo", repository.ProjectStatusInProgress)
	withBudget.Budget = &budget
	withBudget.Deadline = &deadline
	repo.addProject(userID, "Flyer", repository.ProjectStatusQuote)
	repo.addProject(uuid.New(), "Autre client", repository.ProjectStatusQuote)
	repo.addProspect(userID, "Jean", "Dupont", repository.ProspectStatusNew)

	snap := NewSnapshotter(repo, testLocale(), logger.Discard()).Snapshot(context.Background(), userID)
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if len(snap.Projects) != 2 {
		t.Fatalf("expected only the caller's projects, got %d", len(snap.Projects))
	}

	byName := map[string]ProjectView{}
	for _, p := range snap.Projects {
		byName[p.Name] = p
	}
	if byName["Logo"].Budget != "800€" || byName["Logo"].Deadline != "02/05/2026" {
		t.Fatalf("unexpected formatting %+v", byName["Logo"])
	}
	if byName["Flyer"].Budget != "Non défini" || byName["Flyer"].Deadline != "Pas de deadline" {
		t.Fatalf("unexpected placeholders %+v", byName["Flyer"])
	}
	if snap.Prospects[0].Company != "Non renseigné" || snap.Prospects[0].Name != "Jean Dupont" {
		t.Fatalf("unexpected prospect %+v", snap.Prospects[0])
	}
	if snap.Statistics.Projects.Total != 2 || snap.Statistics.Projects.TotalBudget != "800€" {
		t.Fatalf("unexpected stats %+v", snap.Statistics.Projects)
	}
	if len(snap.Deadlines) != 1 || snap.Deadlines[0].Date != "02/05/2026" {
		t.Fatalf("unexpected deadlines %+v", snap.Deadlines)
	}
}

func TestSnapshotIsNilOnAnyFailure(t *testing.T) {
	repo := &fakeRepo{readErr: errStore}
	if snap := NewSnapshotter(repo, testLocale(), logger.Discard()).Snapshot(context.Background(), uuid.New()); snap != nil {
		t.Fatalf("expected nil snapshot, got %+v", snap)
	}
}
