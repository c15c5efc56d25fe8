package agent

import (
	"strings"
	"testing"
	"time"

	"supaco_backend/internal/assistant/repository"
)

func TestEmbeddedLocalesAreComplete(t *testing.T) {
	for _, code := range []string{"fr", "en"} {
		loc, err := LoadLocale(code)
		if err != nil {
			t.Fatalf("%s: %v", code, err)
		}
		if len(loc.Questions) != 5 {
			t.Fatalf("%s: expected 5 questions, got %d", code, len(loc.Questions))
		}
		for _, spec := range toolSpecs {
			text := loc.Tools[spec.name]
			for _, p := range spec.params {
				if text.Params[p.name] == "" {
					t.Fatalf("%s: tool %s lacks wording for %s", code, spec.name, p.name)
				}
			}
		}
	}
}

func TestUnknownLocaleIsRejected(t *testing.T) {
	if _, err := LoadLocale("de"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDescribeTemplates(t *testing.T) {
	loc := testLocale()

	got := loc.Describe(ToolCreateProject, map[string]any{"name": "Site X", "client_name": "Acme"})
	if got != `Créer le projet "Site X" pour Acme` {
		t.Fatalf("unexpected description %q", got)
	}

	got = loc.Describe(ToolCreateTask, map[string]any{"title": "Relance"})
	if strings.Contains(got, "<no value>") {
		t.Fatalf("absent arguments must render empty, got %q", got)
	}
}

func TestFormatterFrench(t *testing.T) {
	f := newFormatter(testLocale())

	if got := f.optMoney(nil); got != "Non défini" {
		t.Fatalf("unexpected placeholder %q", got)
	}
	if got := f.optDate(nil); got != "Pas de deadline" {
		t.Fatalf("unexpected placeholder %q", got)
	}
	if got := f.optText(nil); got != "Non renseigné" {
		t.Fatalf("unexpected placeholder %q", got)
	}
	if got := f.date(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)); got != "09/03/2026" {
		t.Fatalf("unexpected date %q", got)
	}
	if got := f.money(250); got != "250€" {
		t.Fatalf("unexpected amount %q", got)
	}
}

func TestFormatterEnglishGroupsThousands(t *testing.T) {
	f := newFormatter(MustLoadLocale("en"))
	if got := f.money(1500); got != "€1,500" {
		t.Fatalf("unexpected amount %q", got)
	}
}

func TestSystemPromptEmbedsAtMostTenEntities(t *testing.T) {
	snap := &Snapshot{Statistics: Statistics{Projects: StatusStats{Total: 12}}}
	for i := 0; i < 12; i++ {
		snap.Projects = append(snap.Projects, ProjectView{Name: "Projet " + string(rune('A'+i)), Status: repository.ProjectStatusQuote})
	}

	prompt := systemPrompt(testLocale(), snap, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC))
	if !strings.Contains(prompt, "PROJETS (12)") {
		t.Fatal("expected full project count")
	}
	if !strings.Contains(prompt, "Projet J") || strings.Contains(prompt, "Projet K") {
		t.Fatal("expected only the first ten projects to be embedded")
	}
	if !strings.Contains(prompt, "2026-03-09") {
		t.Fatal("expected today's date in the prompt")
	}
}
