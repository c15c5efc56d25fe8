package migrations

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"testing"
)

var fileName = regexp.MustCompile(`^\d{5}_[a-z0-9_]+\.sql$`)

func TestMigrationsAreReversible(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no migrations embedded")
	}

	for i, name := range names {
		if !fileName.MatchString(name) {
			t.Fatalf("unexpected migration name %q", name)
		}
		if want := i + 1; !strings.HasPrefix(name, fmt.Sprintf("%05d_", want)) {
			t.Fatalf("migration %q out of sequence, expected version %d", name, want)
		}

		raw, err := fs.ReadFile(FS, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		body := string(raw)

		up := strings.Index(body, "-- +goose Up")
		down := strings.Index(body, "-- +goose Down")
		if up != 0 || down <= up {
			t.Fatalf("%s must start with an Up section followed by a Down section", name)
		}
		if strings.Count(body, "-- +goose StatementBegin") != strings.Count(body, "-- +goose StatementEnd") {
			t.Fatalf("%s has unbalanced statement blocks", name)
		}
	}
}

func TestUserScopedTablesCascade(t *testing.T) {
	raw, err := fs.ReadFile(FS, "00002_projects_prospects.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Count(string(raw), "REFERENCES users (id) ON DELETE CASCADE"); got < 2 {
		t.Fatalf("expected projects and prospects to reference users, found %d", got)
	}
}
