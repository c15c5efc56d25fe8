package repository

import (
	"strings"
	"testing"
)

func TestEmailLookupsAreCaseInsensitive(t *testing.T) {
	if !strings.Contains(strings.ToLower(getUserByEmailQuery), "where lower(email) = lower($1)") {
		t.Fatal("expected case-insensitive email lookup")
	}
	if !strings.Contains(strings.ToLower(createUserQuery), "lower($2)") {
		t.Fatal("expected emails to be stored lower-cased")
	}
}

func TestQueriesNeverSelectStar(t *testing.T) {
	for name, query := range map[string]string{
		"create":   createUserQuery,
		"by email": getUserByEmailQuery,
		"by id":    getUserByIDQuery,
	} {
		if strings.Contains(query, "*") {
			t.Fatalf("%s query must list columns explicitly", name)
		}
	}
}
