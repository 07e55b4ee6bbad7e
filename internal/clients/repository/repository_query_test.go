package repository

import (
	"strings"
	"testing"
)

func TestListClientsQueryFiltersIndustryOptionally(t *testing.T) {
	q := strings.ToLower(listClientsQuery)
	for _, fragment := range []string{
		"$1::text is null or c.industry = $1",
		"as forms_count",
		"as submissions_count",
	} {
		if !strings.Contains(q, fragment) {
			t.Fatalf("expected list query to contain %q", fragment)
		}
	}
}

func TestIndustriesQuerySkipsBlankValues(t *testing.T) {
	q := strings.ToLower(industriesQuery)
	if !strings.Contains(q, "distinct industry") || !strings.Contains(q, "industry <> ''") {
		t.Fatalf("unexpected industries query: %s", industriesQuery)
	}
}
