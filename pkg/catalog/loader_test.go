package catalog

import (
	"testing"
)

func TestCatalog_EmbeddedParses(t *testing.T) {
	c := NewCatalog()

	projects, err := c.Projects()
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(projects) == 0 {
		t.Fatal("expected seed projects")
	}

	formations, err := c.Formations()
	if err != nil {
		t.Fatalf("Formations: %v", err)
	}
	if len(formations) == 0 {
		t.Fatal("expected seed formations")
	}

	seen := map[string]bool{}
	for i := range projects {
		if seen[projects[i].ID] {
			t.Errorf("duplicate project id %q", projects[i].ID)
		}
		seen[projects[i].ID] = true
		if projects[i].UpdatedAt.IsZero() {
			t.Errorf("project %q has no updated_at", projects[i].ID)
		}
	}
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := NewCatalog()
	first, _ := c.Projects()
	first[0].Title = "mutated"

	second, _ := c.Projects()
	if second[0].Title == "mutated" {
		t.Error("Projects() returned a shared slice")
	}
}

func TestCatalog_MissingID(t *testing.T) {
	c := Parse([]byte("projects:\n  - title: No ID\n"))
	if _, err := c.Projects(); err == nil {
		t.Fatal("expected error for project without id")
	}
}

func TestCatalog_InvalidYAML(t *testing.T) {
	c := Parse([]byte("projects: [unterminated"))
	if _, err := c.Formations(); err == nil {
		t.Fatal("expected parse error")
	}
}
