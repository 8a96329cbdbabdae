package models

import (
	"testing"
	"time"
)

func TestTaskStatusValid(t *testing.T) {
	valid := []TaskStatus{"New", "In Progress", "Completed"}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("Expected %q to be valid", s)
		}
	}

	invalid := []TaskStatus{"new", "in progress", "COMPLETED", "", "Done"}
	for _, s := range invalid {
		if s.Valid() {
			t.Errorf("Expected %q to be invalid", s)
		}
	}
}

func TestTaskFilterMatches(t *testing.T) {
	completed := TaskStatusCompleted
	task := &Task{ID: 1, OwnerID: 7, Status: TaskStatusNew}

	if !(TaskFilter{OwnerID: 7}).Matches(task) {
		t.Error("Owner filter should match own task")
	}
	if (TaskFilter{OwnerID: 8}).Matches(task) {
		t.Error("Owner filter should not match foreign task")
	}
	if !(TaskFilter{AllOwners: true}).Matches(task) {
		t.Error("Admin filter should match any task")
	}
	if (TaskFilter{AllOwners: true, Status: &completed}).Matches(task) {
		t.Error("Status filter should exclude other statuses")
	}
}

func TestTaskPageNavigation(t *testing.T) {
	p := &TaskPage{Total: 25, Page: 1, PageSize: 10}
	if !p.HasNext() || p.HasPrevious() {
		t.Errorf("Page 1 of 3: next=%v previous=%v", p.HasNext(), p.HasPrevious())
	}

	p.Page = 3
	if p.HasNext() || !p.HasPrevious() {
		t.Errorf("Page 3 of 3: next=%v previous=%v", p.HasNext(), p.HasPrevious())
	}
}

func TestProfilePatchApply(t *testing.T) {
	first := "Ada"
	id := &Identity{FirstName: "A", LastName: "L", Email: "a@example.com"}

	ProfilePatch{FirstName: &first}.Apply(id)

	if id.FirstName != "Ada" || id.LastName != "L" || id.Email != "a@example.com" {
		t.Errorf("Unexpected identity after patch: %+v", id)
	}
}

func TestQuotaCounterResetAt(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	q := QuotaCounter{WindowStart: start}
	if got := q.ResetAt(24 * time.Hour); !got.Equal(start.Add(24 * time.Hour)) {
		t.Errorf("Expected reset at %v, got %v", start.Add(24*time.Hour), got)
	}
}
