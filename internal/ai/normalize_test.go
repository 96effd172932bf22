package ai

import (
	"errors"
	"testing"
)

const wellFormedBatch = `{
  "explanation": "Spread the release work across the team.",
  "tasks": [
    {
      "title": "Write release notes",
      "description": "Summarize changes since 1.2.",
      "suggestedAssignee": "ana@example.com",
      "priority": "High",
      "estimatedDays": 2
    },
    {
      "title": "Update deployment scripts",
      "description": "Bump image tags.",
      "priority": "Medium",
      "estimatedDays": 1
    }
  ]
}`

func TestNormalizeStrictParse(t *testing.T) {
	batch, err := NormalizeTaskBatch(wellFormedBatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(batch.Tasks))
	}
	if batch.Tasks[0].SuggestedAssignee != "ana@example.com" {
		t.Errorf("suggestedAssignee = %q", batch.Tasks[0].SuggestedAssignee)
	}
	if batch.Explanation == "" {
		t.Errorf("expected explanation preserved")
	}
}

func TestNormalizeCodeFence(t *testing.T) {
	raw := "```json\n" + wellFormedBatch + "\n```"
	batch, err := NormalizeTaskBatch(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Tasks) != 2 {
		t.Errorf("tasks = %d, want 2", len(batch.Tasks))
	}
}

func TestNormalizeTruncatedBatch(t *testing.T) {
	// Response cut off inside the second task object, after a complete
	// key/value pair. Repair closes the object; the partial task is then
	// dropped by validation because it has no estimate.
	truncated := `{
  "explanation": "Plan",
  "tasks": [
    {
      "title": "First task",
      "description": "Complete.",
      "priority": "Low",
      "estimatedDays": 3
    },
    {
      "title": "Second task"`

	batch, err := NormalizeTaskBatch(truncated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Tasks) != 1 {
		t.Fatalf("tasks = %d, want 1 (truncated task dropped)", len(batch.Tasks))
	}
	if batch.Tasks[0].Title != "First task" {
		t.Errorf("kept task = %q", batch.Tasks[0].Title)
	}
}

func TestNormalizeTruncatedMidString(t *testing.T) {
	// Cut off inside a string literal: brace balancing cannot recover an
	// unterminated string, so this must fail loudly.
	truncated := `{"explanation": "Plan", "tasks": [{"title": "Broken ta`

	_, err := NormalizeTaskBatch(truncated)
	if !errors.Is(err, ErrIncompleteResponse) {
		t.Fatalf("expected ErrIncompleteResponse, got %v", err)
	}
}

func TestNormalizeGarbage(t *testing.T) {
	_, err := NormalizeTaskBatch("I could not generate any tasks, sorry!")
	if !errors.Is(err, ErrIncompleteResponse) {
		t.Fatalf("expected ErrIncompleteResponse, got %v", err)
	}
}

func TestNormalizeMissingTasksField(t *testing.T) {
	batch, err := NormalizeTaskBatch(`{"explanation": "Nothing to do."}`)
	if err != nil {
		t.Fatalf("missing tasks field must not be an error, got %v", err)
	}
	if len(batch.Tasks) != 0 {
		t.Errorf("expected empty batch, got %d tasks", len(batch.Tasks))
	}
}

func TestNormalizeEmptyObject(t *testing.T) {
	batch, err := NormalizeTaskBatch("{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Tasks) != 0 {
		t.Errorf("expected empty batch")
	}
}

func TestNormalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		task string
		keep bool
	}{
		{"valid", `{"title":"A","priority":"High","estimatedDays":1}`, true},
		{"missing title", `{"priority":"High","estimatedDays":1}`, false},
		{"unknown priority", `{"title":"A","priority":"Urgent","estimatedDays":1}`, false},
		{"lowercase priority normalized", `{"title":"A","priority":"critical","estimatedDays":2}`, true},
		{"default priority", `{"title":"A","estimatedDays":2}`, true},
		{"zero days", `{"title":"A","priority":"Low","estimatedDays":0}`, false},
		{"negative days", `{"title":"A","priority":"Low","estimatedDays":-2}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := NormalizeTaskBatch(`{"explanation":"x","tasks":[` + tt.task + `]}`)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if kept := len(batch.Tasks) == 1; kept != tt.keep {
				t.Errorf("kept = %v, want %v", kept, tt.keep)
			}
		})
	}
}

func TestNormalizePriorityCanonicalized(t *testing.T) {
	batch, err := NormalizeTaskBatch(`{"tasks":[{"title":"A","priority":"critical","estimatedDays":2}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Tasks[0].Priority != "Critical" {
		t.Errorf("priority = %q, want Critical", batch.Tasks[0].Priority)
	}
}

func TestRepairJSONBalanced(t *testing.T) {
	in := `{"a": 1}`
	if got := RepairJSON(in); got != in {
		t.Errorf("balanced input should be unchanged, got %q", got)
	}
}
