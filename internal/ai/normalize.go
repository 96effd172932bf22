package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/taskhive/taskhive/internal/logging"
)

// ProposedTask is one task from an AI-generated batch.
type ProposedTask struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Priority          string `json:"priority"`
	EstimatedDays     int    `json:"estimatedDays"`
	SuggestedAssignee string `json:"suggestedAssignee,omitempty"`
}

// TaskBatch is the structured form of a chat response.
type TaskBatch struct {
	Explanation string         `json:"explanation"`
	Tasks       []ProposedTask `json:"tasks"`
}

var codeFencePattern = regexp.MustCompile("```(?:json)?\\n?")

var validPriorities = map[string]string{
	"low":      "Low",
	"medium":   "Medium",
	"high":     "High",
	"critical": "Critical",
}

// NormalizeTaskBatch parses raw provider output as a task batch. The strict
// parse runs first; on failure the text is repaired (code fences stripped,
// unbalanced braces and brackets closed, assuming the response was cut off
// inside the last task object) and parsed once more. If that also fails,
// ErrIncompleteResponse is returned — retrying the same prompt is unlikely
// to help, so callers should suggest rephrasing instead.
//
// A missing tasks field is an empty batch, not an error. Tasks that fail
// field validation are dropped with a warning, never passed through wrong.
func NormalizeTaskBatch(raw string) (*TaskBatch, error) {
	log := logging.Component("normalizer")

	batch, err := parseBatch(raw)
	if err != nil {
		repaired := RepairJSON(raw)
		batch, err = parseBatch(repaired)
		if err != nil {
			log.Warnf("task batch unparseable after repair: %v", err)
			return nil, ErrIncompleteResponse
		}
		log.Infof("task batch repaired: recovered %d tasks", len(batch.Tasks))
	}

	valid := batch.Tasks[:0]
	for _, task := range batch.Tasks {
		if reason := validateTask(&task); reason != "" {
			log.WarnCtx("dropping invalid proposed task", map[string]any{
				"title":  task.Title,
				"reason": reason,
			})
			continue
		}
		valid = append(valid, task)
	}
	batch.Tasks = valid

	return batch, nil
}

func parseBatch(raw string) (*TaskBatch, error) {
	var batch TaskBatch
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// validateTask normalizes one proposed task in place and returns a reason
// string when the task must be dropped.
func validateTask(t *ProposedTask) string {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return "missing title"
	}

	if t.Priority == "" {
		t.Priority = "Medium"
	} else {
		canonical, ok := validPriorities[strings.ToLower(strings.TrimSpace(t.Priority))]
		if !ok {
			return "unknown priority " + t.Priority
		}
		t.Priority = canonical
	}

	if t.EstimatedDays <= 0 {
		return "non-positive estimatedDays"
	}
	return ""
}

// RepairJSON attempts to fix a truncated JSON response: strip markdown code
// fences, then count unmatched braces and brackets and synthesize the minimal
// closing sequence, assuming the cut-off happened inside the last task object
// of the tasks array. The counts are naive (string contents included), so a
// structurally valid but semantically wrong result is possible; the follow-up
// strict parse is the only gate.
func RepairJSON(raw string) string {
	fixed := strings.TrimSpace(codeFencePattern.ReplaceAllString(raw, ""))

	openBrackets := strings.Count(fixed, "[")
	closeBrackets := strings.Count(fixed, "]")
	for i := 0; i < openBrackets-closeBrackets; i++ {
		fixed += "\n    }\n  ]"
	}

	// Recount braces after the bracket pass: each array closer above already
	// closed one task object.
	openBraces := strings.Count(fixed, "{")
	closeBraces := strings.Count(fixed, "}")
	for i := 0; i < openBraces-closeBraces; i++ {
		fixed += "\n}"
	}

	return fixed
}
