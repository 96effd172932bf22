package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taskhive/taskhive/internal/ai"
	"github.com/taskhive/taskhive/internal/store"
)

// maxContextTasks bounds how many existing tasks are quoted in the
// generation prompt.
const maxContextTasks = 20

// GenerateInput describes one task-generation chat request.
type GenerateInput struct {
	GroupID    string // empty for the personal variant
	OwnerEmail string
	Prompt     string
	Apply      bool // create the proposed tasks instead of just proposing
	CreatedBy  string
}

// GenerateResult carries the proposal and, when applied, the created tasks.
type GenerateResult struct {
	Explanation string
	Proposed    []ai.ProposedTask
	Created     []store.Task
}

// GenerateTasks asks the provider to plan tasks for a free-text request.
// For group requests the prompt carries the roster with current workloads
// plus recent tasks for context. With Apply set, each valid proposal is
// created through CreateTask; a proposal's suggested assignee is honored
// when its email is on the roster, otherwise the recommender picks.
func (e *Engine) GenerateTasks(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	if e.provider == nil || !e.provider.Configured() {
		return nil, ai.ErrNotConfigured
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, fmt.Errorf("a request description is required")
	}

	var roster []store.Member
	var recent []store.Task
	if in.GroupID != "" {
		if _, err := e.store.GroupByID(ctx, in.GroupID); err != nil {
			return nil, notFound("group", in.GroupID, err)
		}
		var err error
		roster, err = e.store.MembersByGroup(ctx, in.GroupID)
		if err != nil {
			return nil, err
		}
		recent, err = e.store.RecentTasksByGroup(ctx, in.GroupID, maxContextTasks)
		if err != nil {
			return nil, err
		}
	}

	raw, err := e.provider.Chat(ctx, generationPrompt(in.Prompt, roster, recent))
	if err != nil {
		return nil, err
	}

	batch, err := ai.NormalizeTaskBatch(raw)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{
		Explanation: batch.Explanation,
		Proposed:    batch.Tasks,
	}
	if !in.Apply {
		return result, nil
	}

	for _, p := range batch.Tasks {
		task, err := e.applyProposal(ctx, in, p, roster)
		if err != nil {
			e.log.Warnf("skipping proposed task %q: %v", p.Title, err)
			continue
		}
		result.Created = append(result.Created, *task)
	}
	return result, nil
}

// applyProposal turns one proposed task into a stored task.
func (e *Engine) applyProposal(ctx context.Context, in GenerateInput, p ai.ProposedTask, roster []store.Member) (*store.Task, error) {
	assigneeEmail := ""
	if in.GroupID != "" && p.SuggestedAssignee != "" {
		for _, m := range roster {
			if strings.EqualFold(m.Email, p.SuggestedAssignee) {
				assigneeEmail = m.Email
				break
			}
		}
		if assigneeEmail == "" {
			e.log.Infof("suggested assignee %q not on roster, recommending instead", p.SuggestedAssignee)
		}
	}

	days := p.EstimatedDays
	if days < 1 {
		days = 1
	}
	now := time.Now().UTC()

	return e.CreateTask(ctx, CreateTaskInput{
		GroupID:       in.GroupID,
		OwnerEmail:    in.OwnerEmail,
		Title:         p.Title,
		Description:   p.Description,
		AssigneeEmail: assigneeEmail,
		Priority:      store.Priority(p.Priority),
		EstimatedTime: formatDays(days),
		StartTime:     now,
		EndTime:       now.AddDate(0, 0, days),
		CreatedBy:     in.CreatedBy,
	})
}

func formatDays(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// generationPrompt builds the chat prompt from the request, the roster, and
// recent tasks.
func generationPrompt(request string, roster []store.Member, recent []store.Task) string {
	var b strings.Builder
	b.WriteString("You are a team task planner. Break the following request into concrete tasks:\n")
	b.WriteString(request)

	if len(roster) > 0 {
		b.WriteString("\n\nTeam members (balance work toward the least loaded):\n")
		for _, m := range roster {
			fmt.Fprintf(&b, "- %s <%s>: %d outstanding tasks, %d%% available\n",
				m.Name, m.Email, m.OutstandingTasks, m.Availability)
		}
	}
	if len(recent) > 0 {
		b.WriteString("\nExisting tasks for context:\n")
		for _, t := range recent {
			fmt.Fprintf(&b, "- %s [%s]\n", t.Title, t.Status)
		}
	}

	b.WriteString(`
Respond with a single JSON object, no markdown, of the form:
{"explanation": "one short paragraph", "tasks": [{"title": "...", "description": "...", "priority": "Low|Medium|High|Critical", "estimatedDays": 1, "suggestedAssignee": "email from the team list, omit if unsure"}]}`)
	return b.String()
}
