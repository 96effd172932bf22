// Package assign picks the best member for a task. It asks the AI provider
// first and falls back to a deterministic least-loaded choice, so a
// recommendation is always produced even with no provider configured.
package assign

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskhive/taskhive/internal/ai"
	"github.com/taskhive/taskhive/internal/logging"
	"github.com/taskhive/taskhive/internal/store"
)

// textGenerator is the slice of the AI client the recommender needs.
type textGenerator interface {
	Generate(ctx context.Context, req ai.GenerateRequest) (string, error)
}

// Method records how a recommendation was produced.
type Method string

const (
	MethodAI          Method = "ai"
	MethodLeastLoaded Method = "least-loaded"
)

// Recommendation is the outcome of a member selection.
type Recommendation struct {
	Member store.Member
	Method Method
}

// Recommender selects assignees for tasks.
type Recommender struct {
	gen textGenerator
	log *logging.Logger
}

// New creates a recommender. gen may be nil, in which case every
// recommendation uses the least-loaded fallback.
func New(gen textGenerator, log *logging.Logger) *Recommender {
	if log == nil {
		log = logging.Discard()
	}
	return &Recommender{gen: gen, log: log}
}

// Recommend picks a member for the described task. members must be the group
// roster in roster order and non-empty. The AI provider is consulted first;
// any provider failure or unrecognized answer degrades to the least-loaded
// member, with roster order breaking ties.
func (r *Recommender) Recommend(ctx context.Context, title, description string, members []store.Member) (Recommendation, error) {
	if len(members) == 0 {
		return Recommendation{}, fmt.Errorf("cannot recommend from an empty roster")
	}

	if r.gen != nil {
		if m, ok := r.recommendAI(ctx, title, description, members); ok {
			return Recommendation{Member: m, Method: MethodAI}, nil
		}
	}

	return Recommendation{Member: leastLoaded(members), Method: MethodLeastLoaded}, nil
}

func (r *Recommender) recommendAI(ctx context.Context, title, description string, members []store.Member) (store.Member, bool) {
	text, err := r.gen.Generate(ctx, ai.GenerateRequest{
		Prompt: rosterPrompt(title, description, members),
	})
	if err != nil {
		r.log.Warnf("assignee recommendation failed, falling back to workload: %v", err)
		return store.Member{}, false
	}

	member, ok := matchMember(text, members)
	if !ok {
		r.log.WarnCtx("provider named no known member, falling back to workload", map[string]any{
			"answer": strings.TrimSpace(text),
		})
	}
	return member, ok
}

func rosterPrompt(title, description string, members []store.Member) string {
	var b strings.Builder
	b.WriteString("You are balancing work across a team. Given the task below, pick the single best member considering current workload and availability.\n\nTask: ")
	b.WriteString(title)
	if description != "" {
		b.WriteString("\nDetails: ")
		b.WriteString(description)
	}
	b.WriteString("\n\nTeam:\n")
	for _, m := range members {
		fmt.Fprintf(&b, "- %s (%d outstanding tasks, %d%% available)\n",
			m.Name, m.OutstandingTasks, m.Availability)
	}
	b.WriteString("\nReturn ONLY the member name, nothing else.")
	return b.String()
}

// matchMember resolves a free-text answer to a roster member by
// case-insensitive substring match, first roster match wins.
func matchMember(answer string, members []store.Member) (store.Member, bool) {
	lowered := strings.ToLower(answer)
	for _, m := range members {
		if m.Name != "" && strings.Contains(lowered, strings.ToLower(m.Name)) {
			return m, true
		}
	}
	return store.Member{}, false
}

// leastLoaded returns the member with the fewest outstanding tasks, earliest
// roster position breaking ties.
func leastLoaded(members []store.Member) store.Member {
	best := members[0]
	for _, m := range members[1:] {
		if m.OutstandingTasks < best.OutstandingTasks {
			best = m
		}
	}
	return best
}
