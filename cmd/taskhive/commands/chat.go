package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskhive/taskhive/internal/engine"
)

var chatCmd = &cobra.Command{
	Use:   "chat <request...>",
	Short: "Break a request into tasks with AI",
	Long: `Ask the AI to break a free-text request into concrete tasks.

With --group the prompt carries the roster and current workloads so the
proposals balance toward the least loaded members. By default the proposals
are only printed; pass --apply to create them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringP("group", "g", "", "Group to plan tasks for")
	chatCmd.Flags().Bool("apply", false, "Create the proposed tasks")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	name, email, err := actingUser(cfg)
	if err != nil {
		return err
	}
	groupID, _ := cmd.Flags().GetString("group")
	apply, _ := cmd.Flags().GetBool("apply")

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	result, err := newEngine(cfg, st).GenerateTasks(cmd.Context(), engine.GenerateInput{
		GroupID:    groupID,
		OwnerEmail: email,
		Prompt:     strings.Join(args, " "),
		Apply:      apply,
		CreatedBy:  nonEmpty(name, email),
	})
	if err != nil {
		return presentAIError(err)
	}

	if result.Explanation != "" {
		fmt.Println(result.Explanation)
		fmt.Println()
	}

	if len(result.Proposed) == 0 {
		fmt.Println("No tasks proposed.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tPRIORITY\tDAYS\tSUGGESTED")
	for _, p := range result.Proposed {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			p.Title, dash(p.Priority), p.EstimatedDays, dash(p.SuggestedAssignee))
	}
	_ = w.Flush()

	if !apply {
		fmt.Printf("\n%d task(s) proposed. Re-run with --apply to create them.\n", len(result.Proposed))
		return nil
	}

	fmt.Println()
	for _, t := range result.Created {
		if t.Assigned() {
			fmt.Printf("Created %s %q -> %s\n", shortID(t.ID), t.Title, t.AssigneeEmail)
		} else {
			fmt.Printf("Created %s %q\n", shortID(t.ID), t.Title)
		}
	}
	if skipped := len(result.Proposed) - len(result.Created); skipped > 0 {
		fmt.Printf("%d proposal(s) skipped, see logs\n", skipped)
	}
	return nil
}
