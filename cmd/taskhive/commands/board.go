package commands

import (
	"github.com/spf13/cobra"

	"github.com/taskhive/taskhive/internal/ui"
)

var boardCmd = &cobra.Command{
	Use:   "board <group-id>",
	Short: "Interactive workload board",
	Long: `Open an interactive board showing the group's members with their
workloads next to the task list. Select a member to filter their tasks.`,
	Args: cobra.ExactArgs(1),
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	eng := newEngine(cfg, st)

	group, err := eng.Group(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	roster, err := eng.Roster(cmd.Context(), group.ID)
	if err != nil {
		return err
	}
	tasks, err := eng.GroupTasks(cmd.Context(), group.ID)
	if err != nil {
		return err
	}

	members := make([]ui.MemberRow, len(roster))
	for i, m := range roster {
		members[i] = ui.MemberRow{
			ID:             m.ID,
			Name:           m.Name,
			Email:          m.Email,
			Role:           string(m.Role),
			Outstanding:    m.OutstandingTasks,
			Availability:   m.Availability,
			NeedsReconcile: m.NeedsReconcile,
		}
	}

	rows := make([]ui.TaskRow, len(tasks))
	for i, t := range tasks {
		rows[i] = ui.TaskRow{
			ID:         t.ID,
			Title:      t.Title,
			AssigneeID: t.AssigneeID,
			Assignee:   t.AssigneeName,
			Status:     string(t.Status),
			Priority:   string(t.Priority),
		}
	}

	model := ui.New(group.Name)
	model.SetMembers(members)
	model.SetTasks(rows)
	return model.Run()
}
