package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <title...>",
	Short: "Recommend an assignee for a task",
	Long: `Pick the best assignee for a described task without creating it.

Uses the AI provider when configured, otherwise the member with the
fewest outstanding tasks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().StringP("group", "g", "", "Group to pick from")
	recommendCmd.Flags().StringP("description", "d", "", "Task description for context")
	_ = recommendCmd.MarkFlagRequired("group")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	groupID, _ := cmd.Flags().GetString("group")
	description, _ := cmd.Flags().GetString("description")

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	rec, err := newEngine(cfg, st).Recommend(cmd.Context(), groupID, strings.Join(args, " "), description)
	if err != nil {
		return err
	}

	fmt.Printf("Recommended: %s <%s>\n", rec.Member.Name, rec.Member.Email)
	fmt.Printf("Workload:    %d outstanding, %d%% available\n",
		rec.Member.OutstandingTasks, rec.Member.Availability)
	fmt.Printf("Method:      %s\n", rec.Method)
	return nil
}
