package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskhive/taskhive/internal/ai"
)

var predictCmd = &cobra.Command{
	Use:   "predict <title...>",
	Short: "Predict how long a task will take",
	Long: `Ask the AI for a completion-time estimate. Falls back to a default
estimate when no provider is configured or the call fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringP("description", "d", "", "Task description for context")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	description, _ := cmd.Flags().GetString("description")
	title := strings.Join(args, " ")

	client := newAIClient(cfg)
	estimate, err := client.PredictDuration(cmd.Context(), title, description)
	if err != nil || strings.TrimSpace(estimate) == "" {
		fmt.Printf("%s (default)\n", ai.DefaultDurationEstimate)
		return nil
	}
	fmt.Println(estimate)
	return nil
}
