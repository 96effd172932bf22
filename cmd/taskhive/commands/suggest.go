package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <partial-title...>",
	Short: "Suggest related task titles",
	Long: `Ask the AI for up to five task titles related to the input.
Inputs shorter than three characters yield no suggestions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := newAIClient(cfg)
	suggestions, err := client.Suggest(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return presentAIError(err)
	}

	if len(suggestions) == 0 {
		fmt.Println("No suggestions.")
		return nil
	}
	for i, s := range suggestions {
		fmt.Printf("%d. %s\n", i+1, s)
	}
	return nil
}
