package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and data health",
	Long: `Check that the configuration loads, the database opens, and the AI
provider is configured. Also reports workload counter drift without
correcting it; run 'taskhive reconcile' to fix.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("config:   FAIL (%v)\n", err)
		return fmt.Errorf("doctor found problems")
	}
	fmt.Println("config:   ok")

	if _, email, err := actingUser(cfg); err != nil {
		fmt.Println("user:     not set (set user.email or pass --email)")
	} else {
		fmt.Printf("user:     %s\n", email)
	}

	st, err := openStore(cfg)
	if err != nil {
		fmt.Printf("database: FAIL (%v)\n", err)
		return fmt.Errorf("doctor found problems")
	}
	defer func() { _ = st.Close() }()
	fmt.Printf("database: ok (%s)\n", cfg.Database.Path)

	if newAIClient(cfg).Configured() {
		fmt.Printf("ai:       configured (%s)\n", cfg.AI.Model)
	} else {
		fmt.Println("ai:       not configured (set ai.api_key; falling back to least-loaded assignment)")
	}

	// Report drift without correcting it
	members, err := st.AllMembers(cmd.Context())
	if err != nil {
		return err
	}
	counts, err := st.ActiveCountsByMember(cmd.Context())
	if err != nil {
		return err
	}
	drifted := 0
	for _, m := range members {
		if m.OutstandingTasks != counts[m.ID] || m.NeedsReconcile {
			drifted++
		}
	}
	if drifted == 0 {
		fmt.Printf("counters: ok (%d members)\n", len(members))
	} else {
		fmt.Printf("counters: %d of %d members drifted, run 'taskhive reconcile'\n", drifted, len(members))
	}

	fmt.Printf("sweep:    cron %s\n", cfg.Sweep.Cron)
	return nil
}
