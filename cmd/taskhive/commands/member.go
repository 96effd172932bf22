package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskhive/taskhive/internal/store"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage group members",
}

var memberAddCmd = &cobra.Command{
	Use:   "add <group-id> <email>",
	Short: "Add a member to a group (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE:  runMemberAdd,
}

var memberRemoveCmd = &cobra.Command{
	Use:   "remove <group-id> <email>",
	Short: "Remove a member from a group (admin only)",
	Long: `Remove a member from a group. The member's open tasks are unassigned.
Admins cannot remove themselves; delete the group instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runMemberRemove,
}

var memberListCmd = &cobra.Command{
	Use:   "list <group-id>",
	Short: "List a group's members with workloads",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemberList,
}

var memberLeaveCmd = &cobra.Command{
	Use:   "leave <group-id>",
	Short: "Leave a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemberLeave,
}

func init() {
	memberAddCmd.Flags().String("member-name", "", "Display name for the new member")

	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberRemoveCmd)
	memberCmd.AddCommand(memberListCmd)
	memberCmd.AddCommand(memberLeaveCmd)
	rootCmd.AddCommand(memberCmd)
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, email, err := actingUser(cfg)
	if err != nil {
		return err
	}
	memberName, _ := cmd.Flags().GetString("member-name")

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	member, err := newEngine(cfg, st).AddMember(cmd.Context(), args[0], email, memberName, args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Added %s to the group\n", member.Email)
	return nil
}

func runMemberRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, email, err := actingUser(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := newEngine(cfg, st).RemoveMember(cmd.Context(), args[0], email, args[1]); err != nil {
		return err
	}
	fmt.Printf("Removed %s; their open tasks were unassigned\n", args[1])
	return nil
}

func runMemberList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	roster, err := newEngine(cfg, st).Roster(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printRoster(roster)
	return nil
}

func runMemberLeave(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, email, err := actingUser(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := newEngine(cfg, st).LeaveGroup(cmd.Context(), args[0], email); err != nil {
		return err
	}
	fmt.Println("Left the group")
	return nil
}

// printRoster writes a member table with workloads. Members flagged for
// reconciliation are marked with !.
func printRoster(roster []store.Member) {
	if len(roster) == 0 {
		fmt.Println("No members.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tOUTSTANDING\tAVAILABILITY")
	for _, m := range roster {
		mark := ""
		if m.NeedsReconcile {
			mark = " !"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d%s\t%d%%\n",
			dash(m.Name), m.Email, m.Role, m.OutstandingTasks, mark, m.Availability)
	}
	_ = w.Flush()
	fmt.Printf("\n%d member(s)\n", len(roster))
}
