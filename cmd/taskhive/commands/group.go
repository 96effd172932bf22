package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
	Long:  `Create and manage task groups. The creator becomes the group's admin.`,
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupCreate,
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your groups",
	RunE:  runGroupList,
}

var groupShowCmd = &cobra.Command{
	Use:   "show <group-id>",
	Short: "Show a group and its roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupShow,
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <group-id>",
	Short: "Delete a group with its members and tasks (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupDelete,
}

func init() {
	groupCreateCmd.Flags().StringP("description", "d", "", "Group description")

	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(groupShowCmd)
	groupCmd.AddCommand(groupDeleteCmd)
	rootCmd.AddCommand(groupCmd)
}

func runGroupCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	name, email, err := actingUser(cfg)
	if err != nil {
		return err
	}
	description, _ := cmd.Flags().GetString("description")

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	group, err := newEngine(cfg, st).CreateGroup(cmd.Context(), args[0], description, name, email)
	if err != nil {
		return err
	}
	fmt.Printf("Created group %s (%s)\n", group.Name, group.ID)
	fmt.Printf("You are the admin (%s)\n", email)
	return nil
}

func runGroupList(cmd *cobra.Command, args []string) error {
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

	groups, err := newEngine(cfg, st).Groups(cmd.Context(), email)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("No groups.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tCREATED")
	for _, g := range groups {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			g.ID, g.Name, dash(g.Description), g.CreatedAt.Format(time.DateOnly))
	}
	_ = w.Flush()
	return nil
}

func runGroupShow(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("Group:       %s\n", group.Name)
	fmt.Printf("ID:          %s\n", group.ID)
	if group.Description != "" {
		fmt.Printf("Description: %s\n", group.Description)
	}
	fmt.Printf("Created:     %s by %s\n", group.CreatedAt.Format(time.DateOnly), group.CreatedBy)
	fmt.Println()

	printRoster(roster)
	return nil
}

func runGroupDelete(cmd *cobra.Command, args []string) error {
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

	if err := newEngine(cfg, st).DeleteGroup(cmd.Context(), args[0], email); err != nil {
		return err
	}
	fmt.Println("Group deleted")
	return nil
}
