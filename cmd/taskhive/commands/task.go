package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskhive/taskhive/internal/engine"
	"github.com/taskhive/taskhive/internal/store"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  `Create, list, reassign, and complete tasks.`,
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Long: `Create a task. With --group the task belongs to that group and gets an
assignee: the one given with --assignee, or a recommended pick based on
current workloads. Without --group the task is personal and unassigned.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskCreate,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long:  `List a group's tasks with --group, or your personal tasks without it.`,
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <open|ready|in-progress|review|done>",
	Short: "Move a task to a new status",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskStatus,
}

var taskReassignCmd = &cobra.Command{
	Use:   "reassign <task-id> [email]",
	Short: "Reassign a group task",
	Long:  `Reassign a group task to the member with the given email. Omit the email to unassign.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTaskReassign,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

func init() {
	taskCreateCmd.Flags().StringP("group", "g", "", "Group the task belongs to")
	taskCreateCmd.Flags().StringP("description", "d", "", "Task description")
	taskCreateCmd.Flags().StringP("assignee", "a", "", "Assignee email (default: recommended)")
	taskCreateCmd.Flags().StringP("priority", "p", "", "Priority (low, medium, high, critical)")
	taskCreateCmd.Flags().String("estimate", "", "Time estimate (default: AI-predicted)")
	taskCreateCmd.Flags().String("start", "", "Start time (RFC3339 or 2006-01-02)")
	taskCreateCmd.Flags().String("end", "", "End time (RFC3339 or 2006-01-02)")
	taskCreateCmd.Flags().Bool("all-day", false, "All-day task")
	taskCreateCmd.Flags().String("location", "", "Location")

	taskListCmd.Flags().StringP("group", "g", "", "Group to list tasks for")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskReassignCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	name, email, err := actingUser(cfg)
	if err != nil {
		return err
	}

	groupID, _ := cmd.Flags().GetString("group")
	description, _ := cmd.Flags().GetString("description")
	assignee, _ := cmd.Flags().GetString("assignee")
	priorityArg, _ := cmd.Flags().GetString("priority")
	estimate, _ := cmd.Flags().GetString("estimate")
	startArg, _ := cmd.Flags().GetString("start")
	endArg, _ := cmd.Flags().GetString("end")
	allDay, _ := cmd.Flags().GetBool("all-day")
	location, _ := cmd.Flags().GetString("location")

	var priority store.Priority
	if priorityArg != "" {
		priority, err = parsePriorityArg(priorityArg)
		if err != nil {
			return err
		}
	}

	start, err := parseTimeArg(startArg)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := parseTimeArg(endArg)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	eng := newEngine(cfg, st)
	task, err := eng.CreateTask(cmd.Context(), engine.CreateTaskInput{
		GroupID:       groupID,
		OwnerEmail:    email,
		Title:         args[0],
		Description:   description,
		AssigneeEmail: assignee,
		Priority:      priority,
		EstimatedTime: estimate,
		StartTime:     start,
		EndTime:       end,
		AllDay:        allDay,
		Location:      location,
		CreatedBy:     nonEmpty(name, email),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created task %s\n", task.ID)
	if task.Assigned() {
		fmt.Printf("Assignee: %s <%s>\n", task.AssigneeName, task.AssigneeEmail)
	}
	if task.EstimatedTime != "" {
		fmt.Printf("Estimate: %s\n", task.EstimatedTime)
	}
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	groupID, _ := cmd.Flags().GetString("group")

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	eng := newEngine(cfg, st)

	var tasks []store.Task
	if groupID != "" {
		tasks, err = eng.GroupTasks(cmd.Context(), groupID)
	} else {
		var email string
		_, email, err = actingUser(cfg)
		if err != nil {
			return err
		}
		tasks, err = eng.PersonalTasks(cmd.Context(), email)
	}
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\tESTIMATE")
	for _, t := range tasks {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), t.Title, t.Status, dash(string(t.Priority)),
			dash(t.AssigneeName), dash(t.EstimatedTime))
	}
	_ = w.Flush()
	fmt.Printf("\n%d task(s)\n", len(tasks))
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	task, err := newEngine(cfg, st).Task(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", task.ID)
	fmt.Printf("Title:       %s\n", task.Title)
	if task.Description != "" {
		fmt.Printf("Description: %s\n", task.Description)
	}
	fmt.Printf("Status:      %s\n", task.Status)
	fmt.Printf("Priority:    %s\n", dash(string(task.Priority)))
	if task.GroupID != "" {
		fmt.Printf("Group:       %s\n", task.GroupID)
	}
	if task.Assigned() {
		fmt.Printf("Assignee:    %s <%s>\n", task.AssigneeName, task.AssigneeEmail)
	} else {
		fmt.Printf("Assignee:    -\n")
	}
	fmt.Printf("Estimate:    %s\n", dash(task.EstimatedTime))
	if !task.StartTime.IsZero() {
		fmt.Printf("Start:       %s\n", task.StartTime.Format(time.RFC3339))
	}
	if !task.EndTime.IsZero() {
		fmt.Printf("End:         %s\n", task.EndTime.Format(time.RFC3339))
	}
	if task.Location != "" {
		fmt.Printf("Location:    %s\n", task.Location)
	}
	fmt.Printf("Created:     %s by %s\n", task.CreatedAt.Format(time.RFC3339), dash(task.CreatedBy))
	return nil
}

func runTaskStatus(cmd *cobra.Command, args []string) error {
	status, err := parseStatusArg(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	task, err := newEngine(cfg, st).SetStatus(cmd.Context(), args[0], status)
	if err != nil {
		return err
	}
	fmt.Printf("Task %s is now %s\n", shortID(task.ID), task.Status)
	return nil
}

func runTaskReassign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	newEmail := ""
	if len(args) == 2 {
		newEmail = args[1]
	}

	task, err := newEngine(cfg, st).ReassignTask(cmd.Context(), args[0], newEmail)
	if err != nil {
		return err
	}
	if task.Assigned() {
		fmt.Printf("Task %s assigned to %s <%s>\n", shortID(task.ID), task.AssigneeName, task.AssigneeEmail)
	} else {
		fmt.Printf("Task %s unassigned\n", shortID(task.ID))
	}
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := newEngine(cfg, st).DeleteTask(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("Task deleted")
	return nil
}

// parseStatusArg maps a CLI status argument to a lifecycle status.
func parseStatusArg(s string) (store.Status, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", " ")) {
	case "open":
		return store.StatusOpen, nil
	case "ready":
		return store.StatusReady, nil
	case "in progress", "inprogress":
		return store.StatusInProgress, nil
	case "review":
		return store.StatusReview, nil
	case "done":
		return store.StatusDone, nil
	default:
		return "", fmt.Errorf("unknown status: %s (valid: open, ready, in-progress, review, done)", s)
	}
}

// parsePriorityArg maps a CLI priority argument to a priority level.
func parsePriorityArg(s string) (store.Priority, error) {
	switch strings.ToLower(s) {
	case "low":
		return store.PriorityLow, nil
	case "medium":
		return store.PriorityMedium, nil
	case "high":
		return store.PriorityHigh, nil
	case "critical":
		return store.PriorityCritical, nil
	default:
		return "", fmt.Errorf("unknown priority: %s (valid: low, medium, high, critical)", s)
	}
}

// parseTimeArg accepts RFC3339 or a bare date. Empty input yields the zero
// time.
func parseTimeArg(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use RFC3339 or 2006-01-02)", s)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func nonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
