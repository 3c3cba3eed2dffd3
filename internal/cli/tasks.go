package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/timecard-io/timecard/internal/app/records"
	"github.com/timecard-io/timecard/internal/daemon"
)

func init() {
	tasksListCmd.Flags().StringVar(&tasksProject, "project", "", "Project id to list tasks for (required)")
	tasksAddCmd.Flags().StringVar(&tasksAddProject, "project", "", "Project id (required)")
	tasksAddCmd.Flags().StringVar(&tasksAddStage, "stage", "", "Stage id (required)")
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	rootCmd.AddCommand(tasksCmd)
}

var (
	tasksProject    string
	tasksAddProject string
	tasksAddStage   string
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "Manage tasks",
}

var tasksListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks in a project",
	RunE:    runTasksList,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksAdd,
}

func runTasksList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	actor, err := resolveActor(d)
	if err != nil {
		return err
	}

	tasks, err := d.Facade.SearchTasks(actor, tasksProject, records.Page{})
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks in this project.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tRUNNING\tCREATED")
	for _, t := range tasks {
		running := ""
		if t.RunningEntryID != "" {
			running = "●"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Name,
			t.DurationDisplay,
			running,
			t.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	actor, err := resolveActor(d)
	if err != nil {
		return err
	}

	t, err := d.Facade.CreateTask(actor, args[0], tasksAddProject, tasksAddStage)
	if err != nil {
		return err
	}

	fmt.Printf("Created task %s (%s)\n", t.Name, t.ID)
	return nil
}
