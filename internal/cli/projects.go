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
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsAddCmd)
	rootCmd.AddCommand(projectsCmd)
}

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "Manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your projects",
	RunE:    runProjectsList,
}

var projectsAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsAdd,
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	actor, err := resolveActor(d)
	if err != nil {
		return err
	}

	projects, err := d.Facade.SearchProjects(actor, records.Page{})
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		fmt.Println("No projects. Run 'timecard projects add <name>' to get started.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tCREATED")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.ID,
			p.Name,
			p.DurationDisplay,
			p.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func runProjectsAdd(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	actor, err := resolveActor(d)
	if err != nil {
		return err
	}

	p, err := d.Facade.CreateProject(actor, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Created project %s (%s)\n", p.Name, p.ID)
	return nil
}
