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
	stagesListCmd.Flags().StringVar(&stagesProject, "project", "", "Project id to list stages for (required)")
	stagesAddCmd.Flags().StringSliceVar(&stagesAddProjects, "project", nil, "Project id(s) to associate (required, repeatable)")
	stagesCmd.AddCommand(stagesListCmd)
	stagesCmd.AddCommand(stagesAddCmd)
	rootCmd.AddCommand(stagesCmd)
}

var (
	stagesProject     string
	stagesAddProjects []string
)

var stagesCmd = &cobra.Command{
	Use:     "stages",
	Aliases: []string{"stage"},
	Short:   "Manage task stages",
}

var stagesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stages in a project",
	RunE:    runStagesList,
}

var stagesAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a stage",
	Args:  cobra.ExactArgs(1),
	RunE:  runStagesAdd,
}

func runStagesList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	actor, err := resolveActor(d)
	if err != nil {
		return err
	}

	var projectIDs []string
	if stagesProject != "" {
		projectIDs = []string{stagesProject}
	}
	stages, err := d.Facade.SearchStages(actor, projectIDs, records.Page{})
	if err != nil {
		return err
	}

	if len(stages) == 0 {
		fmt.Println("No stages. Run 'timecard stages add <name> --project <id>'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROJECTS\tTASKS")
	for _, s := range stages {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.ID, s.Name, len(s.Projects), len(s.Tasks))
	}
	return w.Flush()
}

func runStagesAdd(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	actor, err := resolveActor(d)
	if err != nil {
		return err
	}

	s, err := d.Facade.CreateStage(actor, args[0], stagesAddProjects)
	if err != nil {
		return err
	}

	fmt.Printf("Created stage %s (%s)\n", s.Name, s.ID)
	return nil
}
