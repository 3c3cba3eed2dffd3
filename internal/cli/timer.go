package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/timecard-io/timecard/internal/daemon"
	"github.com/timecard-io/timecard/internal/domain"
)

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
}

var startCmd = &cobra.Command{
	Use:   "start TASK_ID",
	Short: "Start a timer on a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running timer",
	RunE:  runStop,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running timer",
	RunE:  runStatus,
}

func runStart(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	actor, err := resolveActor(d)
	if err != nil {
		return err
	}

	entry, err := d.Facade.StartTimer(actor, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Started timer on task %s at %s\n",
		entry.TaskID, entry.StartTime.Local().Format("15:04:05"))
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	actor, err := resolveActor(d)
	if err != nil {
		return err
	}

	// The facade stops by task, so find the running entry first.
	running, err := d.Ledger.Running(actor)
	if err != nil {
		return err
	}
	if running == nil {
		return domain.ErrNoActiveEntry
	}

	entry, err := d.Facade.StopTimer(actor, running.TaskID)
	if err != nil {
		return err
	}

	fmt.Printf("Stopped timer on task %s: %s recorded\n",
		entry.TaskID, entry.DurationDisplay)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	actor, err := resolveActor(d)
	if err != nil {
		return err
	}

	running, err := d.Ledger.Running(actor)
	if err != nil {
		return err
	}
	if running == nil {
		fmt.Println("No timer running.")
		return nil
	}

	elapsed := int64(time.Since(running.StartTime).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	fmt.Printf("Timer running on task %s since %s (%s elapsed)\n",
		running.TaskID,
		running.StartTime.Local().Format("15:04:05"),
		domain.FormatDuration(elapsed),
	)
	return nil
}
