package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timecard-io/timecard/internal/daemon"
)

func init() {
	usersAddCmd.Flags().BoolVar(&usersAddOperator, "operator", false, "Link the account to an operator identity")
	usersAddCmd.Flags().BoolVar(&usersAddDefault, "default", true, "Make this user the CLI identity")
	usersCmd.AddCommand(usersAddCmd)
	rootCmd.AddCommand(usersCmd)
}

var (
	usersAddOperator bool
	usersAddDefault  bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage platform accounts",
}

var usersAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a platform account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersAdd,
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	u, err := d.Facade.CreateUser(args[0], usersAddOperator)
	if err != nil {
		return err
	}

	if usersAddDefault {
		d.Config.Identity.User = u.Name
		if err := daemon.SaveConfig(d.Config); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}

	fmt.Printf("Created user %s (%s)\n", u.Name, u.ID)
	if !u.IsOperator() {
		fmt.Println("Note: account has no operator link and cannot own project data.")
	}
	return nil
}
