package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Manage saved modes",
}

var modeDeleteCmd = &cobra.Command{
	Use:     "delete [mode-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a saved mode",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(false)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.client.DeleteMailbotMode(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete mode %s: %w", args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render("Mode "+args[0]+" deleted."))
		return nil
	},
}

func init() {
	modeCmd.AddCommand(modeDeleteCmd)
}
