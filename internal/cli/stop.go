package cli

import (
	"github.com/spf13/cobra"
)

var stopEmail string

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running mailbot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(false)
		if err != nil {
			return err
		}
		defer sess.Close()

		email, err := requireEmail(sess.settings, stopEmail)
		if err != nil {
			return err
		}
		resp, err := sess.client.StopMailbot(cmd.Context(), email)
		return reportRun(cmd.OutOrStdout(), resp, err, "Mailbot stopped")
	},
}

func init() {
	stopCmd.Flags().StringVar(&stopEmail, "email", "", "account email (default: from settings)")
}
