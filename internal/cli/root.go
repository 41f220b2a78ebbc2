// Package cli implements the mailbot CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

// Persistent flags shared by every server command.
var (
	flagServer  string
	flagSession string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mailbot",
	Short: "Watch and drive a mailbot from the terminal",
	Long: `Mailbot talks to a mailbot web server: it logs in to an IMAP account,
uploads rule code, and follows the execution log as the bot runs.

Run "mailbot watch" for the live log viewer.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "mailbot server URL (overrides settings)")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "session cookie (overrides settings)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log at debug level")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(shortcutCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(watchCmd)
}
