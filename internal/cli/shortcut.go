package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var shortcutFile string

var shortcutCmd = &cobra.Command{
	Use:   "shortcut",
	Short: "Manage saved shortcuts",
}

var shortcutSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save shortcut code from a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := os.ReadFile(shortcutFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", shortcutFile, err)
		}

		sess, err := newSession(false)
		if err != nil {
			return err
		}
		defer sess.Close()

		if _, err := sess.client.SaveShortcut(cmd.Context(), string(code)); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render("Shortcuts saved."))
		return nil
	},
}

func init() {
	shortcutSaveCmd.Flags().StringVarP(&shortcutFile, "file", "f", "", "shortcut code file (required)")
	_ = shortcutSaveCmd.MarkFlagRequired("file")
	shortcutCmd.AddCommand(shortcutSaveCmd)
}
