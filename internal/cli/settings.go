package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mailbot-io/mailbot/internal/config"
	"github.com/mailbot-io/mailbot/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Aliases: []string{"config"},
	Short:   "Show or change settings",
	Long: `Show the effective settings, or change one with "settings set".

Settings live in ~/.mailbot/settings.yaml. MAILBOT_SERVER, MAILBOT_SESSION
and MAILBOT_CSRF override the file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		printSettings(cmd.OutOrStdout(), s)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting and save it.

Keys are dotted, e.g. polling.history_interval or display.legacy_placeholders.`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.SettingKeys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GlobalSettingsFile()
		if err != nil {
			return err
		}
		// Read the file without env overrides so they are not persisted.
		s, err := config.LoadYAMLOrDefault(path, models.NewSettings)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		if err := config.SetSetting(s, args[0], args[1]); err != nil {
			return err
		}
		if err := config.SaveSettings(s); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render("Updated "+args[0]+"."))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
}

// printSettings writes the settings with secrets masked.
func printSettings(w io.Writer, s *models.Settings) {
	section := func(title string) {
		fmt.Fprintln(w, styleBrand.Render(title))
	}
	item := func(key, value string) {
		fmt.Fprintf(w, "  %s %s\n", styleLabel.Render(fmt.Sprintf("%-22s", key)), styleValue.Render(value))
	}

	section("Server")
	item("url", s.Server.URL)
	item("email", orNotSet(s.Server.Email))
	item("session_id", mask(s.Server.SessionID))
	item("csrf_token", mask(s.Server.CSRFToken))

	section("Polling")
	item("history_interval", s.Polling.HistoryInterval.String())
	item("editor_interval", s.Polling.EditorInterval.String())
	item("request_timeout", s.Polling.RequestTimeout.String())
	item("failure_policy", s.Polling.FailurePolicy)
	item("max_backoff", s.Polling.MaxBackoff.String())
	item("page_size", strconv.Itoa(s.Polling.PageSize))

	section("Display")
	item("legacy_placeholders", strconv.FormatBool(s.Display.LegacyPlaceholders))

	section("Logging")
	item("level", s.Logging.Level)
	item("file", orNotSet(s.Logging.File))
}

func mask(secret string) string {
	if secret == "" {
		return styleHint.Render("(not set)")
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func orNotSet(s string) string {
	if s == "" {
		return styleHint.Render("(not set)")
	}
	return s
}
