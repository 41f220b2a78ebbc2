package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mailbot-io/mailbot/internal/execlog"
	"github.com/mailbot-io/mailbot/internal/poller"
	"github.com/mailbot-io/mailbot/internal/tui"
)

var (
	watchEditor bool
	watchAll    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the execution log live",
	Long: `Open the full-screen log viewer. New entries appear at the top as the
mailbot runs; older entries load on demand.

By default the log is polled at the history-page rate. --editor polls at
the slower rate the rule editor used.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchEditor, "editor", false, "poll at the editor rate")
	watchCmd.Flags().BoolVar(&watchAll, "all", false, "show every entry on first load")
}

func runWatch(cmd *cobra.Command, args []string) error {
	sess, err := newSession(true)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	view := "history"
	if watchEditor {
		view = "editor"
	}
	sess.logger.Info("starting viewer", "server", sess.client.BaseURL(), "view", view)

	return tui.Run(ctx, tui.Options{
		Client:    sess.client,
		Email:     sess.settings.Server.Email,
		ServerURL: sess.client.BaseURL(),
		View:      view,
		Poller:    watchPollerOptions(sess, watchEditor, watchAll),
	})
}

// watchPollerOptions maps settings and flags onto the poll loop.
func watchPollerOptions(sess *session, editor, all bool) poller.Options {
	p := sess.settings.Polling
	opts := poller.Options{
		Interval:       p.HistoryInterval,
		RequestTimeout: p.RequestTimeout,
		Policy:         poller.ParsePolicy(p.FailurePolicy),
		MaxBackoff:     p.MaxBackoff,
		PageSize:       p.PageSize,
		Renderer:       execlog.Renderer{LegacyPlaceholders: sess.settings.Display.LegacyPlaceholders},
		Logger:         sess.logger,
	}
	if editor {
		opts.Interval = p.EditorInterval
	}
	if all {
		opts.PageSize = -1
	}
	return opts
}
