package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mailbot-io/mailbot/internal/client"
	"github.com/mailbot-io/mailbot/internal/logging"
	"github.com/mailbot-io/mailbot/internal/watcher"
)

var (
	runFile      string
	runModeID    string
	runModeName  string
	runEmail     string
	runWatchFile bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload rule code and start the mailbot",
	Long: `Upload a rule file as a mode and start the mailbot on it.

With --watch the command stays open and pushes the file again every time it
is saved, updating the running bot in place. Press Ctrl+C to stop watching;
the bot keeps running on the server until "mailbot stop".`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "rule code file (required)")
	runCmd.Flags().StringVar(&runModeID, "mode-id", "", "mode id (default: file name)")
	runCmd.Flags().StringVar(&runModeName, "mode-name", "", "mode name (default: file name)")
	runCmd.Flags().StringVar(&runEmail, "email", "", "account email (default: from settings)")
	runCmd.Flags().BoolVarP(&runWatchFile, "watch", "w", false, "re-upload the file when it changes")
	_ = runCmd.MarkFlagRequired("file")
}

// modeRunner is the part of the client used by run.
type modeRunner interface {
	RunMailbot(ctx context.Context, req client.RunRequest) (*client.RunResponse, error)
}

// modeUpload describes the mode built from a code file.
type modeUpload struct {
	path  string
	id    string
	name  string
	email string
}

func newModeUpload(path, id, name, email string) modeUpload {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if id == "" {
		id = base
	}
	if name == "" {
		name = base
	}
	return modeUpload{path: path, id: id, name: name, email: email}
}

// send reads the file and posts it. start=false updates a running bot.
func (u modeUpload) send(ctx context.Context, r modeRunner, start bool) (*client.RunResponse, error) {
	code, err := os.ReadFile(u.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u.path, err)
	}
	return r.RunMailbot(ctx, client.RunRequest{
		CurrentModeID: u.id,
		Modes:         []client.Mode{{ID: u.id, Name: u.name, Code: string(code)}},
		Email:         u.email,
		Running:       true,
		RunRequest:    start,
	})
}

func runRun(cmd *cobra.Command, args []string) error {
	sess, err := newSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	email, err := requireEmail(sess.settings, runEmail)
	if err != nil {
		return err
	}
	upload := newModeUpload(runFile, runModeID, runModeName, email)
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := upload.send(ctx, sess.client, true)
	if err := reportRun(out, resp, err, "Mailbot started"); err != nil {
		return err
	}
	if !runWatchFile {
		return nil
	}
	return watchAndUpdate(ctx, out, sess.logger, sess.client, upload)
}

// watchAndUpdate re-sends the code file on every save until ctx ends.
// Failed updates are reported and watching continues.
func watchAndUpdate(ctx context.Context, out io.Writer, logger *logging.Logger, r modeRunner, upload modeUpload) error {
	w, err := watcher.New(logger, watcher.DefaultDebounce)
	if err != nil {
		return err
	}
	if err := w.Add(upload.path); err != nil {
		w.Stop()
		return fmt.Errorf("failed to watch %s: %w", upload.path, err)
	}
	w.Start()
	defer w.Stop()

	fmt.Fprintln(out, styleHint.Render("Watching "+upload.path+" for changes. Press Ctrl+C to stop."))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			logger.Debug("code file changed", "path", ev.Path)
			resp, err := upload.send(ctx, r, false)
			if err := reportRun(out, resp, err, "Code updated"); err != nil {
				fmt.Fprintln(out, styleError.Render("Update failed: ")+err.Error())
			}
		}
	}
}

// reportRun prints the outcome of a run request. An IMAP error from the
// bot is an error even when the request itself succeeded.
func reportRun(out io.Writer, resp *client.RunResponse, err error, success string) error {
	if err != nil && !errors.Is(err, client.ErrApplication) {
		return err
	}
	if resp != nil && resp.IMAPError {
		msg := string(resp.IMAPLog)
		if msg == "" {
			msg = "the mailbot reported an IMAP error"
		}
		return fmt.Errorf("IMAP error: %s", msg)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, styleSuccess.Render(success+"."))
	return nil
}
