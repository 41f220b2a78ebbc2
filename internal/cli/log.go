package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"github.com/valyala/fastjson"

	"github.com/mailbot-io/mailbot/internal/execlog"
	"github.com/mailbot-io/mailbot/internal/poller"
)

var (
	logAll  bool
	logJSON bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the current execution log",
	Long: `Fetch the execution log once and print it newest first.

Only the most recent entries are shown unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	logCmd.Flags().BoolVar(&logAll, "all", false, "print every entry")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "print entries as JSON")
}

// collectSink keeps whatever one poll produces.
type collectSink struct {
	rows    []execlog.Row
	hasMore bool
	status  string
	running bool
	err     error
}

func (s *collectSink) Rows(b poller.Batch) {
	s.rows = append(s.rows, b.Rows...)
	s.hasMore = b.HasMore
}

func (s *collectSink) Status(msg string, running bool) {
	s.status, s.running = msg, running
}

func (s *collectSink) Notify(err error) {
	s.err = err
}

func runLog(cmd *cobra.Command, args []string) error {
	sess, err := newSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sink, err := fetchOnce(ctx, sess.client, sess, logAll)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if logJSON {
		return writeRowsJSON(out, sink.rows)
	}
	printStatus(out, sink.status, sink.running)
	printRows(out, sink.rows, sink.hasMore)
	return nil
}

// fetchOnce runs a single poll and returns what it produced.
func fetchOnce(ctx context.Context, f poller.Fetcher, sess *session, all bool) (*collectSink, error) {
	opts := poller.Options{
		RequestTimeout: sess.settings.Polling.RequestTimeout,
		PageSize:       sess.settings.Polling.PageSize,
		Renderer:       execlog.Renderer{LegacyPlaceholders: sess.settings.Display.LegacyPlaceholders},
		Logger:         sess.logger,
	}
	if all {
		opts.PageSize = -1
	}

	sink := &collectSink{}
	if err := poller.New(f, sink, opts).Poll(ctx); err != nil {
		return nil, err
	}
	// Application and decode failures are reported to the sink only.
	if sink.err != nil {
		return nil, sink.err
	}
	return sink, nil
}

func printStatus(w io.Writer, msg string, running bool) {
	badge := badgeIdle.Render("● Idle")
	if running {
		badge = badgeRunning.Render("● Running")
	}
	if msg != "" {
		badge += styleHint.Render(": " + msg)
	}
	fmt.Fprintln(w, badge)
}

// printRows writes a plain table, newest first.
func printRows(w io.Writer, rows []execlog.Row, hasMore bool) {
	if len(rows) == 0 {
		fmt.Fprintln(w, styleHint.Render("No log entries yet."))
		return
	}

	tsWidth, trigWidth := len("TIME"), len("TRIGGER")
	for _, r := range rows {
		tsWidth = max(tsWidth, ansi.StringWidth(r.TimestampDisplay))
		trigWidth = max(trigWidth, ansi.StringWidth(r.Trigger))
	}

	fmt.Fprintln(w, styleLabel.Render(
		padRight("TIME", tsWidth)+"  "+padRight("TRIGGER", trigWidth)+"  ENTRY"))
	for _, r := range rows {
		line := padRight(r.TimestampDisplay, tsWidth) + "  " + padRight(r.Trigger, trigWidth) + "  "
		switch {
		case r.IsError:
			line += styleError.Render(firstLine(r.Log))
		case r.ContactPreview != "":
			line += styleValue.Render(r.ContactPreview) + "  " + styleHint.Render(r.PreviewLine())
		default:
			line += styleValue.Render(r.PreviewLine())
		}
		fmt.Fprintln(w, line)
	}

	if hasMore {
		fmt.Fprintln(w, styleHint.Render("Older entries hidden; use ")+
			styleCommand.Render("mailbot log --all")+styleHint.Render(" to see them."))
	}
}

// writeRowsJSON writes rows as a JSON array. Entry fields keep the order
// the server sent them in.
func writeRowsJSON(w io.Writer, rows []execlog.Row) error {
	var a fastjson.Arena

	arr := a.NewArray()
	for i, r := range rows {
		o := a.NewObject()
		o.Set("timestamp", a.NewString(r.Key.Raw))
		o.Set("trigger", a.NewString(r.Trigger))
		o.Set("contact", a.NewString(r.ContactPreview))
		o.Set("error", boolValue(&a, r.IsError))
		if r.Log != "" {
			o.Set("log", a.NewString(r.Log))
		}

		fields := a.NewObject()
		for _, f := range r.Fields {
			v, err := fastjson.Parse(f.Raw)
			if err != nil {
				return fmt.Errorf("field %q of %s: %w", f.Key, r.Key.Raw, err)
			}
			fields.Set(f.Key, v)
		}
		o.Set("fields", fields)
		arr.SetArrayItem(i, o)
	}

	out := arr.MarshalTo(nil)
	out = append(out, '\n')
	_, err := w.Write(out)
	return err
}

func boolValue(a *fastjson.Arena, b bool) *fastjson.Value {
	if b {
		return a.NewTrue()
	}
	return a.NewFalse()
}

func padRight(s string, width int) string {
	if n := ansi.StringWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
