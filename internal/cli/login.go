package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mailbot-io/mailbot/internal/client"
	"github.com/mailbot-io/mailbot/internal/config"
)

var (
	loginEmail string
	loginHost  string
	loginOAuth bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to an IMAP account",
	Long: `Log the mailbot server in to an IMAP account and remember the session.

The password is read from the terminal without echo, or from stdin when
stdin is not a terminal. On success the session cookie and account email
are saved to settings.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "IMAP account email")
	loginCmd.Flags().StringVar(&loginHost, "host", "", "IMAP host (e.g. imap.gmail.com)")
	loginCmd.Flags().BoolVar(&loginOAuth, "oauth", false, "the password is an OAuth token")
}

func runLogin(cmd *cobra.Command, args []string) error {
	sess, err := newSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	in := cmd.InOrStdin()
	reader := bufio.NewReader(in)
	out := cmd.OutOrStdout()

	email := loginEmail
	if email == "" {
		email = promptLine(reader, out, "Email", sess.settings.Server.Email)
	}
	if email == "" {
		return errors.New("email is required")
	}
	host := loginHost
	if host == "" {
		host = promptLine(reader, out, "IMAP host", "")
	}
	if host == "" {
		return errors.New("IMAP host is required")
	}

	password, err := readPassword(in, reader, out)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	resp, err := sess.client.LoginIMAP(cmd.Context(), client.LoginRequest{
		Email:    email,
		Host:     host,
		Password: password,
		OAuth:    loginOAuth,
	})
	if errors.Is(err, client.ErrApplication) {
		msg := string(resp.IMAPLog)
		if msg == "" {
			msg = string(resp.Code)
		}
		if msg == "" {
			msg = "the server rejected the login"
		}
		return fmt.Errorf("login failed: %s", msg)
	}
	if err != nil {
		return err
	}

	sessionID, csrf := sess.client.Session()
	sess.settings.Server.Email = email
	sess.settings.Server.SessionID = sessionID
	sess.settings.Server.CSRFToken = csrf
	if err := config.SaveSettings(sess.settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Fprintln(out, styleSuccess.Render("Logged in as "+email+"."))
	if sessionID == "" {
		fmt.Fprintln(out, styleWarning.Render("Warning: ")+"the server did not set a session cookie.")
	}
	if resp.IMAPLog != "" {
		fmt.Fprintln(out, styleHint.Render(string(resp.IMAPLog)))
	}
	return nil
}

// promptLine asks for a value, returning def on empty input.
func promptLine(reader *bufio.Reader, out io.Writer, prompt, def string) string {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(out, "%s: ", prompt)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

// readPassword reads without echo from a terminal, or a line otherwise.
func readPassword(in io.Reader, reader *bufio.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		fmt.Fprint(out, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
