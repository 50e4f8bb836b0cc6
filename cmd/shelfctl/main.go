// Command shelfctl toggles collection flags on a gameshelf server from the
// terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gameshelf/gameshelf-server/internal/client"
)

var (
	serverURL   string
	sessionPath string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "shelfctl",
	Short:         "Manage your gameshelf collections",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the session",
	Long: `Sign in to the server and store the access token for later commands.

The password is read from SHELF_PASSWORD.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var toggleCmd = &cobra.Command{
	Use:       "toggle <game-id> <favorite|owned|team_choice>",
	Short:     "Flip a collection flag on a game",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{client.ActionFavorite, client.ActionOwned, client.ActionTeamChoice},
	RunE:      runToggle,
}

var listCmd = &cobra.Command{
	Use:   "list <favorite|owned>",
	Short: "List the game IDs in one of your collections",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	defaultSession := "shelfctl-session.json"
	if dir, err := os.UserConfigDir(); err == nil {
		defaultSession = filepath.Join(dir, "gameshelf", "session.json")
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("SHELF_SERVER", "http://localhost:8080"), "server base URL")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", defaultSession, "file holding the stored session")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log request failures")

	rootCmd.AddCommand(loginCmd, toggleCmd, listCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	password := os.Getenv("SHELF_PASSWORD")
	if password == "" {
		return errors.New("SHELF_PASSWORD is not set")
	}

	tr := client.NewHTTPTransport(serverURL)
	sess, err := tr.Login(cmd.Context(), args[0], password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := saveSession(sessionPath, storedSession{Server: serverURL, AccessToken: sess.AccessToken}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", args[0])
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	gameID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || gameID <= 0 {
		return fmt.Errorf("invalid game id %q", args[0])
	}
	switch args[1] {
	case client.ActionFavorite, client.ActionOwned, client.ActionTeamChoice:
	default:
		return fmt.Errorf("unknown collection %q", args[1])
	}

	tr, err := transport()
	if err != nil {
		return err
	}

	logger := slog.New(slog.DiscardHandler)
	if verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	}

	page := client.NewPage()
	button := client.NewButton(gameID, args[1], false)
	page.AddButton(button)
	counter := client.NewCounter(args[1], 0)
	page.AddCounter(counter)

	ctrl := client.NewController(page, tr, client.Options{
		LoginURL:      "shelfctl login <email>",
		Authenticated: tr.Authenticated,
		Redirect: func(to string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Not signed in. Run: %s\n", to)
		},
		Logger: logger,
	})
	if err := ctrl.Click(cmd.Context(), button); err != nil {
		if errors.Is(err, client.ErrLoginRequired) {
			return err
		}
		return fmt.Errorf("toggle %s: %w", args[1], err)
	}

	state := button.State()
	if state.Active {
		fmt.Fprintf(cmd.OutOrStdout(), "Game %d added to %s (%d total)\n", gameID, args[1], counter.Count())
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Game %d removed from %s (%d total)\n", gameID, args[1], counter.Count())
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	tr, err := transport()
	if err != nil {
		return err
	}
	if !tr.Authenticated() {
		return client.ErrLoginRequired
	}

	ids, err := tr.Collection(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

// transport builds an HTTPTransport carrying the stored token when it was
// issued by the same server.
func transport() (*client.HTTPTransport, error) {
	sess, err := loadSession(sessionPath)
	if err != nil {
		return nil, err
	}
	var opts []client.TransportOption
	if sess != nil && sess.Server == serverURL {
		opts = append(opts, client.WithToken(sess.AccessToken))
	}
	return client.NewHTTPTransport(serverURL, opts...), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
