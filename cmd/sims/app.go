package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apiauth "github.com/nkiryanov/sims/internal/api/auth"
	"github.com/nkiryanov/sims/internal/apiclient"
	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/guard"
	"github.com/nkiryanov/sims/internal/logger"
	"github.com/nkiryanov/sims/internal/tokenstore"
)

const (
	exitOK              = 0
	exitError           = 1
	exitUsage           = 2
	exitUnauthenticated = 3
	exitUnauthorized    = 4
)

var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// Prints where the user has to go when the session can't be recovered mid command
type hintNavigator struct {
	w     io.Writer
	view  string // path of the running view, kept in the login hint
	quiet bool
}

func (n *hintNavigator) Navigate(path string) {
	if n.quiet {
		return
	}
	if path == apiclient.LoginPath && n.view != "" {
		path = guard.LoginRedirect(n.view)
	}
	fmt.Fprintf(n.w, "Session ended (%s).\n", path)
	printLoginHint(n.w, n.view)
}

func printLoginHint(w io.Writer, view string) {
	if view == "" {
		fmt.Fprintln(w, "Run: sims login <username>")
		return
	}
	fmt.Fprintf(w, "Run: sims login <username> --next %s\n", view)
}

type App struct {
	store  *tokenstore.Store
	client *apiclient.Client
	auth   *apiauth.API
	nav    *hintNavigator
	logger logger.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func NewApp(ctx context.Context, c *Config, storage tokenstore.Storage, l logger.Logger, in io.Reader, out io.Writer, errOut io.Writer) (*App, error) {
	store, err := tokenstore.Open(ctx, storage, l)
	if err != nil {
		return nil, err
	}

	nav := &hintNavigator{w: errOut}
	client, err := apiclient.New(apiclient.Config{BaseURL: c.BaseURL(), Timeout: c.Timeout}, store, nav, l)
	if err != nil {
		return nil, err
	}

	return &App{
		store:  store,
		client: client,
		auth:   apiauth.New(client, store, l),
		nav:    nav,
		logger: l,
		in:     in,
		out:    out,
		errOut: errOut,
	}, nil
}

// Execute runs the command guarded by its view and returns the process exit code
func (a *App) Execute(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		a.printUsage(a.out)
		return exitOK
	}

	cmd, ok := lookupCommand(args[0])
	if !ok {
		fmt.Fprintf(a.errOut, "unknown command %q\n\n", args[0])
		a.printUsage(a.errOut)
		return exitUsage
	}
	rest := args[1:]

	var g *guard.Guard
	if cmd.view != nil {
		view, ok := guard.Lookup(cmd.view(rest))
		if !ok {
			fmt.Fprintf(a.errOut, "command %s has no view\n", cmd.name)
			return exitError
		}

		g = guard.New(view)
		g.Bind(a.store)
		defer g.Close()

		if code, ok := a.admit(g); !ok {
			return code
		}
		a.nav.view = view.Path
	}

	err := cmd.run(ctx, a, rest)
	if err == nil {
		return exitOK
	}
	return a.exitCode(cmd, g, err)
}

// admit prints the guard decision when the view can't be opened
func (a *App) admit(g *guard.Guard) (int, bool) {
	view := g.View()

	d := g.Decision()
	switch d.State {
	case guard.StateAuthorized:
		return exitOK, true
	case guard.StateUnauthenticated:
		fmt.Fprintf(a.errOut, "%s needs a signed in user (%s).\n", view.Title, d.Redirect)
		printLoginHint(a.errOut, view.Path)
		return exitUnauthenticated, false
	case guard.StateUnauthorized:
		fmt.Fprintf(a.errOut, "%s is not available for role %s (%s).\n", view.Title, a.store.User().Role, d.Redirect)
		return exitUnauthorized, false
	default:
		fmt.Fprintln(a.errOut, "session is not loaded")
		return exitError, false
	}
}

func (a *App) exitCode(cmd command, g *guard.Guard, err error) int {
	var apiErr *apiclient.Error
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(a.errOut, "%v\nUsage: sims %s\n", err, cmd.usage)
		return exitUsage

	// Navigator already printed the login hint
	case g != nil && g.Decision().State == guard.StateUnauthenticated,
		errors.Is(err, apperrors.ErrAuthExpired),
		errors.Is(err, apperrors.ErrAuthRefreshFailed):
		a.logger.Debug("Command stopped, session ended", "command", cmd.name, "error", err)
		return exitUnauthenticated

	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden:
		fmt.Fprintf(a.errOut, "Permission denied: %s\n", apiErr.Message)
		return exitUnauthorized

	case errors.As(err, &apiErr):
		fmt.Fprintf(a.errOut, "Request failed: %s\n", describe(apiErr))
		return exitError

	default:
		fmt.Fprintf(a.errOut, "Error: %v\n", err)
		return exitError
	}
}

func describe(err *apiclient.Error) string {
	if err.StatusCode == 0 {
		return fmt.Sprintf("backend is not reachable (%v)", err.Err)
	}
	if err.Message != "" {
		return fmt.Sprintf("%d %s", err.StatusCode, err.Message)
	}
	return fmt.Sprintf("%d %s", err.StatusCode, http.StatusText(err.StatusCode))
}

func (a *App) printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sims [global flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	width := 0
	for _, c := range commands {
		names = append(names, c.name)
		width = max(width, len(c.usage))
	}
	sort.Strings(names)

	for _, name := range names {
		c, _ := lookupCommand(name)
		fmt.Fprintf(w, "  %-*s  %s\n", width, c.usage, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags: "+strings.Join([]string{"--api-url", "--session-store", "--session-path", "--redis-addr", "--timeout", "--log-level", "--environment"}, ", "))
}
