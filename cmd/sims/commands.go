package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/api/analytics"
	"github.com/nkiryanov/sims/internal/api/attendance"
	"github.com/nkiryanov/sims/internal/api/audit"
	apiauth "github.com/nkiryanov/sims/internal/api/auth"
	"github.com/nkiryanov/sims/internal/api/bulk"
	"github.com/nkiryanov/sims/internal/api/certificate"
	"github.com/nkiryanov/sims/internal/api/logbook"
	"github.com/nkiryanov/sims/internal/api/notification"
	"github.com/nkiryanov/sims/internal/api/result"
	"github.com/nkiryanov/sims/internal/api/rotation"
	"github.com/nkiryanov/sims/internal/api/search"
	apiuser "github.com/nkiryanov/sims/internal/api/user"
	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/guard"
	"github.com/nkiryanov/sims/internal/models"
)

const (
	viewDashboard     = guard.DashboardPath
	viewSearch        = "/dashboard/search"
	viewBulkImport    = "/dashboard/admin/bulk-import"
	viewAssignedPGs   = "/dashboard/supervisor/pgs"
	viewReviewLogbook = "/dashboard/supervisor/logbooks"
	viewLogbook       = "/dashboard/pg/logbook"
	viewRotations     = "/dashboard/pg/rotations"
	viewNotifications = "/dashboard/pg/notifications"
	viewResults       = "/dashboard/pg/results"
	viewCertificates  = "/dashboard/pg/certificates"
	viewAnalytics     = "/dashboard/admin/analytics"
	viewAuditLogs     = "/dashboard/admin/audit-logs"
)

var errInvalidCredentials = errors.New("invalid username or password")

type command struct {
	name    string
	usage   string
	summary string

	// Path of the view guarding the command for given args. nil for commands open to anyone
	view func(args []string) string
	run  func(ctx context.Context, a *App, args []string) error
}

func fixedView(path string) func([]string) string {
	return func([]string) string { return path }
}

var commands = []command{
	{name: "login", usage: "login <username> [-p password] [--next view]", summary: "Sign in and remember the session", run: runLogin},
	{name: "logout", usage: "logout", summary: "Revoke the session and forget it", run: runLogout},
	{name: "whoami", usage: "whoami [--remote]", summary: "Show the signed in user", view: fixedView(viewDashboard), run: runWhoami},
	{name: "dashboard", usage: "dashboard [--no-banner]", summary: "Role dashboard with available views", view: fixedView(viewDashboard), run: runDashboard},
	{name: "notifications", usage: "notifications [--unread] [--type t] | read <id>", summary: "List or mark notifications", view: fixedView(viewNotifications), run: runNotifications},
	{name: "logbook", usage: "logbook [--pending] | submit <id> | verify <id> [--feedback text]", summary: "Logbook entries and their review", view: logbookView, run: runLogbook},
	{name: "rotations", usage: "rotations [id]", summary: "Own rotations", view: fixedView(viewRotations), run: runRotations},
	{name: "search", usage: "search <query> [--type t]... [--limit n] | --suggest <query> | --history", summary: "Global search", view: fixedView(viewSearch), run: runSearch},
	{name: "pgs", usage: "pgs", summary: "PGs assigned to the supervisor", view: fixedView(viewAssignedPGs), run: runAssignedPGs},
	{name: "import", usage: "import <generic|trainees|supervisors|residents> <file> | review <id>", summary: "Bulk import from CSV or Excel", view: fixedView(viewBulkImport), run: runImport},
	{name: "scores", usage: "scores", summary: "Own exam scores", view: fixedView(viewResults), run: runScores},
	{name: "certificates", usage: "certificates | download <id> [-o file]", summary: "Own certificates and their files", view: fixedView(viewCertificates), run: runCertificates},
	{name: "attendance", usage: "attendance [--period p] [--from date] [--to date] [--user id] | upload <file>", summary: "Attendance summary or sheet upload", view: attendanceView, run: runAttendance},
	{name: "audit", usage: "audit [--user id] [--action a] [--from date] [--to date] | reports [--type t] | report <type> [key=value]...", summary: "Activity log and audit reports", view: fixedView(viewAuditLogs), run: runAudit},
	{name: "analytics", usage: "analytics | trends <metric> [--period p] | performance [--period p]", summary: "System-wide figures", view: fixedView(viewAnalytics), run: runAnalytics},
}

// How to open a view from the command line
var viewCommands = map[string]string{
	viewDashboard:           "sims dashboard",
	"/dashboard/admin":      "sims dashboard",
	"/dashboard/supervisor": "sims dashboard",
	"/dashboard/pg":         "sims dashboard",
	viewSearch:              "sims search <query>",
	viewBulkImport:          "sims import <kind> <file>",
	viewAssignedPGs:         "sims pgs",
	viewReviewLogbook:       "sims logbook --pending",
	viewLogbook:             "sims logbook",
	viewRotations:           "sims rotations",
	viewNotifications:       "sims notifications",
	viewResults:             "sims scores",
	viewCertificates:        "sims certificates",
	viewAnalytics:           "sims analytics",
	viewAuditLogs:           "sims audit",
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func logbookView(args []string) string {
	if len(args) > 0 {
		switch args[0] {
		case "submit":
			return viewLogbook
		case "verify":
			return viewReviewLogbook
		}
	}
	if slices.Contains(args, "--pending") {
		return viewReviewLogbook
	}
	return viewLogbook
}

// Any signed in user reads a summary, the backend decides whose. Uploads belong to bulk import
func attendanceView(args []string) string {
	if len(args) > 0 && args[0] == "upload" {
		return viewBulkImport
	}
	return viewDashboard
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageError("%v", err)
	}
	return nil
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError("invalid id %q", value)
	}
	return id, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func readLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimRight(sc.Text(), "\r\n"), nil
}

func runLogin(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("login")
	password := fs.StringP("password", "p", "", "Password, read from stdin when empty")
	next := fs.String("next", "", "View to continue with after login")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError("username is required")
	}

	if *password == "" {
		fmt.Fprint(a.errOut, "Password: ")
		line, err := readLine(a.in)
		if err != nil {
			return fmt.Errorf("can't read password: %w", err)
		}
		*password = line
	}

	// Rejected credentials are not an ended session
	a.nav.quiet = true
	user, err := a.auth.Login(ctx, apiauth.Credentials{Username: fs.Arg(0), Password: *password})
	a.nav.quiet = false

	var verr *api.ValidationError
	switch {
	case errors.As(err, &verr):
		return usageError("%v", verr)
	case errors.Is(err, apperrors.ErrAuthExpired), errors.Is(err, apperrors.ErrAuthRefreshFailed):
		return errInvalidCredentials
	case err != nil:
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", user.FullName(), user.Role)

	dest := guard.HomePath(user.Role)
	if *next != "" {
		dest = guard.NextFromLogin(url.Values{"next": {*next}}.Encode())
	}
	if view, ok := guard.Lookup(dest); ok {
		if d := guard.Evaluate(a.store.Session(), true, view.Allowed, dest); d.State != guard.StateAuthorized {
			dest = guard.HomePath(user.Role)
		}
	}

	if cmd, ok := viewCommands[dest]; ok {
		fmt.Fprintf(a.out, "Next: %s\n", cmd)
	} else {
		fmt.Fprintf(a.out, "Next: %s\n", dest)
	}
	return nil
}

func runLogout(ctx context.Context, a *App, _ []string) error {
	if a.store.Session().Empty() {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// Access token lifetime read from the token itself. The signature is checked by the backend only
func accessExpiry(token string, now time.Time) string {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return "unknown"
	}

	left := claims.ExpiresAt.Sub(now).Round(time.Second)
	if left <= 0 {
		return "expired, refreshed on next request"
	}
	return "expires in " + left.String()
}

func runWhoami(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("whoami")
	remote := fs.Bool("remote", false, "Fetch the profile from the backend")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	user := a.store.User()
	if *remote {
		profile, err := a.auth.Profile(ctx)
		if err != nil {
			return err
		}
		if err := a.store.UpdateUser(ctx, profile); err != nil {
			return err
		}
		user = &profile
	}

	tw := newTable(a.out)
	fmt.Fprintf(tw, "Username:\t%s\n", user.Username)
	fmt.Fprintf(tw, "Name:\t%s\n", user.FullName())
	fmt.Fprintf(tw, "Email:\t%s\n", user.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", user.Role)
	if user.Specialty != "" {
		fmt.Fprintf(tw, "Specialty:\t%s\n", user.Specialty)
	}
	if user.Year != "" {
		fmt.Fprintf(tw, "Year:\t%s\n", user.Year)
	}
	fmt.Fprintf(tw, "Access token:\t%s\n", accessExpiry(a.store.AccessToken(), time.Now()))
	return tw.Flush()
}

func runDashboard(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("dashboard")
	noBanner := fs.Bool("no-banner", false, "Skip the banner")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	session := a.store.Session()
	user := session.User

	if !*noBanner {
		fmt.Fprintln(a.out, figure.NewFigure("SIMS", "", true).String())
	}
	fmt.Fprintf(a.out, "Welcome, %s (%s)\n", user.FullName(), user.Role)

	switch user.Role {
	case models.RolePG:
		unread, err := notification.New(a.client).UnreadCount(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Unread notifications: %d\n", unread)

		summary, err := attendance.New(a.client).Summary(ctx, attendance.LastMonth(time.Now()))
		switch {
		case err == nil:
			fmt.Fprintf(a.out, "Attendance last month: %s%% (%d of %d sessions, %s)\n",
				summary.AttendancePercentage.StringFixed(1), summary.Attended, summary.TotalSessions, summary.EligibilityStatus)
		case errors.Is(err, apperrors.ErrAuthExpired), errors.Is(err, apperrors.ErrAuthRefreshFailed):
			return err
		default:
			a.logger.Debug("Attendance summary unavailable", "error", err)
		}
	case models.RoleSupervisor:
		pending, err := logbook.New(a.client).Pending(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Logbook entries to review: %d\n", pending.Count)
	}

	fmt.Fprintln(a.out)
	tw := newTable(a.out)
	fmt.Fprintln(tw, "VIEW\tPATH\tCOMMAND")
	for _, v := range guard.Views {
		if guard.Evaluate(session, true, v.Allowed, v.Path).State != guard.StateAuthorized {
			continue
		}
		cmd, ok := viewCommands[v.Path]
		if !ok {
			cmd = "web only"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Title, v.Path, cmd)
	}
	return tw.Flush()
}

func runNotifications(ctx context.Context, a *App, args []string) error {
	svc := notification.New(a.client)

	if len(args) > 0 && args[0] == "read" {
		if len(args) != 2 {
			return usageError("notification id is required")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		marked, err := svc.MarkRead(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Marked %d notification(s) as read\n", marked)
		return nil
	}

	fs := newFlagSet("notifications")
	unread := fs.Bool("unread", false, "Only unread notifications")
	kind := fs.String("type", "", "Only notifications of the type")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var (
		page models.Page[models.Notification]
		err  error
	)
	if *unread {
		page, err = svc.Unread(ctx)
	} else {
		page, err = svc.List(ctx, notification.Filter{Type: *kind, Ordering: "-created_at"})
	}
	if err != nil {
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\t\tDATE\tTYPE\tTITLE")
	for _, n := range page.Results {
		mark := ""
		if !n.IsRead {
			mark = "new"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", n.ID, mark, n.CreatedAt.Format(time.DateOnly), n.Type, n.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d notification(s)\n", page.Count)
	return nil
}

func entryAuthor(e models.LogbookEntry) string {
	if author, ok := e.User.Get(); ok {
		return author.FullName
	}
	if id := e.User.IDValue(); id != 0 {
		return "#" + strconv.FormatInt(id, 10)
	}
	return ""
}

func printEntries(w io.Writer, page models.Page[models.LogbookEntry], withAuthor bool) error {
	tw := newTable(w)
	if withAuthor {
		fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tPG\tCASE")
	} else {
		fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tCASE")
	}
	for _, e := range page.Results {
		if withAuthor {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Status, entryAuthor(e), e.CaseTitle)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Date, e.Status, e.CaseTitle)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d entr(ies)\n", page.Count)
	return err
}

func runLogbook(ctx context.Context, a *App, args []string) error {
	svc := logbook.New(a.client)

	if len(args) > 0 && args[0] == "submit" {
		if len(args) != 2 {
			return usageError("entry id is required")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		entry, err := svc.Submit(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Entry %d submitted, status %s\n", entry.ID, entry.Status)
		return nil
	}

	if len(args) > 0 && args[0] == "verify" {
		fs := newFlagSet("logbook verify")
		feedback := fs.String("feedback", "", "Comment for the PG")
		if err := parseFlags(fs, args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return usageError("entry id is required")
		}
		id, err := parseID(fs.Arg(0))
		if err != nil {
			return err
		}
		entry, err := svc.Verify(ctx, id, *feedback)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Entry %d verified, status %s\n", entry.ID, entry.Status)
		return nil
	}

	fs := newFlagSet("logbook")
	pending := fs.Bool("pending", false, "Entries waiting for review")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *pending {
		page, err := svc.Pending(ctx)
		if err != nil {
			return err
		}
		return printEntries(a.out, page, true)
	}

	page, err := svc.MyEntries(ctx)
	if err != nil {
		return err
	}
	return printEntries(a.out, page, false)
}

func runRotations(ctx context.Context, a *App, args []string) error {
	svc := rotation.New(a.client)

	var rotations []models.Rotation
	switch len(args) {
	case 0:
		page, err := svc.Mine(ctx)
		if err != nil {
			return err
		}
		rotations = page.Results
	case 1:
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		r, err := svc.Get(ctx, id)
		if err != nil {
			return err
		}
		rotations = []models.Rotation{r}
	default:
		return usageError("too many arguments")
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT\tHOSPITAL\tFROM\tTO\tSTATUS\tSUPERVISOR")
	for _, r := range rotations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, r.Department, r.Hospital, r.StartDate, r.EndDate, r.Status, r.SupervisorName)
	}
	return tw.Flush()
}

func runSearch(ctx context.Context, a *App, args []string) error {
	fs := newFlagSet("search")
	types := fs.StringArray("type", nil, "Result type, repeatable")
	limit := fs.Int("limit", 0, "Max results")
	suggest := fs.Bool("suggest", false, "Show suggestions for the query")
	history := fs.Bool("history", false, "Show recent searches")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	svc := search.New(a.client)
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))

	switch {
	case *history:
		page, err := svc.History(ctx)
		if err != nil {
			return err
		}
		tw := newTable(a.out)
		fmt.Fprintln(tw, "WHEN\tRESULTS\tQUERY")
		for _, h := range page.Results {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", h.SearchedAt.Format(time.DateTime), h.ResultsCount, h.Query)
		}
		return tw.Flush()

	case query == "":
		return usageError("query is required")

	case *suggest:
		suggestions, err := svc.Suggestions(ctx, query)
		if err != nil {
			return err
		}
		for _, s := range suggestions {
			fmt.Fprintln(a.out, s.Text)
		}
		return nil
	}

	page, err := svc.Search(ctx, query, search.Options{Types: *types, Limit: *limit})
	if err != nil {
		return err
	}
	if len(page.Results) == 0 {
		fmt.Fprintf(a.out, "Nothing found for %q\n", query)
		return nil
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "TYPE\tTITLE\tLINK")
	for _, r := range page.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Type, r.Title, r.URL)
	}
	return tw.Flush()
}

func runAssignedPGs(ctx context.Context, a *App, _ []string) error {
	pgs, err := apiuser.New(a.client).AssignedPGs(ctx)
	if err != nil {
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tSPECIALTY\tYEAR")
	for _, pg := range pgs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", pg.ID, pg.Username, pg.FullName, pg.Specialty, pg.Year)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d PG(s) assigned\n", len(pgs))
	return nil
}

func printImportResult(w io.Writer, r models.BulkImportResult) error {
	fmt.Fprintf(w, "Imported: %d, failed: %d\n", r.SuccessCount, r.ErrorCount)
	if r.ImportID != 0 {
		fmt.Fprintf(w, "Import id: %d\n", r.ImportID)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
	if !r.Success {
		return errors.New("import finished with errors")
	}
	return nil
}

func runImport(ctx context.Context, a *App, args []string) error {
	svc := bulk.New(a.client)
	if len(args) != 2 {
		return usageError("kind and file are required")
	}

	if args[0] == "review" {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		r, err := svc.Review(ctx, id)
		if err != nil {
			return err
		}
		return printImportResult(a.out, r)
	}

	kind := models.ImportKind(args[0])
	path := args[1]

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() // nolint:errcheck

	r, err := svc.Import(ctx, kind, filepath.Base(path), f)
	if err != nil {
		return err
	}
	return printImportResult(a.out, r)
}

func runScores(ctx context.Context, a *App, _ []string) error {
	scores, err := result.New(a.client).MyScores(ctx)
	if err != nil {
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "EXAM\tMARKS\tPERCENT\tGRADE\tPASSED")
	for _, s := range scores {
		exam := "#" + strconv.FormatInt(s.Exam.IDValue(), 10)
		if e, ok := s.Exam.Get(); ok {
			exam = e.Title
		}
		passed := "no"
		if s.IsPassing {
			passed = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", exam, s.MarksObtained, s.Percentage.StringFixed(2), s.Grade, passed)
	}
	return tw.Flush()
}

func runCertificates(ctx context.Context, a *App, args []string) error {
	svc := certificate.New(a.client)
	certs, err := svc.Mine(ctx)
	if err != nil {
		return err
	}

	if len(args) > 0 && args[0] == "download" {
		fs := newFlagSet("certificates download")
		output := fs.StringP("output", "o", "", "File to write, the certificate file name by default")
		if err := parseFlags(fs, args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return usageError("certificate id is required")
		}
		id, err := parseID(fs.Arg(0))
		if err != nil {
			return err
		}

		i := slices.IndexFunc(certs, func(c models.CertificateSummary) bool { return c.ID == id })
		switch {
		case i < 0:
			return fmt.Errorf("certificate %d not found", id)
		case !certs[i].HasFile:
			return fmt.Errorf("certificate %d has no file", id)
		}

		path := *output
		if path == "" {
			path = filepath.Base(certs[i].FileName)
			if certs[i].FileName == "" {
				path = fmt.Sprintf("certificate-%d", id)
			}
		}

		var buf bytes.Buffer
		if _, err := svc.Download(ctx, id, &buf); err != nil {
			return err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", path, buf.Len())
		return nil
	}
	if len(args) > 0 {
		return usageError("unknown subcommand %q", args[0])
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tISSUED\tSTATUS\tFILE")
	for _, c := range certs {
		file := "-"
		if c.HasFile {
			file = c.FileName
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Title, c.CertificateTypeName, c.IssueDate, c.Status, file)
	}
	return tw.Flush()
}

func runAttendance(ctx context.Context, a *App, args []string) error {
	svc := attendance.New(a.client)

	if len(args) > 0 && args[0] == "upload" {
		if len(args) != 2 {
			return usageError("file is required")
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close() // nolint:errcheck

		r, err := svc.Upload(ctx, filepath.Base(args[1]), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\nUploaded: %d, failed: %d\n", r.Message, r.SuccessCount, r.ErrorCount)
		for _, e := range r.Errors {
			fmt.Fprintf(a.out, "  - %s\n", e)
		}
		if r.ErrorCount > 0 {
			return errors.New("upload finished with errors")
		}
		return nil
	}

	req := attendance.LastMonth(time.Now())
	fs := newFlagSet("attendance")
	fs.StringVar(&req.Period, "period", req.Period, "monthly, quarterly, semester, yearly or custom")
	fs.StringVar(&req.StartDate, "from", req.StartDate, "First day, YYYY-MM-DD")
	fs.StringVar(&req.EndDate, "to", req.EndDate, "Last day, YYYY-MM-DD")
	fs.Int64Var(&req.User, "user", 0, "Trainee id, the signed in user when omitted")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	summary, err := svc.Summary(ctx, req)
	var verr *api.ValidationError
	switch {
	case errors.As(err, &verr):
		return usageError("%v", verr)
	case err != nil:
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintf(tw, "Period:\t%s (%s to %s)\n", summary.Period, summary.StartDate, summary.EndDate)
	fmt.Fprintf(tw, "Attendance:\t%s%%\n", summary.AttendancePercentage.StringFixed(1))
	fmt.Fprintf(tw, "Sessions:\t%d\n", summary.TotalSessions)
	fmt.Fprintf(tw, "Attended:\t%d\n", summary.Attended)
	fmt.Fprintf(tw, "Absent:\t%d\n", summary.Absent)
	fmt.Fprintf(tw, "Late:\t%d\n", summary.Late)
	fmt.Fprintf(tw, "Excused:\t%d\n", summary.Excused)
	fmt.Fprintf(tw, "Eligibility:\t%s\n", summary.EligibilityStatus)
	return tw.Flush()
}

func runAudit(ctx context.Context, a *App, args []string) error {
	svc := audit.New(a.client)

	if len(args) > 0 && args[0] == "reports" {
		fs := newFlagSet("audit reports")
		kind := fs.String("type", "", "Only reports of the type")
		if err := parseFlags(fs, args[1:]); err != nil {
			return err
		}
		page, err := svc.Reports(ctx, audit.ReportFilter{ReportType: *kind, Ordering: "-generated_at"})
		if err != nil {
			return err
		}
		tw := newTable(a.out)
		fmt.Fprintln(tw, "ID\tTYPE\tGENERATED\tFILE")
		for _, r := range page.Results {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.ReportType, r.GeneratedAt.Format(time.DateTime), r.FileURL)
		}
		return tw.Flush()
	}

	if len(args) > 0 && args[0] == "report" {
		if len(args) < 2 {
			return usageError("report type is required")
		}
		params := make(map[string]any, len(args)-2)
		for _, arg := range args[2:] {
			k, v, ok := strings.Cut(arg, "=")
			if !ok || k == "" {
				return usageError("parameter %q is not key=value", arg)
			}
			params[k] = v
		}
		r, err := svc.CreateReport(ctx, audit.ReportRequest{ReportType: args[1], Parameters: params})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Report %d (%s) generated\n", r.ID, r.ReportType)
		return nil
	}

	var filter audit.ActivityFilter
	fs := newFlagSet("audit")
	fs.Int64Var(&filter.User, "user", 0, "Only actions of the user id")
	fs.StringVar(&filter.Action, "action", "", "Only actions of the kind")
	fs.StringVar(&filter.StartDate, "from", "", "From date, YYYY-MM-DD")
	fs.StringVar(&filter.EndDate, "to", "", "To date, YYYY-MM-DD")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	page, err := svc.ActivityLogs(ctx, filter)
	var verr *api.ValidationError
	switch {
	case errors.As(err, &verr):
		return usageError("%v", verr)
	case err != nil:
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "WHEN\tUSER\tACTION\tIP")
	for _, l := range page.Results {
		actor := l.Actor()
		if actor == "" {
			actor = "system"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.CreatedAt.Format(time.DateTime), actor, l.Action, l.IPAddress)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d action(s)\n", page.Count)
	return nil
}

func runAnalytics(ctx context.Context, a *App, args []string) error {
	svc := analytics.New(a.client)

	sub := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}
	fs := newFlagSet("analytics")
	period := fs.String("period", "", "Grouping period, e.g. monthly")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	switch sub {
	case "trends":
		if fs.NArg() != 1 {
			return usageError("metric is required")
		}
		points, err := svc.Trends(ctx, analytics.TrendsRequest{Period: *period, Metric: fs.Arg(0)})
		if err != nil {
			return err
		}
		tw := newTable(a.out)
		fmt.Fprintln(tw, "PERIOD\tVALUE\tLABEL")
		for _, p := range points {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Period, p.Value, p.Label)
		}
		return tw.Flush()

	case "performance":
		m, err := svc.Performance(ctx, *period)
		if err != nil {
			return err
		}
		tw := newTable(a.out)
		fmt.Fprintf(tw, "Average score:\t%s\n", m.AverageScores.StringFixed(1))
		fmt.Fprintf(tw, "Pass rate:\t%s%%\n", m.PassRate.StringFixed(1))
		fmt.Fprintf(tw, "Completion rate:\t%s%%\n", m.CompletionRate.StringFixed(1))
		return tw.Flush()

	case "":
		overview, err := svc.Overview(ctx)
		if err != nil {
			return err
		}
		compliance, err := svc.Compliance(ctx)
		if err != nil {
			return err
		}
		tw := newTable(a.out)
		fmt.Fprintf(tw, "Users:\t%d\n", overview.TotalUsers)
		fmt.Fprintf(tw, "PGs:\t%d\n", overview.TotalPGs)
		fmt.Fprintf(tw, "Supervisors:\t%d\n", overview.TotalSupervisors)
		fmt.Fprintf(tw, "Active rotations:\t%d\n", overview.ActiveRotations)
		fmt.Fprintf(tw, "Pending reviews:\t%d\n", overview.PendingReviews)
		fmt.Fprintf(tw, "Logbook compliance:\t%s%%\n", compliance.LogbookCompliance.StringFixed(1))
		fmt.Fprintf(tw, "Certificate compliance:\t%s%%\n", compliance.CertificateCompliance.StringFixed(1))
		fmt.Fprintf(tw, "Rotation compliance:\t%s%%\n", compliance.RotationCompliance.StringFixed(1))
		fmt.Fprintf(tw, "Overall compliance:\t%s%%\n", compliance.OverallCompliance.StringFixed(1))
		return tw.Flush()

	default:
		return usageError("unknown subcommand %q", sub)
	}
}
