package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/attendance"
	"github.com/frahmantamala/hr-portal/internal/portal"
	"github.com/frahmantamala/hr-portal/internal/portal/checkin"
	"github.com/frahmantamala/hr-portal/internal/portal/hrapi"
	"github.com/frahmantamala/hr-portal/internal/portal/session"
	"github.com/frahmantamala/hr-portal/internal/portal/store"
	"github.com/frahmantamala/hr-portal/internal/role"
	"github.com/frahmantamala/hr-portal/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail    string
	loginPassword string
)

// portalClient bundles the pieces every portal command needs.
type portalClient struct {
	config  *internal.Config
	store   *store.SQLiteStore
	api     *hrapi.Client
	manager *session.Manager
	logger  *slog.Logger
}

func openPortal() (*portalClient, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidatePortal(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	kv, err := store.OpenSQLite(cfg.Portal.StorePath)
	if err != nil {
		return nil, err
	}

	lg := logger.L().With("component", "portal")
	api := hrapi.NewClient(hrapi.Config{
		BaseURL: cfg.Portal.BaseURL,
		APIKey:  cfg.Portal.APIKey,
		Timeout: cfg.Portal.RequestTimeout,
	}, kv, lg)
	cache := role.NewCache(kv, lg)

	return &portalClient{
		config:  cfg,
		store:   kv,
		api:     api,
		manager: session.NewManager(api, api, cache, lg),
		logger:  lg,
	}, nil
}

func (p *portalClient) Close() {
	p.manager.Close()
	if err := p.store.Close(); err != nil {
		p.logger.Warn("failed to close portal store", "error", err)
	}
}

// bootstrap starts the session manager and waits for the role to settle.
func (p *portalClient) bootstrap(ctx context.Context) (session.Snapshot, error) {
	if err := p.manager.Start(ctx); err != nil {
		return p.manager.Snapshot(), err
	}
	waitCtx, cancel := context.WithTimeout(ctx, p.config.Portal.RequestTimeout+time.Second)
	defer cancel()
	return p.manager.Wait(waitCtx)
}

func runPortal(fn func(ctx context.Context, p *portalClient, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		p, err := openPortal()
		if err != nil {
			return err
		}
		defer p.Close()
		return fn(cmd.Context(), p, cmd.OutOrStdout())
	}
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the HR portal",
	RunE: runPortal(func(ctx context.Context, p *portalClient, out io.Writer) error {
		if loginEmail == "" {
			return errors.New("--email is required")
		}
		password := loginPassword
		if password == "" {
			fmt.Fprint(out, "Password: ")
			var err error
			if password, err = readPassword(rootCmd.InOrStdin(), out); err != nil {
				return err
			}
		}

		if _, err := p.bootstrap(ctx); err != nil {
			p.logger.Debug("no usable session before sign-in", "error", err)
		}

		result, err := p.manager.SignIn(ctx, loginEmail, password)
		if err != nil {
			return err
		}

		if result.Role == "" {
			fmt.Fprintf(out, "Signed in as %s, but no role is assigned. Redirect: %s\n", loginEmail, result.RedirectPath)
			return nil
		}
		fmt.Fprintf(out, "Signed in as %s (%s). Redirect: %s\n", loginEmail, result.Role, result.RedirectPath)
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user, role and landing page",
	RunE: runPortal(func(ctx context.Context, p *portalClient, out io.Writer) error {
		snap, err := p.bootstrap(ctx)
		if err != nil {
			p.logger.Warn("session bootstrap incomplete", "error", err)
		}
		return writeJSON(out, snap)
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out of the HR portal",
	RunE: runPortal(func(ctx context.Context, p *portalClient, out io.Writer) error {
		if err := p.manager.SignOut(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Signed out")
		return nil
	}),
}

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Daily attendance check-in and check-out",
}

// widget builds the attendance widget for the signed-in user and loads
// today's record.
func (p *portalClient) widget(ctx context.Context) (*checkin.Widget, error) {
	current, err := p.api.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, portal.ErrNoSession
	}

	policy, err := attendance.PolicyFromConfig(p.config.Attendance)
	if err != nil {
		return nil, err
	}

	w := checkin.NewWidget(p.api, policy, current.User.ID, nil, p.logger)
	if _, err := w.FetchToday(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

type attendanceView struct {
	Outcome checkin.Outcome     `json:"outcome,omitempty"`
	Record  *attendance.Record  `json:"record"`
	Button  checkin.ButtonState `json:"button"`
	Notice  string              `json:"notice,omitempty"`
}

var attendanceTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's attendance record",
	RunE: runPortal(func(ctx context.Context, p *portalClient, out io.Writer) error {
		w, err := p.widget(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, attendanceView{Record: w.Today(), Button: w.Button()})
	}),
}

var attendanceCheckInCmd = &cobra.Command{
	Use:   "check-in",
	Short: "Check in for today",
	RunE: runPortal(func(ctx context.Context, p *portalClient, out io.Writer) error {
		w, err := p.widget(ctx)
		if err != nil {
			return err
		}
		outcome, record, err := w.CheckIn(ctx)
		if err != nil {
			return err
		}
		view := attendanceView{Outcome: outcome, Record: record, Button: w.Button()}
		if outcome == checkin.OutcomeAlreadyCheckedIn {
			view.Notice = checkin.MessageAlreadyCheckedIn
		}
		return writeJSON(out, view)
	}),
}

var attendanceCheckOutCmd = &cobra.Command{
	Use:   "check-out",
	Short: "Check out for today",
	RunE: runPortal(func(ctx context.Context, p *portalClient, out io.Writer) error {
		w, err := p.widget(ctx)
		if err != nil {
			return err
		}
		outcome, record, err := w.CheckOut(ctx)
		if err != nil {
			return err
		}
		view := attendanceView{Outcome: outcome, Record: record, Button: w.Button()}
		if outcome == checkin.OutcomeNoop {
			view.Notice = "No open check-in for today"
		}
		return writeJSON(out, view)
	}),
}

// readPassword reads without echo from a terminal and falls back to a single
// line for piped input.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password (prompted when empty)")

	attendanceCmd.AddCommand(attendanceTodayCmd)
	attendanceCmd.AddCommand(attendanceCheckInCmd)
	attendanceCmd.AddCommand(attendanceCheckOutCmd)
}
