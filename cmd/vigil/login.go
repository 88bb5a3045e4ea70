package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/vigilclub/vigil/internal/browser"
	"github.com/vigilclub/vigil/pkg/client"
	"github.com/vigilclub/vigil/pkg/domain"
)

const browserLoginTimeout = 2 * time.Minute

var (
	loginEmail   string
	loginBrowser bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your club account",
	Long: `Sign in with your email and password, or with --browser through the
website's sign-in page. Credentials are saved to ~/.vigil/credentials.json.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End your session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in member",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when empty)")
	loginCmd.Flags().BoolVar(&loginBrowser, "browser", false, "sign in through the website")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var resp *domain.LoginResponse
	if loginBrowser {
		resp, err = browserLogin(ctx, a.client, a.cfg.BaseURL)
	} else {
		resp, err = passwordLogin(ctx, a.client, loginEmail)
	}
	if err != nil {
		return err
	}

	if _, err := a.session.LoginWithServerResponse(ctx, *resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	snap := a.session.Snapshot()
	fmt.Printf("Signed in as %s\n", snap.User.DisplayName())
	if a.store.Degraded() {
		fmt.Println("Credentials could not be saved; you will need to sign in again next time.")
	}
	if len(snap.Missing) > 0 {
		fmt.Printf("Your profile is missing %s. Press p in vigil to complete it.\n", strings.Join(snap.Missing, ", "))
	}
	return nil
}

func passwordLogin(ctx context.Context, c *client.Client, email string) (*domain.LoginResponse, error) {
	var password string
	var fields []huh.Field
	if email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&email).
			Validate(func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("enter your account email")
				}
				return nil
			}))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&password))

	if err := huh.NewForm(huh.NewGroup(fields...)).RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	if password == "" {
		return nil, errors.New("password is required")
	}

	resp, err := c.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		var herr *client.HTTPError
		if errors.As(err, &herr) && herr.Message != "" {
			return nil, errors.New(herr.Message)
		}
		return nil, err
	}
	return resp, nil
}

// callbackResult is what the localhost callback delivers to the waiting
// login command.
type callbackResult struct {
	resp *domain.LoginResponse
	err  error
}

// callbackHandler serves /callback for the federated login flow. It checks
// the CSRF state, trades the one-time code for tokens and sends exactly one
// result on done.
func callbackHandler(state string, exchange func(context.Context, string) (*domain.LoginResponse, error), done chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		send := func(res callbackResult) {
			select {
			case done <- res:
			default:
			}
		}
		if r.URL.Query().Get("state") != state {
			http.Error(w, "invalid state", http.StatusForbidden)
			send(callbackResult{err: errors.New("callback state mismatch (possible CSRF)")})
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			send(callbackResult{err: errors.New("callback received without code")})
			return
		}
		resp, err := exchange(r.Context(), code)
		if err != nil {
			http.Error(w, "exchange failed", http.StatusBadGateway)
			send(callbackResult{err: fmt.Errorf("code exchange: %w", err)})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, callbackHTML) //nolint:errcheck
		send(callbackResult{resp: resp})
	})
	return mux
}

// loginURL is the website page that starts federated sign-in and redirects
// back to the localhost callback.
func loginURL(baseURL string, port int, state string) string {
	params := url.Values{}
	params.Set("cli_port", strconv.Itoa(port))
	params.Set("state", state)
	return strings.TrimRight(baseURL, "/") + "/auth/cli/login?" + params.Encode()
}

func browserLogin(ctx context.Context, c *client.Client, baseURL string) (*domain.LoginResponse, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("start callback listener: %w", err)
	}
	defer listener.Close() //nolint:errcheck

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return nil, fmt.Errorf("generate login state: %w", err)
	}
	state := hex.EncodeToString(stateBytes)

	done := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, c.ExchangeCode, done),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case done <- callbackResult{err: err}:
			default:
			}
		}
	}()
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx) //nolint:errcheck
	}()

	u := loginURL(baseURL, listener.Addr().(*net.TCPAddr).Port, state)
	fmt.Println("Opening browser to sign in...")
	if err := browser.Open(u); err != nil {
		fmt.Printf("Could not open browser. Visit this URL manually:\n  %s\n", u)
	}

	select {
	case res := <-done:
		return res.resp, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(browserLoginTimeout):
		return nil, errors.New("login timed out, no callback received within 2 minutes")
	}
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if !a.session.Snapshot().LoggedIn() {
		fmt.Println("Already signed out.")
		return nil
	}
	a.session.Logout()
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.session.Snapshot().LoggedIn() {
		fmt.Println("Not signed in. Run: vigil login")
		return nil
	}
	// The token carries identity only; the profile fields come from the API.
	me, err := a.client.GetMe(ctx)
	switch {
	case client.IsStatus(err, http.StatusUnauthorized):
		fmt.Println("Your session has expired. Run: vigil login")
		return nil
	case err != nil:
		a.logger.WithError(err).Warn("whoami: profile fetch failed")
	default:
		a.session.UpdateUser(me.ProfilePatch())
	}

	fmt.Print(formatWhoami(a.session.Snapshot().User, a.session.Snapshot().Missing))
	return nil
}

func formatWhoami(u *domain.User, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>", u.DisplayName(), u.Email)
	if u.IsStaff {
		b.WriteString(" [staff]")
	}
	b.WriteString("\n")
	if u.College != "" {
		fmt.Fprintf(&b, "  college: %s\n", u.College)
	}
	if u.USN != "" {
		fmt.Fprintf(&b, "  usn:     %s\n", u.USN)
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "  profile incomplete: %s\n", strings.Join(missing, ", "))
	}
	return b.String()
}
