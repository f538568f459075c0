package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/learnx/internal/gate"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/server"
	"github.com/desertthunder/learnx/internal/services"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultCallbackTimeout = 2 * time.Minute

// AuthSignUp creates an account. A session is only reported when the service skips email confirmation.
func (r *Runner) AuthSignUp(ctx context.Context, cmd *cli.Command) error {
	name, err := r.valueOrPrompt(cmd.String("name"), "Full name", "Ada Lovelace", false)
	if err != nil {
		return err
	}
	email, err := r.valueOrPrompt(cmd.String("email"), "Email", "you@example.com", false)
	if err != nil {
		return err
	}

	password := cmd.String("password")
	confirm := password
	if password == "" && r.interactive() {
		if password, err = r.prompter.Input("Password", "at least 6 characters", true); err != nil {
			return err
		}
		if confirm, err = r.prompter.Input("Confirm password", "", true); err != nil {
			return err
		}
	}

	form, err := r.validator.SignUp(name, email, password, confirm)
	if err != nil {
		return err
	}

	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("signing up", "email", form.Email)
	if err := sessions.SignUp(ctx, form.Email, form.Password, form.FullName); err != nil {
		return userError("sign up", err)
	}

	if user := sessions.User(); user != nil {
		return r.writePlain("✓ Account created. Signed in as %s\n", user.Email)
	}
	return r.writePlain("✓ Account created. Check %s for a confirmation link, then run `learnx auth login`\n", form.Email)
}

// AuthLogin signs in with email and password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email, err := r.valueOrPrompt(cmd.String("email"), "Email", "you@example.com", false)
	if err != nil {
		return err
	}
	password, err := r.valueOrPrompt(cmd.String("password"), "Password", "", true)
	if err != nil {
		return err
	}

	form, err := r.validator.SignIn(email, password)
	if err != nil {
		return err
	}

	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}

	if err := sessions.SignIn(ctx, form.Email, form.Password); err != nil {
		return userError("sign in", err)
	}

	user := sessions.User()
	if user == nil {
		return fmt.Errorf("%w: no session returned", shared.ErrAuthFailed)
	}
	r.logger.Info("signed in", "user", user.ID)
	return r.writePlain("✓ Signed in as %s (%s)\n", user.DisplayName(), user.Email)
}

// AuthProvider runs a PKCE sign-in through the browser with a local callback server.
func (r *Runner) AuthProvider(ctx context.Context, cmd *cli.Command) error {
	provider := cmd.StringArg("provider")
	if provider == "" && r.interactive() {
		var err error
		if provider, err = r.prompter.Select("Sign in with", services.SupportedProviders); err != nil {
			return err
		}
	}

	form, err := r.validator.Provider(provider)
	if err != nil {
		return err
	}

	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}

	redirect, err := sessions.SignInWithProvider(ctx, form.Provider)
	if err != nil {
		return userError("provider sign in", err)
	}

	callbackPath := "/callback"
	if u, err := url.Parse(r.config.Auth.RedirectURL); err == nil && u.Path != "" {
		callbackPath = u.Path
	}

	handler := server.NewCallbackHandler(callbackPath, redirect.State, func(ctx context.Context, code string) error {
		return sessions.CompleteProviderSignIn(ctx, code, redirect.Verifier)
	})
	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(handler)

	httpServer := &http.Server{
		Addr:    r.config.Server.Addr(),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server for %s at %v", form.Provider, httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", redirect.URL)
	} else {
		r.writePlain("→ Opening browser for %s sign in...\n", form.Provider)
		if err := shared.OpenBrowser(redirect.URL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", redirect.URL)
		}
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultCallbackTimeout
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.CallbackResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	if result.Error() != nil {
		return userError("provider sign in", result.Error())
	}

	user := sessions.User()
	if user == nil {
		return fmt.Errorf("%w: no session after callback", shared.ErrAuthFailed)
	}
	return r.writePlain("✓ Signed in with %s as %s\n", form.Provider, user.Email)
}

// AuthLogout signs out. A failure leaves the saved session in place.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}

	if sessions.User() == nil {
		return r.writePlain("Not signed in\n")
	}

	if err := sessions.SignOut(ctx); err != nil {
		return userError("sign out", err)
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthReset sends a password recovery email.
func (r *Runner) AuthReset(ctx context.Context, cmd *cli.Command) error {
	email, err := r.valueOrPrompt(cmd.String("email"), "Email", "you@example.com", false)
	if err != nil {
		return err
	}

	form, err := r.validator.Reset(email)
	if err != nil {
		return err
	}

	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}

	if err := sessions.ResetPassword(ctx, form.Email); err != nil {
		return userError("password reset", err)
	}
	return r.writePlain("✓ Password reset link sent to %s\n", form.Email)
}

// statusView is the JSON form of `auth status`.
type statusView struct {
	State string       `json:"state"`
	User  *models.User `json:"user,omitempty"`
	Error string       `json:"error,omitempty"`
}

// AuthStatus resolves the auth gate and prints the result.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}

	g := gate.New(sessions)
	defer g.Close()

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	state, _ := g.Wait(waitCtx)

	snap := sessions.Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(statusView{State: state.String(), User: snap.User, Error: snap.LastError}, cmd.Bool("pretty"))
	}

	switch state {
	case gate.Authenticated:
		r.writePlain("✓ Signed in as %s (%s)\n", snap.User.DisplayName(), snap.User.Email)
		r.writePlain("Provider: %s\n", snap.User.Provider())
		if snap.Session != nil && snap.Session.Token != nil && !snap.Session.Token.Expiry.IsZero() {
			r.writePlain("Session expires: %s\n", snap.Session.Token.Expiry.Local().Format(time.RFC1123))
		}
	case gate.Unauthenticated:
		r.writePlain("✗ Not signed in\n")
	default:
		r.writePlain("… Session still loading\n")
	}
	if snap.LastError != "" {
		r.writePlain("Last error: %s\n", snap.LastError)
	}
	return nil
}

// AuthProfile shows the profile, or updates it when --name or --avatar is given.
//
// Both paths sit behind the auth gate.
func (r *Runner) AuthProfile(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return err
	}

	g := gate.New(sessions)
	defer g.Close()
	if g.State() != gate.Authenticated {
		return fmt.Errorf("%w: run `learnx auth login` first", shared.ErrNotAuthenticated)
	}

	if cmd.IsSet("name") || cmd.IsSet("avatar") {
		// Unset flags keep the current value for validation but are not sent.
		var keys []string
		name := sessions.User().DisplayName()
		if cmd.IsSet("name") {
			name = cmd.String("name")
			keys = append(keys, "full_name")
		}
		if cmd.IsSet("avatar") {
			keys = append(keys, "avatar_url")
		}

		form, err := r.validator.Profile(name, cmd.String("avatar"))
		if err != nil {
			return err
		}
		if err := sessions.UpdateProfile(ctx, form.Patch(keys...)); err != nil {
			return userError("profile update", err)
		}
		r.writePlain("✓ Profile updated\n")
	}

	user := sessions.User()
	if user == nil {
		return shared.ErrNotAuthenticated
	}
	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlainHeader(user.DisplayName())
	r.writePlain("Email:    %s\n", user.Email)
	r.writePlain("Provider: %s\n", user.Provider())
	if avatar := user.AvatarURL(); avatar != "" {
		r.writePlain("Avatar:   %s\n", avatar)
	}
	if !user.CreatedAt.IsZero() {
		r.writePlain("Joined:   %s\n", user.CreatedAt.Format("January 2, 2006"))
	}
	return nil
}
