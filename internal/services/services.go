// package services defines the client boundary to the hosted auth service
package services

import (
	"context"

	"github.com/desertthunder/learnx/internal/models"
)

// AuthEventKind names a session change pushed to subscribers.
type AuthEventKind string

const (
	EventInitialSession AuthEventKind = "INITIAL_SESSION"
	EventSignedIn       AuthEventKind = "SIGNED_IN"
	EventSignedOut      AuthEventKind = "SIGNED_OUT"
	EventTokenRefreshed AuthEventKind = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEventKind = "USER_UPDATED"
)

// AuthEvent is delivered on the push channel. Session is nil for [EventSignedOut].
type AuthEvent struct {
	Kind    AuthEventKind
	Session *models.Session
}

// OAuthRedirect is phase one of a provider sign-in.
//
// The caller sends the user to URL, then hands the returned code and Verifier to ExchangeCode.
// State is echoed back on the redirect and must be compared before exchanging.
type OAuthRedirect struct {
	URL      string
	Verifier string
	State    string
}

// SignUpResult carries the created user and, when email confirmation is disabled, a session.
type SignUpResult struct {
	User    models.User
	Session *models.Session
}

// AuthService is everything the session store needs from the remote auth backend.
//
// Every error returned is a [*shared.AuthError].
type AuthService interface {
	// GetSession returns the current session, refreshing it when close to expiry.
	// A nil session with a nil error means nobody is signed in.
	GetSession(ctx context.Context) (*models.Session, error)

	// RestoreSession seeds the client with a previously persisted session without emitting events.
	RestoreSession(session *models.Session)

	// Subscribe registers fn for push events and returns a function that removes it.
	Subscribe(fn func(AuthEvent)) (unsubscribe func())

	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)

	// SignInWithOAuth builds the provider redirect. It never yields a session.
	SignInWithOAuth(ctx context.Context, provider, redirectURL string) (*OAuthRedirect, error)

	// ExchangeCode completes a provider sign-in. The resulting session arrives as [EventSignedIn].
	ExchangeCode(ctx context.Context, code, verifier string) (*models.Session, error)

	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email, redirectURL string) error
	UpdateUser(ctx context.Context, metadata map[string]any) (*models.User, error)
}
