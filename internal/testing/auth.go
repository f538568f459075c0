package testing

import (
	"context"
	"maps"
	"sync"

	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/services"
	"golang.org/x/oauth2"
)

// FakeAuthService is a scriptable test double for [services.AuthService].
//
// Set the exported response fields before use. BeforeReturn, when set, runs inside every call
// after the response is decided and before it is returned, which lets tests push events while a
// call is still pending.
type FakeAuthService struct {
	mu sync.Mutex

	Current       *models.Session
	GetSessionErr error

	SignUpResult *services.SignUpResult
	SignUpErr    error

	SignInSession *models.Session
	SignInErr     error
	EmitOnSignIn  bool

	Redirect    *services.OAuthRedirect
	RedirectErr error

	ExchangeSession *models.Session
	ExchangeErr     error

	SignOutErr   error
	ResetErr     error
	UpdateErr    error
	UpdatedUser  *models.User
	EmitOnUpdate bool

	BeforeReturn func(op string)

	calls        []string
	lastMetadata map[string]any
	lastRedirect string
	restored     *models.Session
	subs         map[int]func(services.AuthEvent)
	nextSub      int
}

func NewFakeAuthService() *FakeAuthService {
	return &FakeAuthService{subs: make(map[int]func(services.AuthEvent))}
}

// FakeSession builds a session for user id with a fixed token.
func FakeSession(id, email string) *models.Session {
	return &models.Session{
		Token: &oauth2.Token{AccessToken: "token-" + id, RefreshToken: "refresh-" + id, TokenType: "bearer"},
		User:  models.User{ID: id, Email: email, UserMetadata: map[string]any{"full_name": "User " + id}},
	}
}

func (f *FakeAuthService) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	hook := f.BeforeReturn
	f.mu.Unlock()
	if hook != nil {
		hook(op)
	}
}

// Calls returns the operations invoked so far, in order.
func (f *FakeAuthService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// LastMetadata returns the metadata passed to the last SignUp or UpdateUser.
func (f *FakeAuthService) LastMetadata() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.lastMetadata)
}

// LastRedirect returns the redirect URL passed to the last SignInWithOAuth or ResetPasswordForEmail.
func (f *FakeAuthService) LastRedirect() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRedirect
}

// Restored returns the session handed to RestoreSession.
func (f *FakeAuthService) Restored() *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restored.Clone()
}

// Subscribers returns the number of live subscriptions.
func (f *FakeAuthService) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Push delivers an event to every subscriber, as the remote service would.
func (f *FakeAuthService) Push(kind services.AuthEventKind, session *models.Session) {
	f.mu.Lock()
	fns := make([]func(services.AuthEvent), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(services.AuthEvent{Kind: kind, Session: session.Clone()})
	}
}

func (f *FakeAuthService) GetSession(context.Context) (*models.Session, error) {
	f.record("GetSession")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetSessionErr != nil {
		return nil, f.GetSessionErr
	}
	return f.Current.Clone(), nil
}

func (f *FakeAuthService) RestoreSession(session *models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored = session.Clone()
	f.Current = session.Clone()
}

func (f *FakeAuthService) Subscribe(fn func(services.AuthEvent)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *FakeAuthService) SignUp(_ context.Context, email, password string, metadata map[string]any) (*services.SignUpResult, error) {
	f.mu.Lock()
	f.lastMetadata = maps.Clone(metadata)
	f.mu.Unlock()
	f.record("SignUp")

	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	if f.SignUpResult != nil {
		return f.SignUpResult, nil
	}
	return &services.SignUpResult{User: models.User{ID: "new-user", Email: email, UserMetadata: maps.Clone(metadata)}}, nil
}

func (f *FakeAuthService) SignInWithPassword(_ context.Context, email, password string) (*models.Session, error) {
	if f.SignInErr != nil {
		f.record("SignInWithPassword")
		return nil, f.SignInErr
	}

	session := f.SignInSession
	if session == nil {
		session = FakeSession("user-1", email)
	}

	f.mu.Lock()
	f.Current = session.Clone()
	f.mu.Unlock()

	if f.EmitOnSignIn {
		f.Push(services.EventSignedIn, session)
	}
	f.record("SignInWithPassword")
	return session.Clone(), nil
}

func (f *FakeAuthService) SignInWithOAuth(_ context.Context, provider, redirectURL string) (*services.OAuthRedirect, error) {
	f.mu.Lock()
	f.lastRedirect = redirectURL
	f.mu.Unlock()
	f.record("SignInWithOAuth")

	if f.RedirectErr != nil {
		return nil, f.RedirectErr
	}
	if f.Redirect != nil {
		return f.Redirect, nil
	}
	return &services.OAuthRedirect{
		URL:      "https://auth.example.com/authorize?provider=" + provider,
		Verifier: "verifier",
		State:    "state",
	}, nil
}

// ExchangeCode always emits [services.EventSignedIn] on success, like the real client.
func (f *FakeAuthService) ExchangeCode(_ context.Context, code, verifier string) (*models.Session, error) {
	f.record("ExchangeCode")
	if f.ExchangeErr != nil {
		return nil, f.ExchangeErr
	}

	session := f.ExchangeSession
	if session == nil {
		session = FakeSession("oauth-user", "oauth@example.com")
	}

	f.mu.Lock()
	f.Current = session.Clone()
	f.mu.Unlock()

	f.Push(services.EventSignedIn, session)
	return session.Clone(), nil
}

func (f *FakeAuthService) SignOut(context.Context) error {
	f.record("SignOut")
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.mu.Lock()
	f.Current = nil
	f.mu.Unlock()
	return nil
}

func (f *FakeAuthService) ResetPasswordForEmail(_ context.Context, email, redirectURL string) error {
	f.mu.Lock()
	f.lastRedirect = redirectURL
	f.mu.Unlock()
	f.record("ResetPasswordForEmail")
	return f.ResetErr
}

func (f *FakeAuthService) UpdateUser(_ context.Context, metadata map[string]any) (*models.User, error) {
	f.mu.Lock()
	f.lastMetadata = maps.Clone(metadata)
	f.mu.Unlock()
	f.record("UpdateUser")

	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}

	f.mu.Lock()
	var user models.User
	switch {
	case f.UpdatedUser != nil:
		user = f.UpdatedUser.Clone()
	case f.Current != nil:
		user = f.Current.User.MergeMetadata(metadata)
	}
	if f.Current != nil {
		f.Current.User = user.Clone()
	}
	current := f.Current.Clone()
	f.mu.Unlock()

	if f.EmitOnUpdate && current != nil {
		f.Push(services.EventUserUpdated, current)
	}
	return &user, nil
}

var _ services.AuthService = (*FakeAuthService)(nil)
