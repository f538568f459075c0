package store

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/services"
	"github.com/desertthunder/learnx/internal/shared"
)

// SessionState is the session store's owned value.
//
// User and Session are either both set or both nil.
type SessionState struct {
	User      *models.User
	Session   *models.Session
	IsLoading bool
	LastError string
	// Version increases with every committed change. Observers may be notified out of
	// order, so they should drop a state older than one already seen.
	Version uint64
}

func (s SessionState) clone() SessionState {
	if s.User != nil {
		u := s.User.Clone()
		s.User = &u
	}
	s.Session = s.Session.Clone()
	return s
}

// Authenticated reports whether a user is signed in.
func (s SessionState) Authenticated() bool {
	return s.User != nil
}

type persistedSession struct {
	User    *models.User    `json:"user"`
	Session *models.Session `json:"session"`
}

type reducer func(SessionState) SessionState

func withSession(session *models.Session) reducer {
	return func(s SessionState) SessionState {
		if session == nil {
			s.User, s.Session = nil, nil
			return s
		}
		s.Session = session.Clone()
		u := session.User.Clone()
		s.User = &u
		return s
	}
}

func withLoading(loading bool) reducer {
	return func(s SessionState) SessionState {
		s.IsLoading = loading
		return s
	}
}

func withError(message string) reducer {
	return func(s SessionState) SessionState {
		s.LastError = message
		return s
	}
}

func withMergedMetadata(patch map[string]any) reducer {
	return func(s SessionState) SessionState {
		if s.User == nil {
			return s
		}
		merged := s.User.MergeMetadata(patch)
		s.User = &merged
		if s.Session != nil {
			s.Session.User = merged.Clone()
		}
		return s
	}
}

func compose(rs ...reducer) reducer {
	return func(s SessionState) SessionState {
		for _, r := range rs {
			s = r(s)
		}
		return s
	}
}

// SessionOptions carries the redirect targets handed to the auth service.
type SessionOptions struct {
	OAuthRedirectURL string
	ResetRedirectURL string
}

// SessionStore is the single authority on who is signed in.
type SessionStore struct {
	auth    services.AuthService
	storage Storage
	logger  *log.Logger
	opts    SessionOptions

	mu        sync.Mutex
	state     SessionState
	persisted string
	observers map[int]func(SessionState)
	nextObs   int

	subscribeOnce sync.Once
	unsubscribe   func()
}

// NewSessionStore creates a store in the loading state and rehydrates any persisted session.
//
// A rehydrated session is also handed to the auth service so Bootstrap can validate or refresh it.
func NewSessionStore(auth services.AuthService, storage Storage, logger *log.Logger, opts SessionOptions) *SessionStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &SessionStore{
		auth:      auth,
		storage:   storage,
		logger:    shared.WithLogger(logger, "store", "session"),
		opts:      opts,
		state:     SessionState{IsLoading: true},
		observers: make(map[int]func(SessionState)),
	}
	s.rehydrate()
	return s
}

func (s *SessionStore) rehydrate() {
	var p persistedSession
	if err := loadState(s.storage, SessionKey, &p); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("ignoring persisted session", "error", err)
		}
		return
	}
	if p.User == nil || p.Session == nil {
		return
	}

	p.Session.User = p.User.Clone()
	s.state = withSession(p.Session)(s.state)
	if data, err := encodeState(p); err == nil {
		s.persisted = string(data)
	}
	s.auth.RestoreSession(p.Session)
}

// apply commits r, persists the user/session subset when it changed, then notifies observers.
func (s *SessionStore) apply(r reducer) SessionState {
	s.mu.Lock()
	version := s.state.Version + 1
	s.state = r(s.state.clone())
	s.state.Version = version
	snapshot := s.state.clone()
	s.persist(snapshot)

	fns := make([]func(SessionState), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot.clone())
	}
	return snapshot
}

// persist must be called with mu held.
func (s *SessionStore) persist(state SessionState) {
	data, err := encodeState(persistedSession{User: state.User, Session: state.Session})
	if err != nil {
		s.logger.Error("failed to encode session", "error", err)
		return
	}
	if string(data) == s.persisted {
		return
	}

	if err := s.storage.Set(SessionKey, data); err != nil {
		s.logger.Error("failed to persist session", "error", err)
		return
	}
	s.persisted = string(data)
}

func (s *SessionStore) begin(clearError bool) {
	if clearError {
		s.apply(compose(withLoading(true), withError("")))
		return
	}
	s.apply(withLoading(true))
}

func (s *SessionStore) finish() {
	s.apply(withLoading(false))
}

// fail records the display message of err and returns it normalized.
func (s *SessionStore) fail(op string, err error) error {
	authErr := shared.AsAuthError(err)
	s.logger.Warn("auth operation failed", "op", op, "kind", authErr.Kind, "error", authErr.Message)
	s.apply(withError(authErr.Message))
	return authErr
}

func (s *SessionStore) handleEvent(e services.AuthEvent) {
	s.logger.Debug("session event", "kind", e.Kind)
	session := e.Session
	if e.Kind == services.EventSignedOut {
		session = nil
	}
	s.apply(compose(withSession(session), withLoading(false)))
}

// Bootstrap restores the remote session once and registers the push subscription.
//
// Repeated calls refetch the session but never subscribe twice. An unauthorized failure
// clears the session; other failures keep state and set LastError.
func (s *SessionStore) Bootstrap(ctx context.Context) error {
	s.subscribeOnce.Do(func() {
		unsubscribe := s.auth.Subscribe(s.handleEvent)
		s.mu.Lock()
		s.unsubscribe = unsubscribe
		s.mu.Unlock()
	})

	s.begin(false)
	defer s.finish()

	session, err := s.auth.GetSession(ctx)
	if err != nil {
		if shared.IsKind(err, shared.KindUnauthorized) {
			s.apply(withSession(nil))
		}
		return s.fail("bootstrap", err)
	}

	s.apply(withSession(session))
	return nil
}

// Close removes the push subscription.
func (s *SessionStore) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// SignUp creates an account with full_name metadata.
//
// Success does not imply a session: the service may require email confirmation first.
func (s *SessionStore) SignUp(ctx context.Context, email, password, displayName string) error {
	s.begin(true)
	defer s.finish()

	result, err := s.auth.SignUp(ctx, email, password, map[string]any{models.MetaFullName: displayName})
	if err != nil {
		return s.fail("sign up", err)
	}
	if result != nil && result.Session != nil {
		s.apply(withSession(result.Session))
	}
	return nil
}

// SignIn authenticates with email and password.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) error {
	s.begin(true)
	defer s.finish()

	session, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return s.fail("sign in", err)
	}
	s.apply(withSession(session))
	return nil
}

// SignInWithProvider starts a provider sign-in and returns where to send the user.
func (s *SessionStore) SignInWithProvider(ctx context.Context, provider string) (*services.OAuthRedirect, error) {
	s.begin(true)
	defer s.finish()

	redirect, err := s.auth.SignInWithOAuth(ctx, provider, s.opts.OAuthRedirectURL)
	if err != nil {
		return nil, s.fail("provider sign in", err)
	}
	return redirect, nil
}

// CompleteProviderSignIn exchanges the callback code. The session itself arrives on the push channel.
func (s *SessionStore) CompleteProviderSignIn(ctx context.Context, code, verifier string) error {
	s.begin(true)
	defer s.finish()

	if _, err := s.auth.ExchangeCode(ctx, code, verifier); err != nil {
		return s.fail("provider callback", err)
	}
	return nil
}

// SignOut ends the session. The local session is only cleared when the service agrees.
func (s *SessionStore) SignOut(ctx context.Context) error {
	s.begin(false)
	defer s.finish()

	if err := s.auth.SignOut(ctx); err != nil {
		return s.fail("sign out", err)
	}
	s.apply(withSession(nil))
	return nil
}

// ResetPassword sends a recovery email. It never touches the signed in user.
func (s *SessionStore) ResetPassword(ctx context.Context, email string) error {
	s.begin(true)
	defer s.finish()

	if err := s.auth.ResetPasswordForEmail(ctx, email, s.opts.ResetRedirectURL); err != nil {
		return s.fail("reset password", err)
	}
	return nil
}

// UpdateProfile stores metadata remotely and shallow-merges it into the local user right away.
func (s *SessionStore) UpdateProfile(ctx context.Context, patch map[string]any) error {
	s.begin(true)
	defer s.finish()

	if _, err := s.auth.UpdateUser(ctx, patch); err != nil {
		return s.fail("update profile", err)
	}
	s.apply(withMergedMetadata(patch))
	return nil
}

// Snapshot returns a copy of the current state.
func (s *SessionStore) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// User returns the signed in user or nil.
func (s *SessionStore) User() *models.User {
	return s.Snapshot().User
}

func (s *SessionStore) IsLoading() bool {
	return s.Snapshot().IsLoading
}

func (s *SessionStore) LastError() string {
	return s.Snapshot().LastError
}

func (s *SessionStore) ClearError() {
	s.apply(withError(""))
}

// Subscribe registers fn for every committed state and returns a function that removes it.
func (s *SessionStore) Subscribe(fn func(SessionState)) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}
