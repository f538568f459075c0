// GoTrue implementation of [AuthService]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	authPath               = "/auth/v1"
	defaultRefreshMargin   = time.Minute
	defaultRefreshInterval = 30 * time.Second
)

// SupportedProviders lists the OAuth providers enabled for the project.
var SupportedProviders = []string{"github", "google"}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

func (r tokenResponse) session() *models.Session {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
	}
	switch {
	case r.ExpiresAt > 0:
		tok.Expiry = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		tok.Expiry = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return &models.Session{Token: tok, User: r.User}
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// GoTrueService implements [AuthService] against a GoTrue compatible HTTP API.
type GoTrueService struct {
	baseURL         string
	anonKey         string
	siteURL         string
	refreshMargin   time.Duration
	refreshInterval time.Duration
	httpClient      *http.Client
	limiter         *rate.Limiter
	logger          *log.Logger

	mu          sync.Mutex
	session     *models.Session
	initialSent bool
	subs        map[int]func(AuthEvent)
	nextSub     int
}

// NewGoTrueService creates a client for the project described by cfg.
//
// A nil client gets one with cfg.Timeout. A nil logger writes to stderr.
func NewGoTrueService(cfg shared.AuthConfig, client *http.Client, logger *log.Logger) (*GoTrueService, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: auth.url is required", shared.ErrMissingConfig)
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("%w: auth.anon_key is required", shared.ErrMissingConfig)
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("%w: auth.url: %v", shared.ErrInvalidConfig, err)
	}

	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	margin := cfg.RefreshMargin
	if margin <= 0 {
		margin = defaultRefreshMargin
	}
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	return &GoTrueService{
		baseURL:         strings.TrimRight(cfg.URL, "/") + authPath,
		anonKey:         cfg.AnonKey,
		siteURL:         cfg.SiteURL,
		refreshMargin:   margin,
		refreshInterval: interval,
		httpClient:      client,
		limiter:         rate.NewLimiter(limit, 1),
		logger:          shared.WithLogger(logger, "service", "gotrue"),
		subs:            make(map[int]func(AuthEvent)),
	}, nil
}

// Subscribe registers fn for push events.
func (s *GoTrueService) Subscribe(fn func(AuthEvent)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// RestoreSession seeds the held session without emitting events.
func (s *GoTrueService) RestoreSession(session *models.Session) {
	s.mu.Lock()
	s.session = session.Clone()
	s.mu.Unlock()
}

// CurrentSession returns a copy of the held session without touching the network.
func (s *GoTrueService) CurrentSession() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// GetSession returns the held session, refreshing it first when it expires within the refresh margin.
//
// The first call also emits [EventInitialSession].
func (s *GoTrueService) GetSession(ctx context.Context) (*models.Session, error) {
	current := s.CurrentSession()

	if current != nil && current.ExpiresWithin(s.refreshMargin) {
		refreshed, err := s.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		current = refreshed
	}

	s.mu.Lock()
	first := !s.initialSent
	s.initialSent = true
	s.mu.Unlock()

	if first {
		s.emit(EventInitialSession, current)
	}
	return current, nil
}

// SignUp creates an account. A session is returned only when the project auto-confirms emails.
func (s *GoTrueService) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error) {
	payload := map[string]any{"email": email, "password": password, "data": metadata}

	var query url.Values
	if s.siteURL != "" {
		query = url.Values{"redirect_to": {s.siteURL}}
	}

	var raw json.RawMessage
	if err := s.do(ctx, http.MethodPost, "/signup", query, payload, "", &raw); err != nil {
		return nil, err
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, decodeError(err)
	}
	if tr.AccessToken != "" {
		session := tr.session()
		s.setSession(session, EventSignedIn)
		return &SignUpResult{User: session.User.Clone(), Session: session.Clone()}, nil
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, decodeError(err)
	}
	return &SignUpResult{User: user}, nil
}

// SignInWithPassword exchanges email and password for a session and emits [EventSignedIn].
func (s *GoTrueService) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	payload := map[string]string{"email": email, "password": password}
	return s.grant(ctx, "password", payload, EventSignedIn)
}

// SignInWithOAuth builds a PKCE authorize URL for provider. The state is appended to redirectURL.
func (s *GoTrueService) SignInWithOAuth(_ context.Context, provider, redirectURL string) (*OAuthRedirect, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !isSupportedProvider(provider) {
		return nil, shared.NewAuthError(shared.KindValidation,
			fmt.Sprintf("unsupported provider %q (supported: %s)", provider, strings.Join(SupportedProviders, ", ")), nil)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, shared.AsAuthError(err)
	}

	redirect, err := url.Parse(redirectURL)
	if err != nil || redirect.Scheme == "" {
		return nil, shared.NewAuthError(shared.KindValidation, "invalid redirect URL", err)
	}
	rq := redirect.Query()
	rq.Set("state", state)
	redirect.RawQuery = rq.Encode()

	verifier := oauth2.GenerateVerifier()
	q := url.Values{
		"provider":              {provider},
		"redirect_to":           {redirect.String()},
		"code_challenge":        {oauth2.S256ChallengeFromVerifier(verifier)},
		"code_challenge_method": {"s256"},
	}

	return &OAuthRedirect{
		URL:      s.baseURL + "/authorize?" + q.Encode(),
		Verifier: verifier,
		State:    state,
	}, nil
}

// ExchangeCode completes a PKCE provider sign-in and emits [EventSignedIn].
func (s *GoTrueService) ExchangeCode(ctx context.Context, code, verifier string) (*models.Session, error) {
	if code == "" || verifier == "" {
		return nil, shared.NewAuthError(shared.KindValidation, "authorization code and verifier are required", nil)
	}
	payload := map[string]string{"auth_code": code, "code_verifier": verifier}
	return s.grant(ctx, "pkce", payload, EventSignedIn)
}

// Refresh trades the held refresh token for a new session and emits [EventTokenRefreshed].
//
// When the server rejects the refresh token the session is dropped and [EventSignedOut] is emitted.
func (s *GoTrueService) Refresh(ctx context.Context) (*models.Session, error) {
	current := s.CurrentSession()
	if current == nil || current.Token == nil || current.Token.RefreshToken == "" {
		return nil, shared.NewAuthError(shared.KindUnauthorized, "no refresh token available", shared.ErrNoRefreshToken)
	}

	payload := map[string]string{"refresh_token": current.Token.RefreshToken}
	session, err := s.grant(ctx, "refresh_token", payload, EventTokenRefreshed)
	if err != nil {
		if shared.IsKind(err, shared.KindUnauthorized) {
			s.logger.Warn("refresh token rejected, signing out", "error", err)
			s.setSession(nil, EventSignedOut)
		}
		return nil, err
	}
	return session, nil
}

// StartAutoRefresh refreshes the held session in the background until ctx is cancelled.
func (s *GoTrueService) StartAutoRefresh(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current := s.CurrentSession()
				if current == nil || !current.ExpiresWithin(s.refreshMargin) {
					continue
				}
				if _, err := s.Refresh(ctx); err != nil {
					s.logger.Error("auto refresh failed", "error", err)
				}
			}
		}
	}()
}

// SignOut revokes the session server side and clears it locally.
//
// A token the server no longer accepts is treated as already signed out.
func (s *GoTrueService) SignOut(ctx context.Context) error {
	token := s.CurrentSession().AccessToken()
	if token != "" {
		err := s.do(ctx, http.MethodPost, "/logout", nil, nil, token, nil)
		if err != nil && !shared.IsKind(err, shared.KindUnauthorized) {
			return err
		}
	}

	s.setSession(nil, EventSignedOut)
	return nil
}

// ResetPasswordForEmail sends a recovery email linking back to redirectURL.
func (s *GoTrueService) ResetPasswordForEmail(ctx context.Context, email, redirectURL string) error {
	var query url.Values
	if redirectURL != "" {
		query = url.Values{"redirect_to": {redirectURL}}
	}
	return s.do(ctx, http.MethodPost, "/recover", query, map[string]string{"email": email}, "", nil)
}

// UpdateUser replaces metadata keys server side and emits [EventUserUpdated].
func (s *GoTrueService) UpdateUser(ctx context.Context, metadata map[string]any) (*models.User, error) {
	current := s.CurrentSession()
	if current.AccessToken() == "" {
		return nil, shared.NewAuthError(shared.KindUnauthorized, "you must be signed in to update your profile", shared.ErrNotAuthenticated)
	}

	var user models.User
	if err := s.do(ctx, http.MethodPut, "/user", nil, map[string]any{"data": metadata}, current.AccessToken(), &user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	var updated *models.Session
	if s.session != nil {
		s.session.User = user.Clone()
		updated = s.session.Clone()
	}
	s.mu.Unlock()

	if updated != nil {
		s.emit(EventUserUpdated, updated)
	}
	return &user, nil
}

func (s *GoTrueService) grant(ctx context.Context, grantType string, payload any, event AuthEventKind) (*models.Session, error) {
	var tr tokenResponse
	query := url.Values{"grant_type": {grantType}}
	if err := s.do(ctx, http.MethodPost, "/token", query, payload, "", &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, shared.NewAuthError(shared.KindUnknown, "authentication service returned no session", shared.ErrAuthFailed)
	}

	session := tr.session()
	s.setSession(session, event)
	return session.Clone(), nil
}

func (s *GoTrueService) setSession(session *models.Session, event AuthEventKind) {
	s.mu.Lock()
	s.session = session.Clone()
	s.mu.Unlock()
	s.emit(event, session)
}

// emit calls subscribers outside the lock, each with its own copy of the session.
func (s *GoTrueService) emit(kind AuthEventKind, session *models.Session) {
	s.mu.Lock()
	fns := make([]func(AuthEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("auth event", "kind", kind, "subscribers", len(fns))
	for _, fn := range fns {
		fn(AuthEvent{Kind: kind, Session: session.Clone()})
	}
}

// do performs a throttled request against the auth API and decodes a JSON result.
//
// An empty bearer authenticates with the anon key.
func (s *GoTrueService) do(ctx context.Context, method, endpoint string, query url.Values, body any, bearer string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return shared.AsAuthError(err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return shared.NewAuthError(shared.KindUnknown, "failed to encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	fullURL := s.baseURL + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return shared.NewAuthError(shared.KindUnknown, "failed to create request", err)
	}

	if bearer == "" {
		bearer = s.anonKey
	}
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		authErr := shared.AsAuthError(err)
		if authErr.Kind == shared.KindUnknown {
			authErr = shared.NewAuthError(shared.KindNetwork, "unable to reach the authentication service", err)
		}
		return authErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.NewAuthError(shared.KindNetwork, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		authErr := normalizeError(resp.StatusCode, data)
		s.logger.Debug("auth request failed", "method", method, "endpoint", endpoint, "status", resp.StatusCode, "kind", authErr.Kind)
		return authErr
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return decodeError(err)
		}
	}
	return nil
}

// normalizeError maps a non-2xx response onto the [shared.ErrorKind] taxonomy.
func normalizeError(status int, body []byte) *shared.AuthError {
	var er errorResponse
	_ = json.Unmarshal(body, &er)

	message := firstNonEmpty(er.ErrorDescription, er.Msg, er.Message, er.Error, http.StatusText(status))
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}

	kind := shared.KindUnknown
	switch {
	case er.Error == "invalid_grant" || er.ErrorCode == "invalid_credentials":
		kind = shared.KindUnauthorized
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = shared.KindValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = shared.KindUnauthorized
	case status == http.StatusTooManyRequests || status >= 500:
		kind = shared.KindNetwork
	}

	return &shared.AuthError{
		Kind:    kind,
		Message: message,
		Status:  status,
		Cause:   fmt.Errorf("%w: status %d", shared.ErrAPIRequest, status),
	}
}

func decodeError(err error) *shared.AuthError {
	return shared.NewAuthError(shared.KindUnknown, "unexpected response from the authentication service", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func isSupportedProvider(provider string) bool {
	for _, p := range SupportedProviders {
		if p == provider {
			return true
		}
	}
	return false
}
