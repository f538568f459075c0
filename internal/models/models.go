package models

import (
	"maps"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Metadata keys written to [User.UserMetadata].
const (
	MetaFullName  = "full_name"
	MetaAvatarURL = "avatar_url"
	MetaName      = "name"
)

// User is the account record returned by the auth service.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at,omitempty"`
}

// DisplayName prefers full_name, then name, then the local part of the email.
func (u User) DisplayName() string {
	for _, key := range []string{MetaFullName, MetaName} {
		if v, ok := u.UserMetadata[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok {
		return local
	}
	return u.Email
}

// AvatarURL returns the avatar_url metadata entry, if any.
func (u User) AvatarURL() string {
	v, _ := u.UserMetadata[MetaAvatarURL].(string)
	return v
}

// Provider returns the sign-in provider recorded by the auth service ("email", "github", ...).
func (u User) Provider() string {
	v, _ := u.AppMetadata["provider"].(string)
	if v == "" {
		return "email"
	}
	return v
}

// Clone returns a copy whose metadata maps are not shared with u.
func (u User) Clone() User {
	u.AppMetadata = maps.Clone(u.AppMetadata)
	u.UserMetadata = maps.Clone(u.UserMetadata)
	return u
}

// MergeMetadata returns a copy of u with patch shallow-merged into UserMetadata.
func (u User) MergeMetadata(patch map[string]any) User {
	out := u.Clone()
	if out.UserMetadata == nil {
		out.UserMetadata = make(map[string]any, len(patch))
	}
	maps.Copy(out.UserMetadata, patch)
	return out
}

// Session is the credential issued by the auth service. The token is opaque to everything but the client.
type Session struct {
	Token *oauth2.Token `json:"token"`
	User  User          `json:"user"`
}

// Clone deep-copies the session so held state is never aliased.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{User: s.User.Clone()}
	if s.Token != nil {
		tok := *s.Token
		out.Token = &tok
	}
	return out
}

// AccessToken returns the bearer token or an empty string.
func (s *Session) AccessToken() string {
	if s == nil || s.Token == nil {
		return ""
	}
	return s.Token.AccessToken
}

// ExpiresWithin reports whether the token expires inside d. Tokens without an expiry never do.
func (s *Session) ExpiresWithin(d time.Duration) bool {
	if s == nil || s.Token == nil || s.Token.Expiry.IsZero() {
		return false
	}
	return time.Until(s.Token.Expiry) <= d
}
