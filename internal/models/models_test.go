package models

import (
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestUser(t *testing.T) {
	t.Run("DisplayName", func(t *testing.T) {
		tc := []struct {
			name string
			user User
			want string
		}{
			{name: "full name", user: User{Email: "a@b.co", UserMetadata: map[string]any{"full_name": "Ada", "name": "ada99"}}, want: "Ada"},
			{name: "provider name", user: User{Email: "a@b.co", UserMetadata: map[string]any{"name": "ada99"}}, want: "ada99"},
			{name: "blank full name", user: User{Email: "ada@b.co", UserMetadata: map[string]any{"full_name": "  "}}, want: "ada"},
			{name: "email only", user: User{Email: "ada@b.co"}, want: "ada"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := tt.user.DisplayName(); got != tt.want {
					t.Errorf("DisplayName() = %q, want %q", got, tt.want)
				}
			})
		}
	})

	t.Run("MergeMetadata", func(t *testing.T) {
		original := User{ID: "u1", UserMetadata: map[string]any{"full_name": "Ada", "avatar_url": "a.png"}}
		merged := original.MergeMetadata(map[string]any{"full_name": "Ada L."})

		if merged.UserMetadata["full_name"] != "Ada L." {
			t.Errorf("expected merged full_name, got %v", merged.UserMetadata["full_name"])
		}
		if merged.AvatarURL() != "a.png" {
			t.Errorf("expected avatar_url to be preserved, got %q", merged.AvatarURL())
		}
		if original.UserMetadata["full_name"] != "Ada" {
			t.Error("original metadata should not change")
		}
	})

	t.Run("MergeMetadata on nil map", func(t *testing.T) {
		merged := User{ID: "u1"}.MergeMetadata(map[string]any{"full_name": "Ada"})
		if merged.DisplayName() != "Ada" {
			t.Errorf("expected Ada, got %q", merged.DisplayName())
		}
	})

	t.Run("Provider", func(t *testing.T) {
		if got := (User{}).Provider(); got != "email" {
			t.Errorf("expected default provider email, got %q", got)
		}
		u := User{AppMetadata: map[string]any{"provider": "github"}}
		if got := u.Provider(); got != "github" {
			t.Errorf("expected github, got %q", got)
		}
	})
}

func TestSession(t *testing.T) {
	t.Run("Clone", func(t *testing.T) {
		s := &Session{
			Token: &oauth2.Token{AccessToken: "a"},
			User:  User{ID: "u1", UserMetadata: map[string]any{"full_name": "Ada"}},
		}
		c := s.Clone()
		c.Token.AccessToken = "b"
		c.User.UserMetadata["full_name"] = "Other"

		if s.Token.AccessToken != "a" || s.User.UserMetadata["full_name"] != "Ada" {
			t.Error("clone should not alias the original")
		}

		var nilSession *Session
		if nilSession.Clone() != nil {
			t.Error("expected nil clone of nil session")
		}
	})

	t.Run("ExpiresWithin", func(t *testing.T) {
		var nilSession *Session
		if nilSession.ExpiresWithin(time.Hour) {
			t.Error("nil session should not expire")
		}

		soon := &Session{Token: &oauth2.Token{Expiry: time.Now().Add(30 * time.Second)}}
		if !soon.ExpiresWithin(time.Minute) {
			t.Error("expected token to expire within a minute")
		}

		later := &Session{Token: &oauth2.Token{Expiry: time.Now().Add(time.Hour)}}
		if later.ExpiresWithin(time.Minute) {
			t.Error("expected token to outlive a minute")
		}

		noExpiry := &Session{Token: &oauth2.Token{AccessToken: "x"}}
		if noExpiry.ExpiresWithin(time.Hour) {
			t.Error("token without expiry should not expire")
		}
	})
}

func TestParseDifficulty(t *testing.T) {
	if d, ok := ParseDifficulty(" Advanced "); !ok || d != DifficultyAdvanced {
		t.Errorf("expected advanced, got %q %v", d, ok)
	}
	if _, ok := ParseDifficulty("expert"); ok {
		t.Error("expected unknown difficulty to fail")
	}
}
