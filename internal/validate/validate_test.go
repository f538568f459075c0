package validate

import (
	"errors"
	"testing"

	"github.com/desertthunder/learnx/internal/shared"
)

func TestSignUp(t *testing.T) {
	v := New()

	tc := []struct {
		name     string
		fullName string
		email    string
		password string
		confirm  string
		fields   []string
	}{
		{name: "valid", fullName: "A", email: "a@b.com", password: "secret1", confirm: "secret1"},
		{name: "blank name", fullName: "   ", email: "a@b.com", password: "secret1", confirm: "secret1", fields: []string{"full_name"}},
		{name: "bad email", fullName: "A", email: "not-an-email", password: "secret1", confirm: "secret1", fields: []string{"email"}},
		{name: "short password", fullName: "A", email: "a@b.com", password: "12345", confirm: "12345", fields: []string{"password"}},
		{name: "mismatch", fullName: "A", email: "a@b.com", password: "secret1", confirm: "secret2", fields: []string{"confirm_password"}},
		{name: "everything empty", fields: []string{"full_name", "email", "password", "confirm_password"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.SignUp(tt.fullName, tt.email, tt.password, tt.confirm)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("expected valid input, got %v", err)
				}
				return
			}

			if !shared.IsKind(err, shared.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			got := Fields(err)
			if len(got) != len(tt.fields) {
				t.Fatalf("expected %d field errors, got %v", len(tt.fields), got)
			}
			for i, f := range tt.fields {
				if got[i].Field != f {
					t.Errorf("field %d = %s, want %s", i, got[i].Field, f)
				}
			}
		})
	}
}

func TestMessages(t *testing.T) {
	v := New()

	_, err := v.SignUp("A", "a@b.com", "secret1", "other1")
	if err.Error() != "passwords do not match" {
		t.Errorf("unexpected mismatch message %q", err.Error())
	}

	_, err = v.SignUp("A", "a@b.com", "123", "123")
	if err.Error() != "password must be at least 6 characters in length" {
		t.Errorf("unexpected length message %q", err.Error())
	}

	_, err = v.SignIn("", "")
	if err.Error() != "email is a required field; password is a required field" {
		t.Errorf("unexpected required message %q", err.Error())
	}
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Error("validation errors should match ErrInvalidInput")
	}
}

func TestOtherForms(t *testing.T) {
	v := New()

	if _, err := v.Reset("  a@b.com "); err != nil {
		t.Errorf("expected trimmed email to pass, got %v", err)
	}
	if _, err := v.Reset(""); err == nil {
		t.Error("expected reset without email to fail")
	}

	form, err := v.Profile("  Ada  ", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.FullName != "Ada" {
		t.Errorf("expected trimmed name, got %q", form.FullName)
	}
	if _, ok := form.Metadata()["avatar_url"]; ok {
		t.Error("empty avatar should not be in the patch")
	}
	patch := form.Patch("avatar_url")
	if len(patch) != 0 {
		t.Errorf("expected unset keys to be left out, got %v", patch)
	}
	withAvatar, _ := v.Profile("Ada", "https://example.com/a.png")
	if patch := withAvatar.Patch("avatar_url"); len(patch) != 1 || patch["avatar_url"] != "https://example.com/a.png" {
		t.Errorf("expected only the avatar, got %v", patch)
	}
	if _, err := v.Profile("Ada", "not a url"); err == nil {
		t.Error("expected invalid avatar URL to fail")
	}
	if _, err := v.Profile(" ", ""); err == nil {
		t.Error("expected blank name to fail")
	}

	if f, err := v.Provider("GitHub"); err != nil || f.Provider != "github" {
		t.Errorf("expected github, got %q %v", f.Provider, err)
	}
	if _, err := v.Provider("myspace"); err == nil {
		t.Error("expected unknown provider to fail")
	}
}
