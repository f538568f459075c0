package validate

import "strings"

// SignUpForm is the account creation input.
type SignUpForm struct {
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// SignInForm is the email and password sign-in input.
type SignInForm struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ResetForm is the password recovery input.
type ResetForm struct {
	Email string `json:"email" validate:"required,email"`
}

// ProfileForm is the editable profile metadata.
type ProfileForm struct {
	FullName  string `json:"full_name" validate:"required"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

// Metadata returns the user_metadata patch for the form. An empty avatar is left untouched.
func (f ProfileForm) Metadata() map[string]any {
	patch := map[string]any{"full_name": f.FullName}
	if f.AvatarURL != "" {
		patch["avatar_url"] = f.AvatarURL
	}
	return patch
}

// Patch returns the subset of [ProfileForm.Metadata] named by keys.
func (f ProfileForm) Patch(keys ...string) map[string]any {
	all := f.Metadata()
	patch := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			patch[k] = v
		}
	}
	return patch
}

// ProviderForm selects an OAuth provider.
type ProviderForm struct {
	Provider string `json:"provider" validate:"required,oneof=github google"`
}

// SignUp trims and validates sign-up input. Passwords are never trimmed.
func (v *Validator) SignUp(fullName, email, password, confirm string) (SignUpForm, error) {
	f := SignUpForm{
		FullName:        strings.TrimSpace(fullName),
		Email:           strings.TrimSpace(email),
		Password:        password,
		ConfirmPassword: confirm,
	}
	return f, v.Struct(f)
}

func (v *Validator) SignIn(email, password string) (SignInForm, error) {
	f := SignInForm{Email: strings.TrimSpace(email), Password: password}
	return f, v.Struct(f)
}

func (v *Validator) Reset(email string) (ResetForm, error) {
	f := ResetForm{Email: strings.TrimSpace(email)}
	return f, v.Struct(f)
}

func (v *Validator) Profile(fullName, avatarURL string) (ProfileForm, error) {
	f := ProfileForm{FullName: strings.TrimSpace(fullName), AvatarURL: strings.TrimSpace(avatarURL)}
	return f, v.Struct(f)
}

func (v *Validator) Provider(provider string) (ProviderForm, error) {
	f := ProviderForm{Provider: strings.ToLower(strings.TrimSpace(provider))}
	return f, v.Struct(f)
}
