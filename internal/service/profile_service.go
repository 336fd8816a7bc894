package service

import (
	"context"
	"fmt"
	"strings"

	"photogallery/internal/auth"
	"photogallery/internal/repository"
	"photogallery/internal/validation"
)

// ProfileUpdate is the self-service profile form. Empty fields are left unchanged.
type ProfileUpdate struct {
	RealName        string `json:"real_name" validate:"omitempty,min=2,max=64"`
	Email           string `json:"email" validate:"omitempty,email,max=255"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"omitempty,min=6,bcryptlen"`
	ConfirmPassword string `json:"confirm_password" validate:"omitempty,eqfield=NewPassword"`
	Language        string `json:"language" validate:"omitempty,max=16"`
	Theme           string `json:"theme" validate:"omitempty,max=32"`
	Timezone        string `json:"timezone" validate:"omitempty,timezone"`
}

// UpdateProfile changes the current user's own profile. Any change other
// than display preferences requires the current password.
func (m *UserManager) UpdateProfile(ctx context.Context, p ProfileUpdate) (bool, error) {
	if m.user.Guest {
		m.refuse("update_profile", 0, "guest")
		return false, nil
	}
	p.RealName = strings.TrimSpace(p.RealName)
	p.Email = strings.TrimSpace(p.Email)
	if err := m.deps.Validate.Struct(p); err != nil {
		for _, msg := range validation.Messages(err) {
			m.sess.AddError(msg)
		}
		return false, nil
	}
	if p.NewPassword != "" && p.ConfirmPassword != p.NewPassword {
		m.sess.AddError("new password confirmation does not match")
		return false, nil
	}

	user, err := m.deps.Users.FindByID(ctx, m.user.ID)
	if err != nil {
		return false, fmt.Errorf("load user %d: %w", m.user.ID, err)
	}

	fields := map[string]any{}
	sensitive := false
	if p.RealName != "" && p.RealName != user.RealName {
		fields["real_name"] = p.RealName
		sensitive = true
	}
	if p.Email != "" && p.Email != user.Email {
		fields["email"] = p.Email
		sensitive = true
	}
	if p.NewPassword != "" {
		hash, err := auth.HashPassword(p.NewPassword)
		if err != nil {
			return false, err
		}
		fields["password"] = hash
		sensitive = true
	}
	if sensitive && auth.VerifyPassword(user.Password, p.CurrentPassword) == auth.NoMatch {
		m.sess.AddError("current password is wrong")
		return false, nil
	}

	checks := []struct {
		key   string
		field repository.UserField
		msg   string
	}{
		{"real_name", repository.FieldRealName, "real name is already taken"},
		{"email", repository.FieldEmail, "email is already registered"},
	}
	for _, c := range checks {
		value, ok := fields[c.key].(string)
		if !ok {
			continue
		}
		count, err := m.deps.Users.CountByField(ctx, c.field, value)
		if err != nil {
			return false, fmt.Errorf("check %s uniqueness: %w", c.field, err)
		}
		if count > 0 {
			m.sess.AddError(c.msg)
			return false, nil
		}
	}

	if p.Language != "" {
		fields["language"] = p.Language
	}
	if p.Theme != "" {
		fields["theme"] = p.Theme
	}
	if p.Timezone != "" {
		fields["timezone"] = p.Timezone
	}
	if len(fields) == 0 {
		return true, nil
	}
	if err := m.deps.Users.Update(ctx, user.ID, fields); err != nil {
		return false, fmt.Errorf("update profile of user %d: %w", user.ID, err)
	}
	if err := m.loadUser(ctx, user.ID); err != nil {
		return false, err
	}
	return true, nil
}
