package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"photogallery/internal/auth"
	apperrors "photogallery/internal/errors"
	"photogallery/internal/model"
	"photogallery/internal/repository"
	"photogallery/internal/validation"
)

// Registration is the sign-up form.
type Registration struct {
	Login           string `json:"login" validate:"required,login"`
	Password        string `json:"password" validate:"required,min=6,bcryptlen"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Email           string `json:"email" validate:"required,email,max=255"`
	RealName        string `json:"real_name" validate:"required,min=2,max=64"`
	Captcha         string `json:"captcha" validate:"required"`
}

// LoginStatus is the outcome class of a login attempt.
type LoginStatus int

const (
	// LoginOK means the session is now bound to the user.
	LoginOK LoginStatus = iota
	// LoginFailed means the credentials were rejected.
	LoginFailed
	// LoginRedirect means the account cannot sign in and the caller should
	// send the visitor elsewhere.
	LoginRedirect
)

// LoginResult is the tagged outcome of Login.
type LoginResult struct {
	Status LoginStatus
	UserID uint
	Reason string
}

const loginFailedMessage = "invalid login or password"

// IssueCaptcha stores the hash of a fresh arithmetic challenge in the
// session and returns the question to display.
func (m *UserManager) IssueCaptcha() (string, error) {
	a, b := rand.Intn(10)+1, rand.Intn(10)+1
	hash, err := auth.HashPassword(strconv.Itoa(a + b))
	if err != nil {
		return "", fmt.Errorf("issue captcha: %w", err)
	}
	m.sess.SetCaptchaHash(hash)
	return fmt.Sprintf("%d + %d", a, b), nil
}

// Register creates an account pre-filled with the default group's rights.
// It returns the new id, or 0 with messages in the session error bag when
// the form is rejected.
func (m *UserManager) Register(ctx context.Context, r Registration) (uint, error) {
	if !m.user.Guest {
		m.sess.AddError("already signed in")
		return 0, nil
	}
	r.Login = strings.TrimSpace(r.Login)
	r.Email = strings.TrimSpace(r.Email)
	r.RealName = strings.TrimSpace(r.RealName)

	valid := true
	if err := m.deps.Validate.Struct(r); err != nil {
		for _, msg := range validation.Messages(err) {
			m.sess.AddError(msg)
		}
		valid = false
	}
	captchaHash := m.sess.CaptchaHash()
	m.sess.SetCaptchaHash("")
	if !auth.CheckHash(captchaHash, strings.TrimSpace(r.Captcha)) {
		m.sess.AddError("captcha answer is wrong")
		valid = false
	}
	if !valid {
		return 0, nil
	}

	unique := []struct {
		field repository.UserField
		value string
		msg   string
	}{
		{repository.FieldLogin, r.Login, "login is already taken"},
		{repository.FieldEmail, r.Email, "email is already registered"},
		{repository.FieldRealName, r.RealName, "real name is already taken"},
	}
	for _, u := range unique {
		count, err := m.deps.Users.CountByField(ctx, u.field, u.value)
		if err != nil {
			return 0, fmt.Errorf("check %s uniqueness: %w", u.field, err)
		}
		if count > 0 {
			m.sess.AddError(u.msg)
			valid = false
		}
	}
	if !valid {
		return 0, nil
	}

	group, err := m.deps.Groups.FindByID(ctx, m.deps.Policy.DefaultID)
	if err != nil {
		return 0, fmt.Errorf("load default group: %w", err)
	}
	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return 0, err
	}
	now := m.deps.Now()
	view := m.sess.View()
	user := &model.User{
		Login:        r.Login,
		Password:     hash,
		Email:        r.Email,
		RealName:     r.RealName,
		RegDate:      now,
		LastActivity: now,
		Avatar:       m.deps.DefaultAvatar,
		Language:     view.Language,
		Theme:        view.Theme,
		Timezone:     view.Timezone,
		GroupID:      group.ID,
		UserRights:   group.UserRights,
	}
	if err := m.deps.Users.Create(ctx, user); err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	m.deps.Log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("login", user.Login))
	return user.ID, nil
}

// Login authenticates by login and password. A soft-deleted account inside
// its restore window is restored; a legacy password digest is upgraded.
func (m *UserManager) Login(ctx context.Context, login, password string) (LoginResult, error) {
	login = strings.TrimSpace(login)
	if !validation.IsLogin(login) || password == "" {
		m.sess.AddError(loginFailedMessage)
		return LoginResult{Status: LoginFailed, Reason: "malformed credentials"}, nil
	}

	user, err := m.deps.Users.FindByLogin(ctx, login)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		m.sess.AddError(loginFailedMessage)
		return LoginResult{Status: LoginRedirect, Reason: "unknown login"}, nil
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user by login: %w", err)
	}
	if user.PermanentlyDeleted {
		return LoginResult{Status: LoginRedirect, Reason: "account deleted"}, nil
	}
	now := m.deps.Now()
	if user.RetentionExpired(now, m.deps.Policy.SoftDeleteRetention) {
		return LoginResult{Status: LoginRedirect, Reason: "account deleted"}, nil
	}

	match := auth.VerifyPassword(user.Password, password)
	if match == auth.NoMatch {
		m.sess.AddError(loginFailedMessage)
		return LoginResult{Status: LoginFailed, Reason: "wrong password"}, nil
	}

	fields := map[string]any{}
	if user.DeletedAt != nil {
		fields["deleted_at"] = nil
		m.deps.Log.Info("soft-deleted account restored by login", zap.Uint("user_id", user.ID))
	}
	if match == auth.LegacyMatch {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return LoginResult{}, err
		}
		fields["password"] = hash
		m.deps.Log.Info("legacy password hash upgraded", zap.Uint("user_id", user.ID))
	}
	if len(fields) > 0 {
		if err := m.deps.Users.Update(ctx, user.ID, fields); err != nil {
			return LoginResult{}, fmt.Errorf("update user %d on login: %w", user.ID, err)
		}
	}

	m.sess.SetLoginID(user.ID)
	if err := m.loadUser(ctx, user.ID); err != nil {
		return LoginResult{}, err
	}
	if m.user.Guest {
		return LoginResult{Status: LoginRedirect, Reason: "account unavailable"}, nil
	}
	return LoginResult{Status: LoginOK, UserID: user.ID}, nil
}

// Logout returns the session to the guest.
func (m *UserManager) Logout(ctx context.Context) error {
	m.sess.SetLoginID(0)
	m.sess.SetAdminConfirmed(false)
	return m.loadGuest(ctx)
}

// ConfirmAdmin re-checks the password of an administrator and marks the
// session as confirmed for destructive actions.
func (m *UserManager) ConfirmAdmin(ctx context.Context, password string) (bool, error) {
	if !m.IsAdmin() {
		m.refuse("confirm_admin", m.user.ID, "actor is not an administrator")
		return false, nil
	}
	user, err := m.deps.Users.FindByID(ctx, m.user.ID)
	if err != nil {
		return false, fmt.Errorf("load admin %d: %w", m.user.ID, err)
	}
	if auth.VerifyPassword(user.Password, password) == auth.NoMatch {
		m.sess.AddError(loginFailedMessage)
		return false, nil
	}
	m.sess.SetAdminConfirmed(true)
	return true, nil
}
