// Package session holds the per-request session state and its persistence
// in the key/value cache.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Data is the persisted part of a session.
type Data struct {
	LoginID        uint     `json:"login_id"`
	Language       string   `json:"language,omitempty"`
	Theme          string   `json:"theme,omitempty"`
	Timezone       string   `json:"timezone,omitempty"`
	CSRFToken      string   `json:"csrf_token,omitempty"`
	AdminConfirmed bool     `json:"admin_confirmed,omitempty"`
	CaptchaHash    string   `json:"captcha_hash,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

// Session is the mutable state of one visitor, owned by a single request.
type Session struct {
	id   string
	data Data
	// boundTo is the login the current id was handed out for.
	boundTo uint
}

// New wraps existing data under the given id.
func New(id string, data Data) *Session {
	return &Session{id: id, data: data, boundTo: data.LoginID}
}

// ID returns the store key of the session.
func (s *Session) ID() string { return s.id }

// Rotate moves the session to a fresh id when its login changed since the id
// was handed out, so an id known before login or logout stops working. It
// returns the replaced id, or "" when the id stays.
func (s *Session) Rotate() string {
	if s.data.LoginID == s.boundTo {
		return ""
	}
	old := s.id
	s.id = uuid.NewString()
	s.boundTo = s.data.LoginID
	return old
}

// View returns a copy of the session data.
func (s *Session) View() Data {
	out := s.data
	out.Errors = append([]string(nil), s.data.Errors...)
	return out
}

func (s *Session) LoginID() uint { return s.data.LoginID }

// SetLoginID binds the session to a user; 0 means guest. Switching identity
// always drops the elevated admin confirmation.
func (s *Session) SetLoginID(id uint) {
	if s.data.LoginID != id {
		s.data.AdminConfirmed = false
	}
	s.data.LoginID = id
}

// SetLocale stores the display preferences of the resolved user.
func (s *Session) SetLocale(language, theme, timezone string) {
	if s.data.Language == language && s.data.Theme == theme && s.data.Timezone == timezone {
		return
	}
	s.data.Language = language
	s.data.Theme = theme
	s.data.Timezone = timezone
}

func (s *Session) AdminConfirmed() bool { return s.data.AdminConfirmed }

func (s *Session) SetAdminConfirmed(v bool) {
	s.data.AdminConfirmed = v
}

func (s *Session) CaptchaHash() string { return s.data.CaptchaHash }

func (s *Session) SetCaptchaHash(hash string) {
	s.data.CaptchaHash = hash
}

// AddError records a user-facing validation message.
func (s *Session) AddError(msg string) {
	s.data.Errors = append(s.data.Errors, msg)
}

// TakeErrors returns and clears the error bag.
func (s *Session) TakeErrors() []string {
	errs := s.data.Errors
	if len(errs) > 0 {
		s.data.Errors = nil
	}
	return errs
}

// CSRFToken returns the session's token, generating it on first use as
// 64 hex characters from crypto/rand.
func (s *Session) CSRFToken() (string, error) {
	if s.data.CSRFToken != "" {
		return s.data.CSRFToken, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	s.data.CSRFToken = hex.EncodeToString(buf)
	return s.data.CSRFToken, nil
}
