package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"photogallery/internal/config"
	apperrors "photogallery/internal/errors"
	"photogallery/internal/model"
	"photogallery/internal/repository"
	"photogallery/internal/rights"
	"photogallery/internal/session"
	"photogallery/internal/validation"
)

// RightAdmin is the permission flag granting administrative actions.
const RightAdmin = "admin"

// ContentDeleter removes a user's uploads during account anonymization.
type ContentDeleter interface {
	PersonalPhotoIDs(ctx context.Context, userID uint) ([]uint, error)
	DeletePhoto(ctx context.Context, id uint) (bool, error)
}

// UserDeps bundles the collaborators of a UserManager.
type UserDeps struct {
	Users         repository.UserRepository
	Groups        repository.GroupRepository
	Content       ContentDeleter
	Policy        config.Groups
	DefaultAvatar string
	Log           *zap.Logger
	Validate      *validator.Validate
	// Now defaults to time.Now.
	Now func() time.Time
}

// UserView is an immutable snapshot of the current actor.
type UserView struct {
	ID        uint       `json:"id"`
	Guest     bool       `json:"guest"`
	Login     string     `json:"login,omitempty"`
	Email     string     `json:"email,omitempty"`
	RealName  string     `json:"real_name,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
	Language  string     `json:"language,omitempty"`
	Theme     string     `json:"theme,omitempty"`
	Timezone  string     `json:"timezone,omitempty"`
	GroupID   uint       `json:"group_id"`
	GroupName string     `json:"group_name"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Rights    rights.Set `json:"rights"`
}

// UserManager resolves the actor of one request and performs account
// lifecycle operations on its behalf. It is not safe for concurrent use.
type UserManager struct {
	deps    UserDeps
	sess    *session.Session
	catalog rights.Catalog
	user    UserView
}

// NewUserManager samples the rights catalog and resolves the actor bound
// to sess: login id 0 loads the guest, anything else the stored user.
func NewUserManager(ctx context.Context, deps UserDeps, sess *session.Session) (*UserManager, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Validate == nil {
		deps.Validate = validation.New()
	}
	m := &UserManager{deps: deps, sess: sess}

	if err := m.buildCatalog(ctx); err != nil {
		return nil, err
	}
	if sess.LoginID() == 0 {
		if err := m.loadGuest(ctx); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err := m.loadUser(ctx, sess.LoginID()); err != nil {
		return nil, err
	}
	return m, nil
}

// User returns a snapshot of the current actor.
func (m *UserManager) User() UserView {
	out := m.user
	out.Rights = m.user.Rights.Clone()
	return out
}

// Catalog returns the known permission flags.
func (m *UserManager) Catalog() rights.Catalog {
	return m.catalog
}

// SessionView returns a snapshot of the session state.
func (m *UserManager) SessionView() session.Data {
	return m.sess.View()
}

// TakeErrors drains the validation messages collected during the request.
func (m *UserManager) TakeErrors() []string {
	return m.sess.TakeErrors()
}

// CSRFToken returns the anti-forgery token of the session.
func (m *UserManager) CSRFToken() (string, error) {
	return m.sess.CSRFToken()
}

// IsAdmin reports whether the current actor holds administrative rights.
func (m *UserManager) IsAdmin() bool {
	return !m.user.Guest && m.user.Rights.Has(RightAdmin)
}

func (m *UserManager) buildCatalog(ctx context.Context) error {
	var samples []rights.Set

	user, err := m.deps.Users.Sample(ctx)
	if err != nil {
		return fmt.Errorf("sample user rights: %w", err)
	}
	if user != nil {
		set, err := rights.Decode(user.UserRights)
		if err != nil {
			return fmt.Errorf("decode rights of user %d: %w", user.ID, err)
		}
		samples = append(samples, set)
	}

	group, err := m.deps.Groups.Sample(ctx)
	if err != nil {
		return fmt.Errorf("sample group rights: %w", err)
	}
	if group != nil {
		set, err := rights.Decode(group.UserRights)
		if err != nil {
			return fmt.Errorf("decode rights of group %d: %w", group.ID, err)
		}
		samples = append(samples, set)
	}

	m.catalog = rights.NewCatalog(samples...)
	return nil
}

// decodeRights decodes a blob and drops flags the catalog does not know.
func (m *UserManager) decodeRights(raw, owner string, id uint) (rights.Set, error) {
	set, err := rights.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode rights of %s %d: %w", owner, id, err)
	}
	filtered, unknown := m.catalog.Filter(set)
	if len(unknown) > 0 {
		m.deps.Log.Warn("ignoring unknown rights flags",
			zap.String("owner", owner), zap.Uint("id", id), zap.Strings("flags", unknown))
	}
	return filtered, nil
}

func (m *UserManager) loadGuest(ctx context.Context) error {
	group, err := m.deps.Groups.FindByID(ctx, m.deps.Policy.GuestID)
	if errors.Is(err, apperrors.ErrGroupNotFound) {
		return fmt.Errorf("%w: id %d", apperrors.ErrGuestGroupMissing, m.deps.Policy.GuestID)
	}
	if err != nil {
		return fmt.Errorf("load guest group: %w", err)
	}
	set, err := m.decodeRights(group.UserRights, "group", group.ID)
	if err != nil {
		return err
	}
	m.user = UserView{
		Guest:     true,
		GroupID:   group.ID,
		GroupName: group.Name,
		Rights:    set,
	}
	return nil
}

// loadUser resolves a logged-in session. Any reason the account cannot act
// (missing, anonymized, grace window elapsed, group gone) falls back to guest.
func (m *UserManager) loadUser(ctx context.Context, id uint) error {
	user, err := m.deps.Users.FindByID(ctx, id)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return m.fallbackToGuest(ctx, id, "user not found")
	}
	if err != nil {
		return fmt.Errorf("load user %d: %w", id, err)
	}
	now := m.deps.Now()
	if user.PermanentlyDeleted {
		return m.fallbackToGuest(ctx, id, "user permanently deleted")
	}
	if user.RetentionExpired(now, m.deps.Policy.SoftDeleteRetention) {
		return m.fallbackToGuest(ctx, id, "restore window expired")
	}

	userRights, err := m.decodeRights(user.UserRights, "user", user.ID)
	if err != nil {
		return err
	}
	group, err := m.deps.Groups.FindByID(ctx, user.GroupID)
	if errors.Is(err, apperrors.ErrGroupNotFound) {
		return m.fallbackToGuest(ctx, id, "group not found")
	}
	if err != nil {
		return fmt.Errorf("load group %d: %w", user.GroupID, err)
	}
	groupRights, err := m.decodeRights(group.UserRights, "group", group.ID)
	if err != nil {
		return err
	}

	m.user = viewOf(user, group, rights.Merge(userRights, groupRights))
	m.sess.SetLocale(user.Language, user.Theme, user.Timezone)

	if err := m.deps.Users.Update(ctx, user.ID, map[string]any{"date_last_activ": now}); err != nil {
		return fmt.Errorf("touch last activity of user %d: %w", user.ID, err)
	}
	return nil
}

func (m *UserManager) fallbackToGuest(ctx context.Context, id uint, reason string) error {
	m.deps.Log.Info("session falls back to guest", zap.Uint("user_id", id), zap.String("reason", reason))
	m.sess.SetLoginID(0)
	return m.loadGuest(ctx)
}

func viewOf(user *model.User, group *model.Group, set rights.Set) UserView {
	return UserView{
		ID:        user.ID,
		Login:     user.Login,
		Email:     user.Email,
		RealName:  user.RealName,
		Avatar:    user.Avatar,
		Language:  user.Language,
		Theme:     user.Theme,
		Timezone:  user.Timezone,
		GroupID:   group.ID,
		GroupName: group.Name,
		DeletedAt: user.DeletedAt,
		Rights:    set,
	}
}

// refuse logs a policy refusal with the acting and target ids.
func (m *UserManager) refuse(action string, targetID uint, reason string) {
	m.deps.Log.Warn("policy refusal",
		zap.String("action", action),
		zap.Uint("actor_id", m.user.ID),
		zap.Uint("target_id", targetID),
		zap.String("reason", reason))
}
