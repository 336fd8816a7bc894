package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"photogallery/internal/auth"
	apperrors "photogallery/internal/errors"
	"photogallery/internal/model"
)

// ExecMode tells a batch job how it was started.
type ExecMode int

const (
	// Interactive is a terminal or request-driven invocation.
	Interactive ExecMode = iota
	// Batch is an unattended invocation such as cron.
	Batch
)

// SweepReport summarizes one run of SweepDeleted.
type SweepReport struct {
	Pending int `json:"pending"`
	Expired int `json:"expired"`
	Deleted int `json:"deleted"`
	Refused int `json:"refused"`
}

// SoftDelete starts the restore window of an account. Users may delete
// themselves, administrators anyone. It returns false when the account is
// gone, anonymized or the actor may not touch it.
func (m *UserManager) SoftDelete(ctx context.Context, targetID uint) (bool, error) {
	if m.user.Guest || (m.user.ID != targetID && !m.IsAdmin()) {
		m.refuse("soft_delete", targetID, "actor may not delete this account")
		return false, nil
	}
	user, err := m.deps.Users.FindByID(ctx, targetID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load user %d: %w", targetID, err)
	}
	if user.PermanentlyDeleted {
		return false, nil
	}
	if user.DeletedAt == nil {
		if err := m.deps.Users.Update(ctx, targetID, map[string]any{"deleted_at": m.deps.Now()}); err != nil {
			return false, fmt.Errorf("soft delete user %d: %w", targetID, err)
		}
		m.deps.Log.Info("user soft-deleted", zap.Uint("actor_id", m.user.ID), zap.Uint("target_id", targetID))
	}
	if targetID == m.user.ID {
		if err := m.Logout(ctx); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Restore ends the restore window of a soft-deleted account. Administrators only.
func (m *UserManager) Restore(ctx context.Context, targetID uint) (bool, error) {
	if !m.IsAdmin() {
		m.refuse("restore", targetID, "actor is not an administrator")
		return false, nil
	}
	user, err := m.deps.Users.FindByID(ctx, targetID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load user %d: %w", targetID, err)
	}
	if !user.IsSoftDeleted() {
		return false, nil
	}
	if err := m.deps.Users.Update(ctx, targetID, map[string]any{"deleted_at": nil}); err != nil {
		return false, fmt.Errorf("restore user %d: %w", targetID, err)
	}
	m.deps.Log.Info("user restored", zap.Uint("actor_id", m.user.ID), zap.Uint("target_id", targetID))
	return true, nil
}

// HardDelete anonymizes an account in place on behalf of an administrator
// with a confirmed session acting on someone else. Callers must pass force:
// the unforced mode, which acts on any expired soft-deleted account without
// checking the actor, belongs to SweepDeleted alone. The last remaining
// administrator is never deleted.
func (m *UserManager) HardDelete(ctx context.Context, targetID uint, force bool) (bool, error) {
	if !force {
		m.refuse("hard_delete", targetID, "unforced deletion is reserved for the sweep")
		return false, nil
	}
	return m.hardDelete(ctx, targetID, true)
}

// hardDelete without force only acts on accounts whose restore window has elapsed.
func (m *UserManager) hardDelete(ctx context.Context, targetID uint, force bool) (bool, error) {
	if m.IsAdmin() && m.user.ID == targetID {
		m.refuse("hard_delete", targetID, "administrators cannot delete themselves")
		return false, nil
	}

	user, err := m.deps.Users.FindByID(ctx, targetID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load user %d: %w", targetID, err)
	}
	if user.PermanentlyDeleted {
		return false, nil
	}

	now := m.deps.Now()
	if force {
		switch {
		case !m.IsAdmin():
			m.refuse("hard_delete", targetID, "actor is not an administrator")
			return false, nil
		case !m.sess.AdminConfirmed():
			m.refuse("hard_delete", targetID, "admin session not confirmed")
			return false, nil
		case m.user.ID == targetID:
			m.refuse("hard_delete", targetID, "self deletion")
			return false, nil
		}
	} else if user.DeletedAt == nil || !user.RetentionExpired(now, m.deps.Policy.SoftDeleteRetention) {
		m.refuse("hard_delete", targetID, "restore window has not elapsed")
		return false, nil
	}

	if user.GroupID == m.deps.Policy.AdminID {
		others, err := m.deps.Users.CountActiveInGroup(ctx, m.deps.Policy.AdminID, targetID)
		if err != nil {
			return false, fmt.Errorf("count administrators: %w", err)
		}
		if others == 0 {
			m.refuse("hard_delete", targetID, "last administrator")
			return false, nil
		}
	}

	m.purgeContent(ctx, targetID)

	password, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return false, err
	}
	want := map[string]any{
		"login":               fmt.Sprintf("deleted_%d", targetID),
		"email":               fmt.Sprintf("deleted_%d@local.com", targetID),
		"password":            password,
		"avatar":              m.deps.DefaultAvatar,
		"permanently_deleted": true,
	}
	if user.DeletedAt == nil {
		want["deleted_at"] = now
	}
	if err := m.deps.Users.Update(ctx, targetID, want); err != nil {
		return false, fmt.Errorf("anonymize user %d: %w", targetID, err)
	}

	written, err := m.deps.Users.FindByID(ctx, targetID)
	if err != nil {
		return false, fmt.Errorf("reload user %d: %w", targetID, err)
	}
	if !anonymized(written, want) {
		m.deps.Log.Error("anonymization verification failed", zap.Uint("actor_id", m.user.ID), zap.Uint("target_id", targetID))
		return false, nil
	}
	m.deps.Log.Info("user permanently deleted",
		zap.Uint("actor_id", m.user.ID), zap.Uint("target_id", targetID), zap.Bool("forced", force))
	return true, nil
}

// purgeContent deletes personal uploads one by one; failures are logged and skipped.
func (m *UserManager) purgeContent(ctx context.Context, userID uint) {
	if m.deps.Content == nil {
		return
	}
	ids, err := m.deps.Content.PersonalPhotoIDs(ctx, userID)
	if err != nil {
		m.deps.Log.Error("list personal photos", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	deleted := 0
	for _, id := range ids {
		ok, err := m.deps.Content.DeletePhoto(ctx, id)
		if err != nil {
			m.deps.Log.Warn("delete personal photo", zap.Uint("photo_id", id), zap.Error(err))
			continue
		}
		if ok {
			deleted++
		}
	}
	m.deps.Log.Info("personal photos purged",
		zap.Uint("user_id", userID), zap.Int("deleted", deleted), zap.Int("total", len(ids)))
}

func anonymized(u *model.User, want map[string]any) bool {
	return u.Login == want["login"] &&
		u.Email == want["email"] &&
		u.Password == want["password"] &&
		u.Avatar == want["avatar"] &&
		u.PermanentlyDeleted
}

// SweepDeleted hard-deletes every soft-deleted account whose restore
// window has elapsed. It refuses to run outside batch mode.
func (m *UserManager) SweepDeleted(ctx context.Context, mode ExecMode) (SweepReport, error) {
	var report SweepReport
	if mode != Batch {
		return report, apperrors.ErrInteractiveContext
	}
	users, err := m.deps.Users.ListSoftDeleted(ctx)
	if err != nil {
		return report, fmt.Errorf("list soft-deleted users: %w", err)
	}
	report.Pending = len(users)
	now := m.deps.Now()
	for _, u := range users {
		if !u.RetentionExpired(now, m.deps.Policy.SoftDeleteRetention) {
			continue
		}
		report.Expired++
		ok, err := m.hardDelete(ctx, u.ID, false)
		if err != nil {
			return report, err
		}
		if ok {
			report.Deleted++
		} else {
			report.Refused++
		}
	}
	m.deps.Log.Info("deleted users sweep finished",
		zap.Int("pending", report.Pending), zap.Int("expired", report.Expired),
		zap.Int("deleted", report.Deleted), zap.Int("refused", report.Refused))
	return report, nil
}
