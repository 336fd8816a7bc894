package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "photogallery/internal/errors"
	"photogallery/internal/model"
	"photogallery/internal/rights"
	"photogallery/internal/validation"
)

// GroupNameField is the form key carrying a group's name.
const GroupNameField = "name_group"

// AddGroup creates a group from a submitted form: the name comes from
// "name_group", every catalog flag from its truthy form value. It returns
// the new id, or 0 when the name is rejected.
func (m *UserManager) AddGroup(ctx context.Context, form map[string]string) (uint, error) {
	if !m.IsAdmin() {
		m.refuse("add_group", 0, "actor is not an administrator")
		return 0, nil
	}
	name := strings.TrimSpace(form[GroupNameField])
	if !validation.IsGroupName(name) {
		m.sess.AddError("group name is invalid")
		return 0, nil
	}
	encoded, err := rights.Encode(m.catalog.FromForm(form))
	if err != nil {
		return 0, err
	}
	group := &model.Group{Name: name, UserRights: encoded}
	if err := m.deps.Groups.Create(ctx, group); err != nil {
		return 0, fmt.Errorf("create group: %w", err)
	}
	m.deps.Log.Info("group created", zap.Uint("actor_id", m.user.ID), zap.Uint("group_id", group.ID))
	return group.ID, nil
}

// UpdateGroup renames a group when the submitted name differs and is valid,
// and always rewrites its rights from the form; missing flags become false.
func (m *UserManager) UpdateGroup(ctx context.Context, id uint, form map[string]string) (bool, error) {
	if !m.IsAdmin() {
		m.refuse("update_group", id, "actor is not an administrator")
		return false, nil
	}
	group, err := m.deps.Groups.FindByID(ctx, id)
	if errors.Is(err, apperrors.ErrGroupNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load group %d: %w", id, err)
	}

	encoded, err := rights.Encode(m.catalog.FromForm(form))
	if err != nil {
		return false, err
	}
	fields := map[string]any{"user_rights": encoded}
	if name := strings.TrimSpace(form[GroupNameField]); name != "" && name != group.Name {
		if validation.IsGroupName(name) {
			fields["name"] = name
		} else {
			m.sess.AddError("group name is invalid")
		}
	}
	if err := m.deps.Groups.Update(ctx, id, fields); err != nil {
		return false, fmt.Errorf("update group %d: %w", id, err)
	}
	return true, nil
}

// DeleteGroup moves the members of a group to the default group and removes
// it. Protected groups are refused without touching the database.
func (m *UserManager) DeleteGroup(ctx context.Context, id uint) (bool, error) {
	if !m.IsAdmin() {
		m.refuse("delete_group", id, "actor is not an administrator")
		return false, nil
	}
	if m.deps.Policy.IsProtected(id) {
		m.refuse("delete_group", id, "protected group")
		return false, nil
	}
	affected, err := m.deps.Groups.DeleteReassigning(ctx, id, m.deps.Policy.DefaultID)
	if err != nil {
		return false, fmt.Errorf("delete group %d: %w", id, err)
	}
	if affected > 0 {
		m.deps.Log.Info("group deleted", zap.Uint("actor_id", m.user.ID), zap.Uint("group_id", id))
	}
	return affected > 0, nil
}

// UpdateUserRights either moves a user to another group, copying that
// group's rights onto the row, or, when groupID is unchanged, stores the
// submitted per-user flags. It returns the resulting view, or nil when the
// target or the new group does not exist.
func (m *UserManager) UpdateUserRights(ctx context.Context, targetID, groupID uint, form map[string]string) (*UserView, error) {
	if !m.IsAdmin() {
		m.refuse("update_user_rights", targetID, "actor is not an administrator")
		return nil, nil
	}
	user, err := m.deps.Users.FindByID(ctx, targetID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", targetID, err)
	}

	if groupID != user.GroupID {
		if user.GroupID == m.deps.Policy.AdminID {
			others, err := m.deps.Users.CountActiveInGroup(ctx, m.deps.Policy.AdminID, targetID)
			if err != nil {
				return nil, fmt.Errorf("count administrators: %w", err)
			}
			if others == 0 {
				m.refuse("update_user_rights", targetID, "last administrator")
				return nil, nil
			}
		}
		group, err := m.deps.Groups.FindByID(ctx, groupID)
		if errors.Is(err, apperrors.ErrGroupNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load group %d: %w", groupID, err)
		}
		if err := m.deps.Users.Update(ctx, targetID, map[string]any{
			"group_id":    group.ID,
			"user_rights": group.UserRights,
		}); err != nil {
			return nil, fmt.Errorf("move user %d to group %d: %w", targetID, groupID, err)
		}
		user.GroupID = group.ID
		user.UserRights = group.UserRights
		set, err := m.decodeRights(group.UserRights, "group", group.ID)
		if err != nil {
			return nil, err
		}
		view := viewOf(user, group, set)
		return &view, nil
	}

	set := m.catalog.FromForm(form)
	encoded, err := rights.Encode(set)
	if err != nil {
		return nil, err
	}
	if err := m.deps.Users.Update(ctx, targetID, map[string]any{"user_rights": encoded}); err != nil {
		return nil, fmt.Errorf("update rights of user %d: %w", targetID, err)
	}
	group, err := m.deps.Groups.FindByID(ctx, user.GroupID)
	if err != nil {
		return nil, fmt.Errorf("load group %d: %w", user.GroupID, err)
	}
	user.UserRights = encoded
	view := viewOf(user, group, set)
	return &view, nil
}
