package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"photogallery/internal/service"
)

// UserHandler serves profile, rights and account lifecycle endpoints.
type UserHandler struct{}

// NewUserHandler creates a handler layer.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// ConfirmRequest re-enters the administrator password.
type ConfirmRequest struct {
	Password string `json:"password" validate:"required"`
}

// RightsRequest moves a user to a group or edits their own flags.
type RightsRequest struct {
	GroupID uint           `json:"group_id" validate:"required"`
	Rights  map[string]any `json:"rights"`
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body service.ProfileUpdate true "Profile fields"
// @Success 200 {object} OperationResponse
// @Failure 422 {object} OperationResponse
// @Router /me/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	var req service.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	ok, err := m.UpdateProfile(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}
	return operationResult(c, m, ok, 0)
}

// DeleteSelf godoc
// @Summary Delete own account (restorable)
// @Tags users
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} OperationResponse
// @Failure 422 {object} OperationResponse
// @Router /me [delete]
func (h *UserHandler) DeleteSelf(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	ok, err := m.SoftDelete(c.Request().Context(), m.User().ID)
	if err != nil {
		return serviceError(err)
	}
	return operationResult(c, m, ok, 0)
}

// ConfirmAdmin godoc
// @Summary Confirm the administrator session
// @Tags admin
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body ConfirmRequest true "Password"
// @Success 200 {object} OperationResponse
// @Failure 422 {object} OperationResponse
// @Router /admin/confirm [post]
func (h *UserHandler) ConfirmAdmin(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	var req ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "INVALID_REQUEST")
	}
	ok, err := m.ConfirmAdmin(c.Request().Context(), req.Password)
	if err != nil {
		return serviceError(err)
	}
	return operationResult(c, m, ok, 0)
}

// SoftDelete godoc
// @Summary Soft-delete a user
// @Tags users
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param id path int true "User ID"
// @Success 200 {object} OperationResponse
// @Failure 422 {object} OperationResponse
// @Router /users/{id} [delete]
func (h *UserHandler) SoftDelete(c echo.Context) error {
	return h.lifecycle(c, func(m AccountManager, id uint) (bool, error) {
		return m.SoftDelete(c.Request().Context(), id)
	})
}

// Restore godoc
// @Summary Restore a soft-deleted user
// @Tags users
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param id path int true "User ID"
// @Success 200 {object} OperationResponse
// @Failure 422 {object} OperationResponse
// @Router /users/{id}/restore [post]
func (h *UserHandler) Restore(c echo.Context) error {
	return h.lifecycle(c, func(m AccountManager, id uint) (bool, error) {
		return m.Restore(c.Request().Context(), id)
	})
}

// HardDelete godoc
// @Summary Permanently anonymize a user
// @Tags users
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param id path int true "User ID"
// @Param force query bool false "Skip the restore window (confirmed administrators only)"
// @Success 200 {object} OperationResponse
// @Failure 422 {object} OperationResponse
// @Router /users/{id}/permanent [delete]
func (h *UserHandler) HardDelete(c echo.Context) error {
	force, _ := strconv.ParseBool(c.QueryParam("force"))
	return h.lifecycle(c, func(m AccountManager, id uint) (bool, error) {
		return m.HardDelete(c.Request().Context(), id, force)
	})
}

func (h *UserHandler) lifecycle(c echo.Context, op func(m AccountManager, id uint) (bool, error)) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ok, err := op(m, id)
	if err != nil {
		return serviceError(err)
	}
	return operationResult(c, m, ok, 0)
}

// UpdateRights godoc
// @Summary Change a user's group or rights
// @Tags users
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param id path int true "User ID"
// @Param request body RightsRequest true "Group and flags"
// @Success 200 {object} service.UserView
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/rights [put]
func (h *UserHandler) UpdateRights(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	if !m.IsAdmin() {
		return forbidden()
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req RightsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "INVALID_REQUEST")
	}
	form := make(map[string]string, len(req.Rights))
	for k, v := range req.Rights {
		form[k] = stringify(v)
	}

	view, err := m.UpdateUserRights(c.Request().Context(), id, req.GroupID, form)
	if err != nil {
		return serviceError(err)
	}
	if view == nil {
		return operationResult(c, m, false, 0)
	}
	return c.JSON(http.StatusOK, view)
}
