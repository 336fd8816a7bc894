package handler

import (
	"github.com/labstack/echo/v4"
)

// GroupHandler serves group administration.
type GroupHandler struct{}

// NewGroupHandler creates a new group handler.
func NewGroupHandler() *GroupHandler {
	return &GroupHandler{}
}

// CreateGroup godoc
// @Summary Create a group
// @Description Flat form: "name_group" plus one truthy value per rights flag.
// @Tags groups
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body map[string]string true "Group form"
// @Success 200 {object} OperationResponse
// @Failure 422 {object} OperationResponse
// @Router /groups [post]
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	form, err := formValues(c)
	if err != nil {
		return err
	}
	id, err := m.AddGroup(c.Request().Context(), form)
	if err != nil {
		return serviceError(err)
	}
	return operationResult(c, m, id != 0, id)
}

// UpdateGroup godoc
// @Summary Rename a group and rewrite its rights
// @Tags groups
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param id path int true "Group ID"
// @Param request body map[string]string true "Group form"
// @Success 200 {object} OperationResponse
// @Failure 422 {object} OperationResponse
// @Router /groups/{id} [put]
func (h *GroupHandler) UpdateGroup(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	form, err := formValues(c)
	if err != nil {
		return err
	}
	ok, err := m.UpdateGroup(c.Request().Context(), id, form)
	if err != nil {
		return serviceError(err)
	}
	return operationResult(c, m, ok, id)
}

// DeleteGroup godoc
// @Summary Delete a group
// @Description Members move to the default group. Protected groups are refused.
// @Tags groups
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param id path int true "Group ID"
// @Success 200 {object} OperationResponse
// @Failure 422 {object} OperationResponse
// @Router /groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ok, err := m.DeleteGroup(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return operationResult(c, m, ok, 0)
}
