package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"photogallery/internal/errors"
	"photogallery/internal/service"
)

// AuthHandler handles sign-up, sign-in and session endpoints.
type AuthHandler struct {
	redirectTo string
	log        *zap.Logger
}

// NewAuthHandler creates a new auth handler. Logins that cannot proceed
// are redirected to redirectTo.
func NewAuthHandler(redirectTo string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{redirectTo: redirectTo, log: log}
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Login    string `json:"login" form:"login" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	UserID uint             `json:"user_id"`
	User   service.UserView `json:"user"`
}

// CaptchaResponse carries the arithmetic challenge to display.
type CaptchaResponse struct {
	Question string `json:"question"`
}

// CSRFResponse carries the anti-forgery token of the session.
type CSRFResponse struct {
	Token string `json:"csrf_token"`
}

// Captcha godoc
// @Summary Issue a registration captcha
// @Tags auth
// @Produce json
// @Success 200 {object} CaptchaResponse
// @Router /auth/captcha [get]
func (h *AuthHandler) Captcha(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	question, err := m.IssueCaptcha()
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, CaptchaResponse{Question: question})
}

// CSRF godoc
// @Summary Get the session CSRF token
// @Tags auth
// @Produce json
// @Success 200 {object} CSRFResponse
// @Router /auth/csrf [get]
func (h *AuthHandler) CSRF(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	token, err := m.CSRFToken()
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, CSRFResponse{Token: token})
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body service.Registration true "Registration data"
// @Success 201 {object} OperationResponse
// @Failure 422 {object} OperationResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	var req service.Registration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	id, err := m.Register(c.Request().Context(), req)
	if err != nil {
		h.log.Error("register", zap.Error(err))
		return serviceError(err)
	}
	if id == 0 {
		return operationResult(c, m, false, 0)
	}
	return c.JSON(http.StatusCreated, OperationResponse{OK: true, ID: id})
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Success 303 "account cannot sign in"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
	}

	res, err := m.Login(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		h.log.Error("login", zap.Error(err))
		return serviceError(err)
	}
	switch res.Status {
	case service.LoginOK:
		m.TakeErrors()
		return c.JSON(http.StatusOK, LoginResponse{UserID: res.UserID, User: m.User()})
	case service.LoginRedirect:
		h.log.Info("login redirected", zap.String("login", req.Login), zap.String("reason", res.Reason))
		return c.Redirect(http.StatusSeeOther, h.redirectTo)
	default:
		m.TakeErrors()
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid login or password",
			Code:  "INVALID_CREDENTIALS",
		})
	}
}

// Logout godoc
// @Summary Logout user
// @Tags auth
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} map[string]string
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	if err := m.Logout(c.Request().Context()); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// Me godoc
// @Summary Current actor
// @Tags auth
// @Produce json
// @Success 200 {object} service.UserView
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	m, err := managerFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m.User())
}
