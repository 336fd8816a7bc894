package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "photogallery/internal/errors"
	"photogallery/internal/service"
	"photogallery/internal/session"
)

// ManagerKey is the echo context key holding the request's AccountManager.
const ManagerKey = "account_manager"

// AccountManager is the per-request account API the handlers drive.
type AccountManager interface {
	User() service.UserView
	IsAdmin() bool
	TakeErrors() []string
	CSRFToken() (string, error)

	IssueCaptcha() (string, error)
	Register(ctx context.Context, r service.Registration) (uint, error)
	Login(ctx context.Context, login, password string) (service.LoginResult, error)
	Logout(ctx context.Context) error
	ConfirmAdmin(ctx context.Context, password string) (bool, error)
	UpdateProfile(ctx context.Context, p service.ProfileUpdate) (bool, error)

	SoftDelete(ctx context.Context, targetID uint) (bool, error)
	Restore(ctx context.Context, targetID uint) (bool, error)
	HardDelete(ctx context.Context, targetID uint, force bool) (bool, error)
	UpdateUserRights(ctx context.Context, targetID, groupID uint, form map[string]string) (*service.UserView, error)

	AddGroup(ctx context.Context, form map[string]string) (uint, error)
	UpdateGroup(ctx context.Context, id uint, form map[string]string) (bool, error)
	DeleteGroup(ctx context.Context, id uint) (bool, error)
}

var _ AccountManager = (*service.UserManager)(nil)

// ManagerFactory resolves the actor bound to a loaded session.
type ManagerFactory func(ctx context.Context, sess *session.Session) (AccountManager, error)

// OperationResponse reports the outcome of an action that may be refused.
type OperationResponse struct {
	OK     bool     `json:"ok"`
	ID     uint     `json:"id,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

func managerFrom(c echo.Context) (AccountManager, error) {
	m, ok := c.Get(ManagerKey).(AccountManager)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "session not initialized",
			Code:  "SESSION_MISSING",
		})
	}
	return m, nil
}

// operationResult answers 200 for a completed action and 422 for a refused
// one, handing over any collected validation messages.
func operationResult(c echo.Context, m AccountManager, ok bool, id uint) error {
	resp := OperationResponse{OK: ok, ID: id, Errors: m.TakeErrors()}
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// serviceError converts an infrastructure or sentinel error into an echo error.
func serviceError(err error) error {
	he := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}

func forbidden() error {
	return serviceError(apperrors.ErrPermissionDenied)
}

func badRequest(msg, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: msg, Code: code})
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, badRequest("invalid "+name, "INVALID_ID")
	}
	return uint(id), nil
}

// formValues reads a flat form from a JSON object or an urlencoded body.
// JSON values are rendered as strings for truthy coercion.
func formValues(c echo.Context) (map[string]string, error) {
	out := map[string]string{}
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var raw map[string]any
		if err := json.NewDecoder(req.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, badRequest("invalid request body", "INVALID_REQUEST")
		}
		for k, v := range raw {
			out[k] = stringify(v)
		}
		return out, nil
	}
	params, err := c.FormParams()
	if err != nil {
		return nil, badRequest("invalid request body", "INVALID_REQUEST")
	}
	for k, v := range params {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
