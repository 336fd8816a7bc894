package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"photogallery/internal/service"
)

func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler("/", zap.NewNop())
	body := `{"login":"alice","password":"secret1"}`

	t.Run("success returns the user", func(t *testing.T) {
		m := new(MockAccountManager)
		m.On("Login", mock.Anything, "alice", "secret1").
			Return(service.LoginResult{Status: service.LoginOK, UserID: 42}, nil)
		m.On("TakeErrors").Return(nil)
		m.On("User").Return(service.UserView{ID: 42, Login: "alice", GroupID: 2})

		c, rec := newContext(newEcho(), m, http.MethodPost, "/api/auth/login", body)
		require.NoError(t, h.Login(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, uint(42), resp.UserID)
		assert.Equal(t, "alice", resp.User.Login)
		m.AssertExpectations(t)
	})

	t.Run("redirect sends the visitor away", func(t *testing.T) {
		m := new(MockAccountManager)
		m.On("Login", mock.Anything, "alice", "secret1").
			Return(service.LoginResult{Status: service.LoginRedirect, Reason: "account deleted"}, nil)

		c, rec := newContext(newEcho(), m, http.MethodPost, "/api/auth/login", body)
		require.NoError(t, h.Login(c))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		m := new(MockAccountManager)
		m.On("Login", mock.Anything, "alice", "secret1").
			Return(service.LoginResult{Status: service.LoginFailed}, nil)
		m.On("TakeErrors").Return([]string{"invalid login or password"})

		c, _ := newContext(newEcho(), m, http.MethodPost, "/api/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, httpStatus(h.Login(c)))
	})

	t.Run("missing password fails validation", func(t *testing.T) {
		m := new(MockAccountManager)
		c, _ := newContext(newEcho(), m, http.MethodPost, "/api/auth/login", `{"login":"alice"}`)
		assert.Equal(t, http.StatusBadRequest, httpStatus(h.Login(c)))
		m.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("infrastructure error is internal", func(t *testing.T) {
		m := new(MockAccountManager)
		m.On("Login", mock.Anything, "alice", "secret1").
			Return(service.LoginResult{}, errors.New("db down"))

		c, _ := newContext(newEcho(), m, http.MethodPost, "/api/auth/login", body)
		assert.Equal(t, http.StatusInternalServerError, httpStatus(h.Login(c)))
	})

	t.Run("no session bound", func(t *testing.T) {
		c, _ := newContext(newEcho(), nil, http.MethodPost, "/api/auth/login", body)
		assert.Equal(t, http.StatusInternalServerError, httpStatus(h.Login(c)))
	})
}

func TestAuthHandler_Register(t *testing.T) {
	h := NewAuthHandler("/", zap.NewNop())
	body := `{"login":"alice","password":"secret1","confirm_password":"secret1","email":"alice@example.com","real_name":"Alice","captcha":"7"}`
	want := service.Registration{
		Login:           "alice",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Email:           "alice@example.com",
		RealName:        "Alice",
		Captcha:         "7",
	}

	t.Run("created", func(t *testing.T) {
		m := new(MockAccountManager)
		m.On("Register", mock.Anything, want).Return(uint(42), nil)

		c, rec := newContext(newEcho(), m, http.MethodPost, "/api/auth/register", body)
		require.NoError(t, h.Register(c))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp OperationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		assert.Equal(t, uint(42), resp.ID)
	})

	t.Run("rejected form lists messages", func(t *testing.T) {
		m := new(MockAccountManager)
		m.On("Register", mock.Anything, want).Return(uint(0), nil)
		m.On("TakeErrors").Return([]string{"captcha answer is wrong"})

		c, rec := newContext(newEcho(), m, http.MethodPost, "/api/auth/register", body)
		require.NoError(t, h.Register(c))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp OperationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.OK)
		assert.Equal(t, []string{"captcha answer is wrong"}, resp.Errors)
	})
}

func TestAuthHandler_SessionEndpoints(t *testing.T) {
	h := NewAuthHandler("/", zap.NewNop())
	m := new(MockAccountManager)
	m.On("IssueCaptcha").Return("3 + 4", nil)
	m.On("CSRFToken").Return("tok", nil)
	m.On("Logout", mock.Anything).Return(nil)
	m.On("User").Return(service.UserView{ID: 1, Guest: true, GroupID: 1})
	e := newEcho()

	c, rec := newContext(e, m, http.MethodGet, "/api/auth/captcha", "")
	require.NoError(t, h.Captcha(c))
	assert.JSONEq(t, `{"question":"3 + 4"}`, rec.Body.String())

	c, rec = newContext(e, m, http.MethodGet, "/api/auth/csrf", "")
	require.NoError(t, h.CSRF(c))
	assert.JSONEq(t, `{"csrf_token":"tok"}`, rec.Body.String())

	c, rec = newContext(e, m, http.MethodPost, "/api/auth/logout", "")
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(e, m, http.MethodGet, "/api/me", "")
	require.NoError(t, h.Me(c))
	var view service.UserView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Guest)

	m.AssertExpectations(t)
}
