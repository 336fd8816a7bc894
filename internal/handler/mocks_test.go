package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"photogallery/internal/media"
	"photogallery/internal/service"
	"photogallery/internal/session"
	"photogallery/internal/validation"
)

// MockAccountManager is a mock implementation of AccountManager.
type MockAccountManager struct {
	mock.Mock
}

func (m *MockAccountManager) User() service.UserView {
	args := m.Called()
	return args.Get(0).(service.UserView)
}

func (m *MockAccountManager) IsAdmin() bool {
	return m.Called().Bool(0)
}

func (m *MockAccountManager) TakeErrors() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockAccountManager) CSRFToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockAccountManager) IssueCaptcha() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockAccountManager) Register(ctx context.Context, r service.Registration) (uint, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockAccountManager) Login(ctx context.Context, login, password string) (service.LoginResult, error) {
	args := m.Called(ctx, login, password)
	return args.Get(0).(service.LoginResult), args.Error(1)
}

func (m *MockAccountManager) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAccountManager) ConfirmAdmin(ctx context.Context, password string) (bool, error) {
	args := m.Called(ctx, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountManager) UpdateProfile(ctx context.Context, p service.ProfileUpdate) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountManager) SoftDelete(ctx context.Context, targetID uint) (bool, error) {
	args := m.Called(ctx, targetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountManager) Restore(ctx context.Context, targetID uint) (bool, error) {
	args := m.Called(ctx, targetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountManager) HardDelete(ctx context.Context, targetID uint, force bool) (bool, error) {
	args := m.Called(ctx, targetID, force)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountManager) UpdateUserRights(ctx context.Context, targetID, groupID uint, form map[string]string) (*service.UserView, error) {
	args := m.Called(ctx, targetID, groupID, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserView), args.Error(1)
}

func (m *MockAccountManager) AddGroup(ctx context.Context, form map[string]string) (uint, error) {
	args := m.Called(ctx, form)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockAccountManager) UpdateGroup(ctx context.Context, id uint, form map[string]string) (bool, error) {
	args := m.Called(ctx, id, form)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountManager) DeleteGroup(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockStore is a mock implementation of session.StoreInterface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, s *session.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockStore) Destroy(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockImageProcessor is a mock implementation of ImageProcessor.
type MockImageProcessor struct {
	mock.Mock
}

func (m *MockImageProcessor) SizeImage(ctx context.Context, path string) (media.Dimensions, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(media.Dimensions), args.Error(1)
}

func (m *MockImageProcessor) Resize(ctx context.Context, src, thumb string) error {
	return m.Called(ctx, src, thumb).Error(0)
}

func (m *MockImageProcessor) Attach(w http.ResponseWriter, path, filename string) error {
	return m.Called(w, path, filename).Error(0)
}

func (m *MockImageProcessor) FixFileExtension(path string) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

func (m *MockImageProcessor) CreateCategoryDirs(name string) error {
	return m.Called(name).Error(0)
}

func (m *MockImageProcessor) RemoveCategoryDirs(name string) error {
	return m.Called(name).Error(0)
}

type testValidator struct {
	v *validator.Validate
}

func (t *testValidator) Validate(i any) error {
	return t.v.Struct(i)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validation.New()}
	return e
}

// newContext builds a request context with m bound as the current actor.
// A body starting with "{" is sent as JSON.
func newContext(e *echo.Echo, m AccountManager, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if strings.HasPrefix(body, "{") {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if m != nil {
		c.Set(ManagerKey, m)
	}
	return c, rec
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
