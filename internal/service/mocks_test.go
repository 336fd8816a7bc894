package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"photogallery/internal/config"
	"photogallery/internal/model"
	"photogallery/internal/repository"
	"photogallery/internal/rights"
	"photogallery/internal/session"
	"photogallery/internal/validation"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Sample(ctx context.Context) (*model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) CountByField(ctx context.Context, field repository.UserField, value string) (int64, error) {
	args := m.Called(ctx, field, value)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockUserRepository) CountActiveInGroup(ctx context.Context, groupID, excludeID uint) (int64, error) {
	args := m.Called(ctx, groupID, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ListSoftDeleted(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockGroupRepository is a mock implementation of GroupRepository.
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) Create(ctx context.Context, group *model.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupRepository) FindByID(ctx context.Context, id uint) (*model.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Group), args.Error(1)
}

func (m *MockGroupRepository) Sample(ctx context.Context) (*model.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Group), args.Error(1)
}

func (m *MockGroupRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockGroupRepository) DeleteReassigning(ctx context.Context, id, fallbackID uint) (int64, error) {
	args := m.Called(ctx, id, fallbackID)
	return args.Get(0).(int64), args.Error(1)
}

// MockContentDeleter is a mock implementation of ContentDeleter.
type MockContentDeleter struct {
	mock.Mock
}

func (m *MockContentDeleter) PersonalPhotoIDs(ctx context.Context, userID uint) ([]uint, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockContentDeleter) DeletePhoto(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

var (
	fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	testPolicy = config.Groups{
		GuestID:             1,
		DefaultID:           2,
		AdminID:             3,
		ProtectedIDs:        map[uint]struct{}{1: {}, 2: {}, 3: {}},
		SoftDeleteRetention: 72 * time.Hour,
	}

	guestGroup   = &model.Group{ID: 1, Name: "Guest", UserRights: `{"admin":false,"delete":false,"edit":false}`}
	defaultGroup = &model.Group{ID: 2, Name: "Users", UserRights: `{"admin":false,"delete":false,"edit":true}`}
	adminGroup   = &model.Group{ID: 3, Name: "Admins", UserRights: `{"admin":true,"delete":true,"edit":true}`}
)

type fixture struct {
	users   *MockUserRepository
	groups  *MockGroupRepository
	content *MockContentDeleter
	sess    *session.Session
}

func newFixture() *fixture {
	return &fixture{
		users:   new(MockUserRepository),
		groups:  new(MockGroupRepository),
		content: new(MockContentDeleter),
		sess:    session.New("test-session", session.Data{}),
	}
}

func (f *fixture) deps() UserDeps {
	return UserDeps{
		Users:         f.users,
		Groups:        f.groups,
		Content:       f.content,
		Policy:        testPolicy,
		DefaultAvatar: "no_avatar.jpg",
		Log:           zap.NewNop(),
		Validate:      validation.New(),
		Now:           func() time.Time { return fixedNow },
	}
}

// expectCatalog sets up the sampling done by NewUserManager.
func (f *fixture) expectCatalog() {
	f.users.On("Sample", mock.Anything).Return(&model.User{ID: 1, UserRights: `{"edit":false}`}, nil).Once()
	f.groups.On("Sample", mock.Anything).Return(guestGroup, nil).Once()
}

// manager builds a UserManager around a fixed actor without going through
// actor resolution.
func (f *fixture) manager(actor UserView, flags ...string) *UserManager {
	if len(flags) == 0 {
		flags = []string{"admin", "delete", "edit"}
	}
	sample := rights.Set{}
	for _, name := range flags {
		sample[name] = false
	}
	if actor.Rights == nil {
		actor.Rights = rights.Set{}
	}
	f.sess.SetLoginID(actor.ID)
	return &UserManager{
		deps:    f.deps(),
		sess:    f.sess,
		catalog: rights.NewCatalog(sample),
		user:    actor,
	}
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.users.AssertExpectations(t)
	f.groups.AssertExpectations(t)
	f.content.AssertExpectations(t)
}

func guestActor() UserView {
	return UserView{Guest: true, GroupID: 1, GroupName: "Guest", Rights: rights.Set{"admin": false, "edit": false}}
}

func adminActor(id uint) UserView {
	return UserView{ID: id, Login: "root", GroupID: 3, GroupName: "Admins", Rights: rights.Set{"admin": true, "edit": true, "delete": true}}
}

func memberActor(id uint) UserView {
	return UserView{ID: id, Login: "member", GroupID: 2, GroupName: "Users", Rights: rights.Set{"admin": false, "edit": true}}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
