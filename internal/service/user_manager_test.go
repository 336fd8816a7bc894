package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "photogallery/internal/errors"
	"photogallery/internal/model"
	"photogallery/internal/rights"
	"photogallery/internal/session"
)

func TestNewUserManager_Guest(t *testing.T) {
	f := newFixture()
	f.expectCatalog()
	f.groups.On("FindByID", mock.Anything, uint(1)).Return(guestGroup, nil).Once()

	m, err := NewUserManager(context.Background(), f.deps(), f.sess)

	require.NoError(t, err)
	view := m.User()
	assert.True(t, view.Guest)
	assert.Equal(t, uint(0), view.ID)
	assert.Equal(t, "Guest", view.GroupName)
	assert.Equal(t, rights.Set{"admin": false, "delete": false, "edit": false}, view.Rights)
	assert.False(t, m.IsAdmin())
	assert.Equal(t, []string{"admin", "delete", "edit"}, m.Catalog().Names())
	f.assertExpectations(t)
}

func TestNewUserManager_GuestGroupMissing(t *testing.T) {
	f := newFixture()
	f.expectCatalog()
	f.groups.On("FindByID", mock.Anything, uint(1)).Return(nil, apperrors.ErrGroupNotFound).Once()

	m, err := NewUserManager(context.Background(), f.deps(), f.sess)

	assert.Nil(t, m)
	assert.ErrorIs(t, err, apperrors.ErrGuestGroupMissing)
}

func TestNewUserManager_ActiveUser(t *testing.T) {
	f := newFixture()
	f.sess = session.New("s1", session.Data{LoginID: 5})
	f.expectCatalog()
	user := &model.User{
		ID:         5,
		Login:      "alice",
		GroupID:    2,
		Language:   "de",
		Theme:      "dark",
		Timezone:   "Europe/Berlin",
		UserRights: `{"edit":false,"delete":true,"bogus":true}`,
	}
	f.users.On("FindByID", mock.Anything, uint(5)).Return(user, nil).Once()
	f.groups.On("FindByID", mock.Anything, uint(2)).Return(defaultGroup, nil).Once()
	f.users.On("Update", mock.Anything, uint(5), map[string]any{"date_last_activ": fixedNow}).Return(nil).Once()

	m, err := NewUserManager(context.Background(), f.deps(), f.sess)

	require.NoError(t, err)
	view := m.User()
	assert.False(t, view.Guest)
	assert.Equal(t, uint(5), view.ID)
	assert.Equal(t, "Users", view.GroupName)
	// group values win whenever either side is set
	assert.Equal(t, rights.Set{"admin": false, "delete": false, "edit": true}, view.Rights)
	assert.NotContains(t, view.Rights, "bogus")

	data := m.SessionView()
	assert.Equal(t, uint(5), data.LoginID)
	assert.Equal(t, "de", data.Language)
	assert.Equal(t, "dark", data.Theme)
	assert.Equal(t, "Europe/Berlin", data.Timezone)
	f.assertExpectations(t)
}

func TestNewUserManager_FallsBackToGuest(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{
			name: "user not found",
			setup: func(f *fixture) {
				f.users.On("FindByID", mock.Anything, uint(5)).Return(nil, apperrors.ErrUserNotFound).Once()
			},
		},
		{
			name: "permanently deleted",
			setup: func(f *fixture) {
				f.users.On("FindByID", mock.Anything, uint(5)).
					Return(&model.User{ID: 5, GroupID: 2, PermanentlyDeleted: true}, nil).Once()
			},
		},
		{
			name: "restore window elapsed",
			setup: func(f *fixture) {
				f.users.On("FindByID", mock.Anything, uint(5)).
					Return(&model.User{ID: 5, GroupID: 2, DeletedAt: timePtr(fixedNow.Add(-73 * time.Hour))}, nil).Once()
			},
		},
		{
			name: "group not found",
			setup: func(f *fixture) {
				f.users.On("FindByID", mock.Anything, uint(5)).
					Return(&model.User{ID: 5, GroupID: 42}, nil).Once()
				f.groups.On("FindByID", mock.Anything, uint(42)).Return(nil, apperrors.ErrGroupNotFound).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.sess = session.New("s1", session.Data{LoginID: 5, AdminConfirmed: true})
			f.expectCatalog()
			tt.setup(f)
			f.groups.On("FindByID", mock.Anything, uint(1)).Return(guestGroup, nil).Once()

			m, err := NewUserManager(context.Background(), f.deps(), f.sess)

			require.NoError(t, err)
			assert.True(t, m.User().Guest)
			assert.Equal(t, uint(0), m.SessionView().LoginID)
			assert.False(t, m.SessionView().AdminConfirmed)
			f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			f.assertExpectations(t)
		})
	}
}

func TestNewUserManager_SoftDeletedInsideWindowStaysActive(t *testing.T) {
	f := newFixture()
	f.sess = session.New("s1", session.Data{LoginID: 5})
	f.expectCatalog()
	deletedAt := fixedNow.Add(-time.Hour)
	f.users.On("FindByID", mock.Anything, uint(5)).
		Return(&model.User{ID: 5, GroupID: 2, DeletedAt: &deletedAt}, nil).Once()
	f.groups.On("FindByID", mock.Anything, uint(2)).Return(defaultGroup, nil).Once()
	f.users.On("Update", mock.Anything, uint(5), mock.Anything).Return(nil).Once()

	m, err := NewUserManager(context.Background(), f.deps(), f.sess)

	require.NoError(t, err)
	assert.False(t, m.User().Guest)
	require.NotNil(t, m.User().DeletedAt)
	assert.True(t, m.User().DeletedAt.Equal(deletedAt))
}

func TestNewUserManager_MalformedRights(t *testing.T) {
	f := newFixture()
	f.sess = session.New("s1", session.Data{LoginID: 5})
	f.expectCatalog()
	f.users.On("FindByID", mock.Anything, uint(5)).
		Return(&model.User{ID: 5, GroupID: 2, UserRights: "{not json"}, nil).Once()

	m, err := NewUserManager(context.Background(), f.deps(), f.sess)

	assert.Nil(t, m)
	assert.ErrorIs(t, err, apperrors.ErrMalformedRights)
}

func TestNewUserManager_SampleError(t *testing.T) {
	f := newFixture()
	boom := errors.New("connection refused")
	f.users.On("Sample", mock.Anything).Return(nil, boom).Once()

	_, err := NewUserManager(context.Background(), f.deps(), f.sess)

	assert.ErrorIs(t, err, boom)
}

func TestNewUserManager_EmptyTablesGiveEmptyCatalog(t *testing.T) {
	f := newFixture()
	f.users.On("Sample", mock.Anything).Return(nil, nil).Once()
	f.groups.On("Sample", mock.Anything).Return(nil, nil).Once()
	f.groups.On("FindByID", mock.Anything, uint(1)).Return(guestGroup, nil).Once()

	m, err := NewUserManager(context.Background(), f.deps(), f.sess)

	require.NoError(t, err)
	assert.Empty(t, m.Catalog().Names())
	assert.Empty(t, m.User().Rights)
}

func TestUserManager_UserReturnsCopy(t *testing.T) {
	f := newFixture()
	m := f.manager(adminActor(9))

	view := m.User()
	view.Rights["admin"] = false

	assert.True(t, m.IsAdmin())
}
