package testutil

import (
	"context"

	"github.com/haatos/shipyard/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(
	ctx context.Context,
	role store.Role,
	username, password string,
) (*store.User, error) {
	args := m.Called(ctx, role, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.User), nil
}

func (m *MockUserService) GetUserByUsernameAndPassword(
	ctx context.Context,
	username, password string,
) (*store.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.User), nil
}

func (m *MockUserService) GetUserBySessionID(
	ctx context.Context,
	sessionID string,
) (*store.User, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.User), nil
}

func (m *MockUserService) CreateAuthSession(
	ctx context.Context,
	userID int64,
) (*store.AuthSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.AuthSession), nil
}

func (m *MockUserService) SetUserPassword(
	ctx context.Context,
	userID int64,
	newPassword string,
) error {
	args := m.Called(ctx, userID, newPassword)
	return args.Error(0)
}

func (m *MockUserService) DeleteUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]*store.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.User), nil
}

type MockCookieService struct {
	mock.Mock
}

func (m *MockCookieService) GetSessionID(c echo.Context) (string, error) {
	args := m.Called(c)
	return args.String(0), args.Error(1)
}

func (m *MockCookieService) SetSessionCookie(c echo.Context, sessionID string) error {
	args := m.Called(c, sessionID)
	return args.Error(0)
}

func (m *MockCookieService) RemoveSessionCookie(c echo.Context) {
	m.Called(c)
}
