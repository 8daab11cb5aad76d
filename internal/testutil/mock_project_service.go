package testutil

import (
	"context"

	"github.com/haatos/shipyard/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) CreateProject(
	ctx context.Context,
	name, repoOwner, repoName, defaultBranch, hostingName, forgeToken string,
) (*store.Project, error) {
	args := m.Called(ctx, name, repoOwner, repoName, defaultBranch, hostingName, forgeToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Project), nil
}

func (m *MockProjectService) GetProjectByID(
	ctx context.Context,
	projectID int64,
) (*store.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Project), nil
}

func (m *MockProjectService) UpdateProjectForgeToken(
	ctx context.Context,
	projectID int64,
	forgeToken string,
) error {
	args := m.Called(ctx, projectID, forgeToken)
	return args.Error(0)
}

func (m *MockProjectService) DeleteProject(ctx context.Context, projectID int64) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func (m *MockProjectService) ListProjects(ctx context.Context) ([]*store.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Project), nil
}
