package testutil

import (
	"context"

	"github.com/haatos/shipyard/internal/service"
	"github.com/haatos/shipyard/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) Reconcile(
	ctx context.Context,
	project *store.Project,
	forceRefresh bool,
) (*service.DeploymentView, error) {
	args := m.Called(ctx, project, forceRefresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeploymentView), nil
}

func (m *MockReconcileService) DeploymentHistory(
	ctx context.Context,
	projectID, limit int64,
) ([]store.Deployment, error) {
	args := m.Called(ctx, projectID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Deployment), nil
}

type MockDeployService struct {
	mock.Mock
}

func (m *MockDeployService) TriggerDeploy(
	ctx context.Context,
	project *store.Project,
	ref string,
) (*store.Deployment, error) {
	args := m.Called(ctx, project, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Deployment), nil
}

type MockRollbackService struct {
	mock.Mock
}

func (m *MockRollbackService) Rollback(
	ctx context.Context,
	project *store.Project,
	targetExternalRunID int64,
) (*store.Deployment, error) {
	args := m.Called(ctx, project, targetExternalRunID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Deployment), nil
}
