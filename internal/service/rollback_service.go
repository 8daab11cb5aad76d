package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/haatos/shipyard/internal/hosting"
	"github.com/haatos/shipyard/internal/store"
)

type HostingClient interface {
	ListDeployableArtifacts(ctx context.Context, hostingName string) ([]hosting.Artifact, error)
	Promote(ctx context.Context, hostingName, artifactID string) error
}

// RollbackService promotes a previously observed successful deployment back
// to production. Validation rejects before any mutation; a failed promote
// leaves the live pointer untouched, so local state stays consistent with
// whatever the hosting platform last served.
type RollbackService struct {
	deploymentStore store.DeploymentStore
	cache           store.CacheStore
	hostingClient   HostingClient
}

func NewRollbackService(
	deploymentStore store.DeploymentStore,
	cache store.CacheStore,
	hostingClient HostingClient,
) *RollbackService {
	return &RollbackService{
		deploymentStore: deploymentStore,
		cache:           cache,
		hostingClient:   hostingClient,
	}
}

func (s *RollbackService) Rollback(
	ctx context.Context,
	project *store.Project,
	targetExternalRunID int64,
) (*store.Deployment, error) {
	deployment, err := s.deploymentStore.ReadByExternalRunID(
		ctx, project.ProjectID, targetExternalRunID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewErrNotFound("deployment")
		}
		return nil, err
	}

	if deployment.DeploymentProjectID != project.ProjectID {
		return nil, NewErrInvalidArgument("deployment does not belong to this project")
	}
	if !deployment.IsSuccessful() {
		return nil, NewErrPreconditionFailed("only successful deployments can be promoted")
	}

	artifacts, err := s.hostingClient.ListDeployableArtifacts(ctx, project.HostingName)
	if err != nil {
		return nil, err
	}
	var artifact *hosting.Artifact
	for i := range artifacts {
		if artifacts[i].CommitHash == deployment.CommitSha {
			artifact = &artifacts[i]
			break
		}
	}
	if artifact == nil {
		return nil, NewErrNotFound("artifact")
	}

	if err := s.hostingClient.Promote(ctx, project.HostingName, artifact.ID); err != nil {
		return nil, err
	}

	if err := s.deploymentStore.MarkLive(
		ctx, project.ProjectID, deployment.DeploymentID,
	); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, deploymentsCacheKey(project.ProjectID))

	return s.deploymentStore.ReadDeploymentByID(ctx, deployment.DeploymentID)
}
