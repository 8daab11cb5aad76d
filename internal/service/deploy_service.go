package service

import (
	"context"

	"github.com/haatos/shipyard/internal"
	"github.com/haatos/shipyard/internal/security"
	"github.com/haatos/shipyard/internal/store"
)

// DeployService turns a deploy request into a pending intent and kicks the
// forge workflow. The intent exists before any external run does; the
// reconcile pass later matches it to the run the forge reports, or orphans
// it when nothing ever shows up.
type DeployService struct {
	deploymentStore store.DeploymentStore
	cache           store.CacheStore
	forgeClient     ForgeClient
	aesEncrypter    security.Encrypter
}

func NewDeployService(
	deploymentStore store.DeploymentStore,
	cache store.CacheStore,
	forgeClient ForgeClient,
	aesEncrypter security.Encrypter,
) *DeployService {
	return &DeployService{
		deploymentStore: deploymentStore,
		cache:           cache,
		forgeClient:     forgeClient,
		aesEncrypter:    aesEncrypter,
	}
}

func (s *DeployService) TriggerDeploy(
	ctx context.Context,
	project *store.Project,
	ref string,
) (*store.Deployment, error) {
	if ref == "" {
		ref = project.DefaultBranch
	}

	token, err := s.aesEncrypter.DecryptAES(project.ForgeTokenEncrypted)
	if err != nil {
		return nil, err
	}

	commit, err := s.forgeClient.GetCommit(
		ctx, string(token), project.RepoOwner, project.RepoName, ref,
	)
	if err != nil {
		return nil, err
	}

	deployment, err := s.deploymentStore.CreateIntent(
		ctx, project.ProjectID, commit.Sha, commit.Message, commit.Author,
	)
	if err != nil {
		return nil, err
	}

	if err := s.forgeClient.DispatchWorkflow(
		ctx, string(token),
		project.RepoOwner, project.RepoName,
		internal.DeployWorkflowFile, ref,
	); err != nil {
		// the intent stays pending and is orphaned by timeout
		return nil, err
	}

	// a new deployment invalidates the cached run list immediately
	s.cache.Delete(ctx, deploymentsCacheKey(project.ProjectID))

	return deployment, nil
}
