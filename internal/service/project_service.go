package service

import (
	"context"

	"github.com/haatos/shipyard/internal/security"
	"github.com/haatos/shipyard/internal/store"
)

type ProjectService struct {
	store        store.ProjectStore
	aesEncrypter security.Encrypter
}

func NewProjectService(
	projectStore store.ProjectStore,
	aesEncrypter security.Encrypter,
) *ProjectService {
	return &ProjectService{store: projectStore, aesEncrypter: aesEncrypter}
}

func (s *ProjectService) CreateProject(
	ctx context.Context,
	name, repoOwner, repoName, defaultBranch, hostingName, forgeToken string,
) (*store.Project, error) {
	return s.store.CreateProject(
		ctx,
		name, repoOwner, repoName, defaultBranch, hostingName,
		s.aesEncrypter.EncryptAES(forgeToken),
	)
}

func (s *ProjectService) GetProjectByID(ctx context.Context, projectID int64) (*store.Project, error) {
	return s.store.ReadProjectByID(ctx, projectID)
}

func (s *ProjectService) UpdateProjectForgeToken(
	ctx context.Context,
	projectID int64,
	forgeToken string,
) error {
	return s.store.UpdateProjectForgeToken(ctx, projectID, s.aesEncrypter.EncryptAES(forgeToken))
}

func (s *ProjectService) DeleteProject(ctx context.Context, projectID int64) error {
	return s.store.DeleteProject(ctx, projectID)
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]*store.Project, error) {
	return s.store.ListProjects(ctx)
}
