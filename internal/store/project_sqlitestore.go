package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type ProjectSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewProjectSQLiteStore(rdb, rwdb *sql.DB) *ProjectSQLiteStore {
	return &ProjectSQLiteStore{rdb, rwdb}
}

func (store *ProjectSQLiteStore) CreateProject(
	ctx context.Context,
	name, repoOwner, repoName, defaultBranch, hostingName, forgeTokenEncrypted string,
) (*Project, error) {
	p := &Project{
		Name:                name,
		RepoOwner:           repoOwner,
		RepoName:            repoName,
		DefaultBranch:       defaultBranch,
		HostingName:         hostingName,
		ForgeTokenEncrypted: forgeTokenEncrypted,
	}
	query := `insert into projects (
		name,
		repo_owner,
		repo_name,
		default_branch,
		hosting_name,
		forge_token_encrypted
	)
	values ($1, $2, $3, $4, $5, $6)
	returning project_id, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, p, query,
		p.Name,
		p.RepoOwner,
		p.RepoName,
		p.DefaultBranch,
		p.HostingName,
		p.ForgeTokenEncrypted,
	); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *ProjectSQLiteStore) ReadProjectByID(
	ctx context.Context,
	projectID int64,
) (*Project, error) {
	p := new(Project)
	query := `select * from projects where project_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, p, query, projectID); err != nil {
		return nil, err
	}
	return p, nil
}

func (store *ProjectSQLiteStore) UpdateProjectForgeToken(
	ctx context.Context,
	projectID int64,
	forgeTokenEncrypted string,
) error {
	query := `update projects set forge_token_encrypted = $1 where project_id = $2`
	_, err := store.rwdb.ExecContext(ctx, query, forgeTokenEncrypted, projectID)
	return err
}

func (store *ProjectSQLiteStore) DeleteProject(ctx context.Context, projectID int64) error {
	query := `delete from projects where project_id = $1`
	_, err := store.rwdb.ExecContext(ctx, query, projectID)
	return err
}

func (store *ProjectSQLiteStore) ListProjects(ctx context.Context) ([]*Project, error) {
	query := `select * from projects order by name`
	projects := make([]*Project, 0)
	err := sqlscan.Select(ctx, store.rdb, &projects, query)
	return projects, err
}
