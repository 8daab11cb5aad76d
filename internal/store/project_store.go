package store

import (
	"context"
	"time"
)

// Project is a connected source repository plus its hosting target.
type Project struct {
	ProjectID           int64 `param:"project_id"`
	Name                string
	RepoOwner           string
	RepoName            string
	DefaultBranch       string
	HostingName         string
	ForgeTokenEncrypted string
	CreatedOn           time.Time
}

type ProjectStore interface {
	CreateProject(context.Context, string, string, string, string, string, string) (*Project, error)
	ReadProjectByID(context.Context, int64) (*Project, error)
	UpdateProjectForgeToken(context.Context, int64, string) error
	DeleteProject(context.Context, int64) error
	ListProjects(context.Context) ([]*Project, error)
}
