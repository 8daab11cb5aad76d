package handler

import (
	"context"
	"net/http"

	"github.com/haatos/shipyard/internal/store"
	"github.com/labstack/echo/v4"
)

type ProjectServicer interface {
	CreateProject(ctx context.Context, name, repoOwner, repoName, defaultBranch, hostingName, forgeToken string) (*store.Project, error)
	GetProjectByID(ctx context.Context, projectID int64) (*store.Project, error)
	UpdateProjectForgeToken(ctx context.Context, projectID int64, forgeToken string) error
	DeleteProject(ctx context.Context, projectID int64) error
	ListProjects(ctx context.Context) ([]*store.Project, error)
}

type ProjectHandler struct {
	projectService ProjectServicer
}

func NewProjectHandler(projectService ProjectServicer) *ProjectHandler {
	return &ProjectHandler{projectService}
}

type projectResponse struct {
	ProjectID     int64  `json:"project_id"`
	Name          string `json:"name"`
	RepoOwner     string `json:"repo_owner"`
	RepoName      string `json:"repo_name"`
	DefaultBranch string `json:"default_branch"`
	HostingName   string `json:"hosting_name"`
}

func toProjectResponse(p *store.Project) projectResponse {
	return projectResponse{
		ProjectID:     p.ProjectID,
		Name:          p.Name,
		RepoOwner:     p.RepoOwner,
		RepoName:      p.RepoName,
		DefaultBranch: p.DefaultBranch,
		HostingName:   p.HostingName,
	}
}

func (h *ProjectHandler) PostProject(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid project data")
	}
	if pp.Name == "" || pp.RepoOwner == "" || pp.RepoName == "" || pp.HostingName == "" {
		return newError(c, nil, http.StatusBadRequest, "missing required project fields")
	}
	if pp.DefaultBranch == "" {
		pp.DefaultBranch = "main"
	}

	p, err := h.projectService.CreateProject(
		c.Request().Context(),
		pp.Name, pp.RepoOwner, pp.RepoName, pp.DefaultBranch, pp.HostingName, pp.ForgeToken,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return newError(c, err, http.StatusConflict, "a project with this name already exists")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to create project")
	}

	return c.JSON(http.StatusCreated, toProjectResponse(p))
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid project id")
	}

	p, err := h.projectService.GetProjectByID(c.Request().Context(), pp.ProjectID)
	if err != nil {
		return newError(c, err, http.StatusNotFound, "project not found")
	}
	return c.JSON(http.StatusOK, toProjectResponse(p))
}

func (h *ProjectHandler) PatchProjectForgeToken(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid project data")
	}
	if pp.ForgeToken == "" {
		return newError(c, nil, http.StatusBadRequest, "missing forge token")
	}

	if err := h.projectService.UpdateProjectForgeToken(
		c.Request().Context(), pp.ProjectID, pp.ForgeToken,
	); err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to update forge token")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid project id")
	}

	if err := h.projectService.DeleteProject(c.Request().Context(), pp.ProjectID); err != nil {
		if isForeignKeyConstraintError(err) {
			return newError(c, err, http.StatusConflict, "project still has dependent rows")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to delete project")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHandler) GetProjects(c echo.Context) error {
	projects, err := h.projectService.ListProjects(c.Request().Context())
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list projects")
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	return c.JSON(http.StatusOK, out)
}
