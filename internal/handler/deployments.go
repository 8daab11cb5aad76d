package handler

import (
	"context"
	"net/http"

	"github.com/haatos/shipyard/internal"
	"github.com/haatos/shipyard/internal/service"
	"github.com/haatos/shipyard/internal/store"
	"github.com/labstack/echo/v4"
)

type Reconciler interface {
	Reconcile(ctx context.Context, project *store.Project, forceRefresh bool) (*service.DeploymentView, error)
	DeploymentHistory(ctx context.Context, projectID, limit int64) ([]store.Deployment, error)
}

type DeployTriggerer interface {
	TriggerDeploy(ctx context.Context, project *store.Project, ref string) (*store.Deployment, error)
}

type Rollbacker interface {
	Rollback(ctx context.Context, project *store.Project, targetExternalRunID int64) (*store.Deployment, error)
}

type ProjectReader interface {
	GetProjectByID(ctx context.Context, projectID int64) (*store.Project, error)
}

type APIKeyReader interface {
	GetAPIKeyByValue(ctx context.Context, value string) (*store.APIKey, error)
}

type DeploymentHandler struct {
	projectService   ProjectReader
	reconcileService Reconciler
	deployService    DeployTriggerer
	rollbackService  Rollbacker
	apiKeyService    APIKeyReader
}

func NewDeploymentHandler(
	projectService ProjectReader,
	reconcileService Reconciler,
	deployService DeployTriggerer,
	rollbackService Rollbacker,
	apiKeyService APIKeyReader,
) *DeploymentHandler {
	return &DeploymentHandler{
		projectService:   projectService,
		reconcileService: reconcileService,
		deployService:    deployService,
		rollbackService:  rollbackService,
		apiKeyService:    apiKeyService,
	}
}

type deploymentListResponse struct {
	*service.DeploymentView
	PollSeconds int64 `json:"poll_seconds"`
}

func (h *DeploymentHandler) GetProjectDeployments(c echo.Context) error {
	dp := new(DeploymentListParams)
	if err := c.Bind(dp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid deployment query")
	}

	project, err := h.projectService.GetProjectByID(c.Request().Context(), dp.ProjectID)
	if err != nil {
		return newError(c, err, http.StatusNotFound, "project not found")
	}

	view, err := h.reconcileService.Reconcile(c.Request().Context(), project, dp.Refresh)
	if err != nil {
		return newError(
			c, err,
			http.StatusBadGateway,
			"unable to fetch deployments from the forge",
		)
	}

	return c.JSON(http.StatusOK, deploymentListResponse{
		DeploymentView: view,
		PollSeconds:    pollSeconds(view),
	})
}

// pollSeconds derives the client polling cadence from the merged view:
// an executing run polls faster than a queued one, and a settled project
// stops polling.
func pollSeconds(view *service.DeploymentView) int64 {
	if !view.HasActiveDeployment {
		return 0
	}
	for _, item := range view.Items {
		if item.RunStatus == store.RunInProgress {
			return internal.Config.InProgressPollSeconds
		}
	}
	return internal.Config.QueuedPollSeconds
}

func (h *DeploymentHandler) GetProjectDeploymentHistory(c echo.Context) error {
	hp := new(HistoryParams)
	if err := c.Bind(hp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid history query")
	}
	if hp.Limit <= 0 || hp.Limit > 200 {
		hp.Limit = 50
	}

	if _, err := h.projectService.GetProjectByID(c.Request().Context(), hp.ProjectID); err != nil {
		return newError(c, err, http.StatusNotFound, "project not found")
	}

	deployments, err := h.reconcileService.DeploymentHistory(
		c.Request().Context(), hp.ProjectID, hp.Limit,
	)
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list deployments")
	}
	return c.JSON(http.StatusOK, deployments)
}

func (h *DeploymentHandler) PostProjectDeployment(c echo.Context) error {
	tp := new(TriggerDeployParams)
	if err := c.Bind(tp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid deploy data")
	}

	project, err := h.projectService.GetProjectByID(c.Request().Context(), tp.ProjectID)
	if err != nil {
		return newError(c, err, http.StatusNotFound, "project not found")
	}

	deployment, err := h.deployService.TriggerDeploy(c.Request().Context(), project, tp.Ref)
	if err != nil {
		return newError(
			c, err,
			http.StatusBadGateway,
			"unable to trigger deployment",
		)
	}

	return c.JSON(http.StatusCreated, deployment)
}

func (h *DeploymentHandler) PostProjectRollback(c echo.Context) error {
	rp := new(RollbackParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid rollback data")
	}

	project, err := h.projectService.GetProjectByID(c.Request().Context(), rp.ProjectID)
	if err != nil {
		return newError(c, err, http.StatusNotFound, "project not found")
	}

	deployment, err := h.rollbackService.Rollback(
		c.Request().Context(), project, rp.ExternalRunID,
	)
	if err != nil {
		// taxonomy errors carry their own status and reason
		return err
	}

	return c.JSON(http.StatusOK, deployment)
}

// PostWebhookDeployTrigger lets a forge push-webhook trigger a deploy using
// an API key instead of a session.
func (h *DeploymentHandler) PostWebhookDeployTrigger(c echo.Context) error {
	keyValue := c.Request().Header.Get(internal.WebhookTriggerKeyHeader)
	if keyValue == "" {
		return newError(c, nil, http.StatusUnauthorized, "missing webhook key")
	}
	if _, err := h.apiKeyService.GetAPIKeyByValue(c.Request().Context(), keyValue); err != nil {
		return newError(c, err, http.StatusUnauthorized, "invalid webhook key")
	}

	return h.PostProjectDeployment(c)
}
