package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/haatos/shipyard/internal"
	"github.com/haatos/shipyard/internal/forge"
	"github.com/haatos/shipyard/internal/security"
	"github.com/haatos/shipyard/internal/store"
	"github.com/haatos/shipyard/internal/util"
)

const (
	commitAuthorPlaceholder  = "unknown"
	commitMessagePlaceholder = "(commit details unavailable)"
)

type ForgeClient interface {
	ListRecentRuns(ctx context.Context, token, owner, repo string, limit int64) ([]forge.WorkflowRun, error)
	GetCommit(ctx context.Context, token, owner, repo, sha string) (*forge.Commit, error)
	DispatchWorkflow(ctx context.Context, token, owner, repo, workflow, ref string) error
}

// EnrichedRun is a forge workflow run plus best-effort commit metadata.
// This is the shape cached between polls.
type EnrichedRun struct {
	ID            int64     `json:"id"`
	HeadSha       string    `json:"head_sha"`
	Status        string    `json:"status"`
	Conclusion    *string   `json:"conclusion"`
	RunURL        string    `json:"run_url"`
	CommitMessage string    `json:"commit_message"`
	CommitAuthor  string    `json:"commit_author"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CardKind string

const (
	CardKindIntent      CardKind = "intent"
	CardKindExternalRun CardKind = "external_run"
)

// DeploymentCard is one entry of the merged status view. Kind discriminates
// pending local intents from runs the forge has acknowledged; intents carry
// a synthesized id so they can never be mistaken for a real run.
type DeploymentCard struct {
	Kind          CardKind         `json:"kind"`
	ID            string           `json:"id"`
	ExternalRunID *int64           `json:"external_run_id,omitempty"`
	CommitSha     string           `json:"commit_sha"`
	CommitMessage string           `json:"commit_message"`
	CommitAuthor  string           `json:"commit_author"`
	RunStatus     store.RunStatus   `json:"run_status"`
	Conclusion    *store.Conclusion `json:"conclusion,omitempty"`
	RunURL        *string           `json:"run_url,omitempty"`
	IsLive        bool              `json:"is_live"`
	CreatedAt     time.Time         `json:"created_at"`
}

type DeploymentView struct {
	Items               []DeploymentCard `json:"items"`
	FromCache           bool             `json:"from_cache"`
	HasActiveDeployment bool             `json:"has_active_deployment"`
}

// ReconcileService keeps local deployment records synchronized with the
// forge's eventually-consistent view of a project's workflow runs. It runs
// entirely within the calling request; every pass is self-correcting, so
// partial progress from a cancelled or failed pass is safe to leave behind.
type ReconcileService struct {
	deploymentStore store.DeploymentStore
	cache           store.CacheStore
	forgeClient     ForgeClient
	aesEncrypter    security.Encrypter
}

func NewReconcileService(
	deploymentStore store.DeploymentStore,
	cache store.CacheStore,
	forgeClient ForgeClient,
	aesEncrypter security.Encrypter,
) *ReconcileService {
	return &ReconcileService{
		deploymentStore: deploymentStore,
		cache:           cache,
		forgeClient:     forgeClient,
		aesEncrypter:    aesEncrypter,
	}
}

func deploymentsCacheKey(projectID int64) string {
	return fmt.Sprintf("deployments:%d", projectID)
}

// DeploymentHistory lists a project's stored deployment rows, newest
// first. Unlike Reconcile it never talks to the forge, so orphaned and
// long-settled rows show up here even when the forge has forgotten them.
func (s *ReconcileService) DeploymentHistory(
	ctx context.Context,
	projectID, limit int64,
) ([]store.Deployment, error) {
	return s.deploymentStore.ListProjectDeployments(ctx, projectID, limit)
}

func (s *ReconcileService) InvalidateProject(ctx context.Context, projectID int64) {
	s.cache.Delete(ctx, deploymentsCacheKey(projectID))
}

// Reconcile pulls recent runs (through the cache unless forceRefresh),
// persists them, expires stale intents, matches the remaining ones by SHA
// prefix, repairs the live pointer and reports whether anything is still
// executing. Only a failure of the run listing itself is fatal; every
// per-item failure is logged and skipped.
func (s *ReconcileService) Reconcile(
	ctx context.Context,
	project *store.Project,
	forceRefresh bool,
) (*DeploymentView, error) {
	key := deploymentsCacheKey(project.ProjectID)
	if forceRefresh {
		s.cache.Delete(ctx, key)
	}

	token, err := s.aesEncrypter.DecryptAES(project.ForgeTokenEncrypted)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(internal.Config.RunCacheTTLSeconds) * time.Second
	runs, fromCache, err := store.GetOrFetch(
		ctx, s.cache, key, ttl,
		func(ctx context.Context) ([]EnrichedRun, error) {
			return s.fetchRecentRuns(ctx, string(token), project)
		},
	)
	if err != nil {
		return nil, err
	}

	for _, run := range runs {
		if err := s.deploymentStore.UpsertExternalRun(
			ctx, project.ProjectID, runToUpsert(run),
		); err != nil {
			log.Printf("err upserting run %d for project %d: %v\n",
				run.ID, project.ProjectID, err)
		}
	}

	orphanTimeout := time.Duration(internal.Config.OrphanTimeoutMinutes) * time.Minute
	cutoff := time.Now().UTC().Add(-orphanTimeout)
	if err := s.deploymentStore.MarkOrphaned(ctx, project.ProjectID, cutoff); err != nil {
		// next pass repeats the sweep, stale cards linger until it succeeds
		log.Printf("err marking orphaned intents for project %d: %v\n", project.ProjectID, err)
	}

	pending, err := s.deploymentStore.ListPending(ctx, project.ProjectID)
	if err != nil {
		return nil, err
	}
	pending = s.matchPending(ctx, project.ProjectID, pending, runs)

	view := s.buildView(ctx, project.ProjectID, pending, runs, fromCache)
	return view, nil
}

func (s *ReconcileService) fetchRecentRuns(
	ctx context.Context,
	token string,
	project *store.Project,
) ([]EnrichedRun, error) {
	workflowRuns, err := s.forgeClient.ListRecentRuns(
		ctx, token, project.RepoOwner, project.RepoName, internal.Config.RunFetchLimit,
	)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedRun, 0, len(workflowRuns))
	for _, run := range workflowRuns {
		er := EnrichedRun{
			ID:            run.ID,
			HeadSha:       run.HeadSha,
			Status:        run.Status,
			Conclusion:    run.Conclusion,
			RunURL:        run.HTMLURL,
			CommitMessage: commitMessagePlaceholder,
			CommitAuthor:  commitAuthorPlaceholder,
			CreatedAt:     run.CreatedAt,
			UpdatedAt:     run.UpdatedAt,
		}
		commit, err := s.forgeClient.GetCommit(
			ctx, token, project.RepoOwner, project.RepoName, run.HeadSha,
		)
		if err != nil {
			log.Printf("err fetching commit %s: %v\n", run.HeadSha, err)
		} else {
			er.CommitMessage = commit.Message
			er.CommitAuthor = commit.Author
		}
		enriched = append(enriched, er)
	}
	return enriched, nil
}

// matchPending links pending intents to fetched runs by SHA prefix and
// returns the intents that stayed pending. Pending rows arrive newest
// first and each run id is claimed once per pass, so when several intents
// target the same commit, the latest trigger wins the run.
func (s *ReconcileService) matchPending(
	ctx context.Context,
	projectID int64,
	pending []store.Deployment,
	runs []EnrichedRun,
) []store.Deployment {
	claimed := make(map[int64]bool)
	stillPending := make([]store.Deployment, 0, len(pending))

	for _, intent := range pending {
		matched := false
		for _, run := range runs {
			if claimed[run.ID] || !util.ShaPrefixMatch(intent.CommitSha, run.HeadSha) {
				continue
			}
			ok, err := s.deploymentStore.MatchPendingToRun(
				ctx, projectID, intent.DeploymentID, runToUpsert(run),
			)
			if err != nil {
				log.Printf("err matching intent %d to run %d: %v\n",
					intent.DeploymentID, run.ID, err)
				break
			}
			if ok {
				claimed[run.ID] = true
				matched = true
			}
			// first prefix match in provider order settles this intent
			break
		}
		if !matched {
			stillPending = append(stillPending, intent)
		}
	}
	return stillPending
}

func (s *ReconcileService) buildView(
	ctx context.Context,
	projectID int64,
	pending []store.Deployment,
	runs []EnrichedRun,
	fromCache bool,
) *DeploymentView {
	liveRunID := s.resolveLiveRun(ctx, projectID, runs)

	items := make([]DeploymentCard, 0, len(pending)+len(runs))
	for _, intent := range pending {
		items = append(items, DeploymentCard{
			Kind:          CardKindIntent,
			ID:            fmt.Sprintf("intent-%d", intent.DeploymentID),
			CommitSha:     intent.CommitSha,
			CommitMessage: intent.CommitMessage,
			CommitAuthor:  intent.CommitAuthor,
			RunStatus:     store.RunQueued,
			CreatedAt:     intent.TriggeredOn,
		})
	}
	for _, run := range runs {
		runID := run.ID
		card := DeploymentCard{
			Kind:          CardKindExternalRun,
			ID:            fmt.Sprintf("run-%d", run.ID),
			ExternalRunID: &runID,
			CommitSha:     run.HeadSha,
			CommitMessage: run.CommitMessage,
			CommitAuthor:  run.CommitAuthor,
			RunStatus:     normalizeRunStatus(run.Status),
			RunURL:        &run.RunURL,
			IsLive:        liveRunID != nil && *liveRunID == run.ID,
			CreatedAt:     run.CreatedAt,
		}
		if run.Conclusion != nil {
			conclusion := store.Conclusion(*run.Conclusion)
			card.Conclusion = &conclusion
		}
		items = append(items, card)
	}

	hasActive := false
	for _, item := range items {
		if item.RunStatus == store.RunQueued || item.RunStatus == store.RunInProgress {
			hasActive = true
			break
		}
	}

	return &DeploymentView{
		Items:               items,
		FromCache:           fromCache,
		HasActiveDeployment: hasActive,
	}
}

// resolveLiveRun returns the external run id of the project's live
// deployment, self-healing when none is marked: the most recent successful
// run becomes live so a first deploy needs no special casing.
func (s *ReconcileService) resolveLiveRun(
	ctx context.Context,
	projectID int64,
	runs []EnrichedRun,
) *int64 {
	live, err := s.deploymentStore.ReadLive(ctx, projectID)
	if err == nil {
		return live.ExternalRunID
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Printf("err reading live deployment for project %d: %v\n", projectID, err)
		return nil
	}

	for _, run := range runs {
		if normalizeRunStatus(run.Status) != store.RunCompleted ||
			run.Conclusion == nil ||
			store.Conclusion(*run.Conclusion) != store.ConclusionSuccess {
			continue
		}
		d, err := s.deploymentStore.ReadByExternalRunID(ctx, projectID, run.ID)
		if err != nil {
			log.Printf("err reading deployment for run %d: %v\n", run.ID, err)
			return nil
		}
		if err := s.deploymentStore.MarkLive(ctx, projectID, d.DeploymentID); err != nil {
			log.Printf("err marking deployment %d live: %v\n", d.DeploymentID, err)
			return nil
		}
		runID := run.ID
		return &runID
	}
	return nil
}

// normalizeRunStatus folds the forge's pre-execution statuses into queued.
func normalizeRunStatus(status string) store.RunStatus {
	switch store.RunStatus(status) {
	case store.RunInProgress:
		return store.RunInProgress
	case store.RunCompleted:
		return store.RunCompleted
	default:
		return store.RunQueued
	}
}

func runToUpsert(run EnrichedRun) store.ExternalRunUpsert {
	upsert := store.ExternalRunUpsert{
		ExternalRunID: run.ID,
		CommitSha:     run.HeadSha,
		CommitMessage: run.CommitMessage,
		CommitAuthor:  run.CommitAuthor,
		RunStatus:     normalizeRunStatus(run.Status),
		CreatedOn:     run.CreatedAt,
	}
	if run.RunURL != "" {
		url := run.RunURL
		upsert.RunURL = &url
	}
	if run.Conclusion != nil {
		conclusion := store.Conclusion(*run.Conclusion)
		upsert.Conclusion = &conclusion
	}
	return upsert
}
