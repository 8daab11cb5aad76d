package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/haatos/shipyard/internal"
)

type DeploymentSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewDeploymentSQLiteStore(rdb, rwdb *sql.DB) *DeploymentSQLiteStore {
	return &DeploymentSQLiteStore{rdb, rwdb}
}

func dbTime(t time.Time) string {
	return t.UTC().Format(internal.DBTimestampLayout)
}

func (store *DeploymentSQLiteStore) CreateIntent(
	ctx context.Context,
	projectID int64,
	commitSha, commitMessage, commitAuthor string,
) (*Deployment, error) {
	d := &Deployment{
		DeploymentProjectID: projectID,
		CommitSha:           commitSha,
		CommitMessage:       commitMessage,
		CommitAuthor:        commitAuthor,
		IntentStatus:        IntentPending,
	}
	now := time.Now().UTC()
	query := `insert into deployments (
		deployment_project_id,
		commit_sha,
		commit_message,
		commit_author,
		intent_status,
		triggered_on,
		updated_on
	)
	values ($1, $2, $3, $4, $5, $6, $6)
	returning deployment_id, triggered_on, updated_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, d, query,
		d.DeploymentProjectID,
		d.CommitSha,
		d.CommitMessage,
		d.CommitAuthor,
		d.IntentStatus,
		dbTime(now),
	); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeploymentSQLiteStore) UpsertExternalRun(
	ctx context.Context,
	projectID int64,
	run ExternalRunUpsert,
) error {
	query := `insert into deployments (
		deployment_project_id,
		external_run_id,
		commit_sha,
		commit_message,
		commit_author,
		intent_status,
		run_status,
		conclusion,
		run_url,
		triggered_on,
		matched_on,
		updated_on
	)
	values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	on conflict (deployment_project_id, external_run_id) do update set
		run_status = excluded.run_status,
		conclusion = excluded.conclusion,
		run_url = excluded.run_url,
		commit_message = excluded.commit_message,
		commit_author = excluded.commit_author,
		updated_on = excluded.updated_on`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		projectID,
		run.ExternalRunID,
		run.CommitSha,
		run.CommitMessage,
		run.CommitAuthor,
		IntentMatched,
		run.RunStatus,
		run.Conclusion,
		run.RunURL,
		dbTime(run.CreatedOn),
		dbTime(time.Now().UTC()),
	)
	return err
}

// MatchPendingToRun links a pending intent to an external run. The run has
// usually already been upserted as its own row earlier in the same
// reconciliation pass, so the transaction absorbs that row into the intent
// to keep (project, external_run_id) unique. The intent-status guard makes
// the update a no-op if the row was orphaned or matched concurrently.
func (store *DeploymentSQLiteStore) MatchPendingToRun(
	ctx context.Context,
	projectID, deploymentID int64,
	run ExternalRunUpsert,
) (bool, error) {
	tx, err := store.rwdb.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var wasLive bool
	err = sqlscan.Get(
		ctx, tx, &wasLive,
		`select coalesce(max(is_live), 0) from deployments
		where deployment_project_id = $1
			and external_run_id = $2
			and deployment_id != $3`,
		projectID, run.ExternalRunID, deploymentID,
	)
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(
		ctx,
		`delete from deployments
		where deployment_project_id = $1
			and external_run_id = $2
			and deployment_id != $3`,
		projectID, run.ExternalRunID, deploymentID,
	); err != nil {
		return false, err
	}

	now := dbTime(time.Now().UTC())
	res, err := tx.ExecContext(
		ctx,
		`update deployments set
			intent_status = $1,
			external_run_id = $2,
			run_status = $3,
			conclusion = $4,
			run_url = $5,
			is_live = max(is_live, $6),
			matched_on = $7,
			updated_on = $7
		where deployment_id = $8
			and deployment_project_id = $9
			and intent_status = $10`,
		IntentMatched,
		run.ExternalRunID,
		run.RunStatus,
		run.Conclusion,
		run.RunURL,
		wasLive,
		now,
		deploymentID,
		projectID,
		IntentPending,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// intent no longer pending, leave everything untouched
		return false, tx.Rollback()
	}
	return true, tx.Commit()
}

func (store *DeploymentSQLiteStore) MarkOrphaned(
	ctx context.Context,
	projectID int64,
	cutoff time.Time,
) error {
	query := `update deployments set
		intent_status = $1,
		updated_on = $2
	where deployment_project_id = $3
		and intent_status = $4
		and triggered_on < $5`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		IntentOrphaned,
		dbTime(time.Now().UTC()),
		projectID,
		IntentPending,
		dbTime(cutoff),
	)
	return err
}

// MarkLive clears any previous live row for the project and sets the new one
// within a single transaction, so at most one row per project is ever live.
func (store *DeploymentSQLiteStore) MarkLive(
	ctx context.Context,
	projectID, deploymentID int64,
) error {
	tx, err := store.rwdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := dbTime(time.Now().UTC())
	if _, err := tx.ExecContext(
		ctx,
		`update deployments set is_live = 0, updated_on = $1
		where deployment_project_id = $2 and is_live = 1`,
		now, projectID,
	); err != nil {
		return err
	}

	res, err := tx.ExecContext(
		ctx,
		`update deployments set is_live = 1, updated_on = $1
		where deployment_id = $2 and deployment_project_id = $3`,
		now, deploymentID, projectID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func (store *DeploymentSQLiteStore) ReadDeploymentByID(
	ctx context.Context,
	deploymentID int64,
) (*Deployment, error) {
	d := new(Deployment)
	query := `select * from deployments where deployment_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, d, query, deploymentID); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeploymentSQLiteStore) ReadByExternalRunID(
	ctx context.Context,
	projectID, externalRunID int64,
) (*Deployment, error) {
	d := new(Deployment)
	query := `select * from deployments
	where deployment_project_id = $1 and external_run_id = $2`
	if err := sqlscan.Get(ctx, store.rdb, d, query, projectID, externalRunID); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeploymentSQLiteStore) ReadLive(
	ctx context.Context,
	projectID int64,
) (*Deployment, error) {
	d := new(Deployment)
	query := `select * from deployments
	where deployment_project_id = $1 and is_live = 1`
	if err := sqlscan.Get(ctx, store.rdb, d, query, projectID); err != nil {
		return nil, err
	}
	return d, nil
}

func (store *DeploymentSQLiteStore) ListPending(
	ctx context.Context,
	projectID int64,
) ([]Deployment, error) {
	query := `select * from deployments
	where deployment_project_id = $1 and intent_status = $2
	order by triggered_on desc`
	deployments := make([]Deployment, 0)
	err := sqlscan.Select(ctx, store.rdb, &deployments, query, projectID, IntentPending)
	return deployments, err
}

func (store *DeploymentSQLiteStore) ListProjectDeployments(
	ctx context.Context,
	projectID, limit int64,
) ([]Deployment, error) {
	query := `select * from deployments
	where deployment_project_id = $1
	order by triggered_on desc limit $2`
	deployments := make([]Deployment, 0)
	err := sqlscan.Select(ctx, store.rdb, &deployments, query, projectID, limit)
	return deployments, err
}
