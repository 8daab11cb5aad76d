package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/haatos/shipyard/internal/util"
	"github.com/stretchr/testify/assert"
)

func TestDeploymentSQLiteStore_CreateIntent(t *testing.T) {
	t.Run("success - intent starts pending without run fields", func(t *testing.T) {
		// arrange
		p := createProject(t)
		sha := "4f2bb16c0d9b7e3f2a1c5d6e7f8091a2b3c4d5e6"

		// act
		d, err := deploymentStore.CreateIntent(
			context.Background(),
			p.ProjectID,
			sha,
			"add health endpoint",
			"haatos",
		)

		// assert
		assert.NoError(t, err)
		assert.NotNil(t, d)
		assert.NotEqual(t, 0, d.DeploymentID)
		assert.Equal(t, p.ProjectID, d.DeploymentProjectID)
		assert.Equal(t, sha, d.CommitSha)
		assert.Equal(t, IntentPending, d.IntentStatus)
		assert.Nil(t, d.ExternalRunID)
		assert.Nil(t, d.RunStatus)
		assert.Nil(t, d.Conclusion)
		assert.False(t, d.IsLive)
		assert.False(t, d.TriggeredOn.IsZero())
	})
	t.Run("failure - project does not exist", func(t *testing.T) {
		// act
		d, err := deploymentStore.CreateIntent(
			context.Background(),
			987654,
			"4f2bb16c",
			"",
			"",
		)

		// assert
		assert.Error(t, err)
		assert.Nil(t, d)
	})
}

func TestDeploymentSQLiteStore_UpsertExternalRun(t *testing.T) {
	t.Run("success - repeated upsert updates the same row", func(t *testing.T) {
		// arrange
		p := createProject(t)
		run := ExternalRunUpsert{
			ExternalRunID: 1001,
			CommitSha:     "aa11bb22cc33dd44ee55ff667788990011223344",
			CommitMessage: "first deploy",
			CommitAuthor:  "haatos",
			RunStatus:     RunQueued,
			RunURL:        util.AsPtr("https://forge.example/runs/1001"),
			CreatedOn:     time.Now().UTC(),
		}
		err := deploymentStore.UpsertExternalRun(context.Background(), p.ProjectID, run)
		assert.NoError(t, err)

		// act
		run.RunStatus = RunCompleted
		run.Conclusion = util.AsPtr(ConclusionSuccess)
		err = deploymentStore.UpsertExternalRun(context.Background(), p.ProjectID, run)

		// assert
		assert.NoError(t, err)

		d, readErr := deploymentStore.ReadByExternalRunID(
			context.Background(), p.ProjectID, run.ExternalRunID)
		assert.NoError(t, readErr)
		assert.NotNil(t, d)
		assert.Equal(t, IntentMatched, d.IntentStatus)
		assert.Equal(t, RunCompleted, *d.RunStatus)
		assert.Equal(t, ConclusionSuccess, *d.Conclusion)
		assert.Equal(t, run.CommitSha, d.CommitSha)

		deployments, listErr := deploymentStore.ListProjectDeployments(
			context.Background(), p.ProjectID, 10)
		assert.NoError(t, listErr)
		assert.Len(t, deployments, 1)
	})
	t.Run("success - unmatched intents coexist with upserted runs", func(t *testing.T) {
		// arrange
		p := createProject(t)
		createIntent(t, p.ProjectID, "aaaa000011112222333344445555666677778888")
		createIntent(t, p.ProjectID, "bbbb000011112222333344445555666677778888")

		// act
		err := deploymentStore.UpsertExternalRun(context.Background(), p.ProjectID, ExternalRunUpsert{
			ExternalRunID: 1002,
			CommitSha:     "cccc000011112222333344445555666677778888",
			RunStatus:     RunInProgress,
			CreatedOn:     time.Now().UTC(),
		})

		// assert
		assert.NoError(t, err)

		deployments, listErr := deploymentStore.ListProjectDeployments(
			context.Background(), p.ProjectID, 10)
		assert.NoError(t, listErr)
		assert.Len(t, deployments, 3)
	})
}

func TestDeploymentSQLiteStore_MatchPendingToRun(t *testing.T) {
	t.Run("success - absorbs the run row upserted earlier in the pass", func(t *testing.T) {
		// arrange
		p := createProject(t)
		sha := "dddd000011112222333344445555666677778888"
		intent := createIntent(t, p.ProjectID, sha)
		run := ExternalRunUpsert{
			ExternalRunID: 2001,
			CommitSha:     sha,
			CommitMessage: "deploy",
			CommitAuthor:  "haatos",
			RunStatus:     RunInProgress,
			RunURL:        util.AsPtr("https://forge.example/runs/2001"),
			CreatedOn:     time.Now().UTC(),
		}
		err := deploymentStore.UpsertExternalRun(context.Background(), p.ProjectID, run)
		assert.NoError(t, err)

		// act
		matched, err := deploymentStore.MatchPendingToRun(
			context.Background(), p.ProjectID, intent.DeploymentID, run)

		// assert
		assert.NoError(t, err)
		assert.True(t, matched)

		d, readErr := deploymentStore.ReadByExternalRunID(
			context.Background(), p.ProjectID, run.ExternalRunID)
		assert.NoError(t, readErr)
		assert.Equal(t, intent.DeploymentID, d.DeploymentID)
		assert.Equal(t, IntentMatched, d.IntentStatus)
		assert.Equal(t, run.ExternalRunID, *d.ExternalRunID)
		assert.Equal(t, RunInProgress, *d.RunStatus)
		assert.NotNil(t, d.MatchedOn)

		deployments, listErr := deploymentStore.ListProjectDeployments(
			context.Background(), p.ProjectID, 10)
		assert.NoError(t, listErr)
		assert.Len(t, deployments, 1)
	})
	t.Run("success - inherits live flag from the absorbed row", func(t *testing.T) {
		// arrange
		p := createProject(t)
		sha := "eeee000011112222333344445555666677778888"
		run := ExternalRunUpsert{
			ExternalRunID: 2002,
			CommitSha:     sha,
			RunStatus:     RunCompleted,
			Conclusion:    util.AsPtr(ConclusionSuccess),
			CreatedOn:     time.Now().UTC(),
		}
		err := deploymentStore.UpsertExternalRun(context.Background(), p.ProjectID, run)
		assert.NoError(t, err)
		runRow, err := deploymentStore.ReadByExternalRunID(
			context.Background(), p.ProjectID, run.ExternalRunID)
		assert.NoError(t, err)
		err = deploymentStore.MarkLive(context.Background(), p.ProjectID, runRow.DeploymentID)
		assert.NoError(t, err)

		intent := createIntent(t, p.ProjectID, sha)

		// act
		matched, err := deploymentStore.MatchPendingToRun(
			context.Background(), p.ProjectID, intent.DeploymentID, run)

		// assert
		assert.NoError(t, err)
		assert.True(t, matched)

		live, readErr := deploymentStore.ReadLive(context.Background(), p.ProjectID)
		assert.NoError(t, readErr)
		assert.Equal(t, intent.DeploymentID, live.DeploymentID)
		assert.True(t, live.IsLive)
	})
	t.Run("success - matches a run with no prior row", func(t *testing.T) {
		// arrange
		p := createProject(t)
		sha := "ffff000011112222333344445555666677778888"
		intent := createIntent(t, p.ProjectID, sha)
		run := ExternalRunUpsert{
			ExternalRunID: 2003,
			CommitSha:     sha,
			RunStatus:     RunQueued,
			CreatedOn:     time.Now().UTC(),
		}

		// act
		matched, err := deploymentStore.MatchPendingToRun(
			context.Background(), p.ProjectID, intent.DeploymentID, run)

		// assert
		assert.NoError(t, err)
		assert.True(t, matched)

		d, readErr := deploymentStore.ReadDeploymentByID(context.Background(), intent.DeploymentID)
		assert.NoError(t, readErr)
		assert.Equal(t, IntentMatched, d.IntentStatus)
		assert.Equal(t, run.ExternalRunID, *d.ExternalRunID)
	})
	t.Run("failure - intent is no longer pending", func(t *testing.T) {
		// arrange
		p := createProject(t)
		sha := "0000111122223333444455556666777788889999"
		intent := createIntent(t, p.ProjectID, sha)
		first := ExternalRunUpsert{
			ExternalRunID: 2004,
			CommitSha:     sha,
			RunStatus:     RunQueued,
			CreatedOn:     time.Now().UTC(),
		}
		matched, err := deploymentStore.MatchPendingToRun(
			context.Background(), p.ProjectID, intent.DeploymentID, first)
		assert.NoError(t, err)
		assert.True(t, matched)

		// act
		second := first
		second.ExternalRunID = 2005
		matched, err = deploymentStore.MatchPendingToRun(
			context.Background(), p.ProjectID, intent.DeploymentID, second)

		// assert
		assert.NoError(t, err)
		assert.False(t, matched)

		d, readErr := deploymentStore.ReadDeploymentByID(context.Background(), intent.DeploymentID)
		assert.NoError(t, readErr)
		assert.Equal(t, first.ExternalRunID, *d.ExternalRunID)
	})
}

func TestDeploymentSQLiteStore_MarkOrphaned(t *testing.T) {
	t.Run("success - only intents past the cutoff are orphaned", func(t *testing.T) {
		// arrange
		p := createProject(t)
		stale := createIntent(t, p.ProjectID, "1111222233334444555566667777888899990000")
		fresh := createIntent(t, p.ProjectID, "2222333344445555666677778888999900001111")
		now := time.Now().UTC()
		backdateIntent(t, stale.DeploymentID, now.Add(-10*time.Minute))

		// act
		err := deploymentStore.MarkOrphaned(
			context.Background(), p.ProjectID, now.Add(-5*time.Minute))

		// assert
		assert.NoError(t, err)

		d, readErr := deploymentStore.ReadDeploymentByID(context.Background(), stale.DeploymentID)
		assert.NoError(t, readErr)
		assert.Equal(t, IntentOrphaned, d.IntentStatus)

		d, readErr = deploymentStore.ReadDeploymentByID(context.Background(), fresh.DeploymentID)
		assert.NoError(t, readErr)
		assert.Equal(t, IntentPending, d.IntentStatus)
	})
	t.Run("success - intent exactly at the cutoff stays pending", func(t *testing.T) {
		// arrange
		p := createProject(t)
		intent := createIntent(t, p.ProjectID, "3333444455556666777788889999000011112222")
		cutoff := time.Now().UTC().Add(-5 * time.Minute)
		backdateIntent(t, intent.DeploymentID, cutoff)

		// act
		err := deploymentStore.MarkOrphaned(context.Background(), p.ProjectID, cutoff)

		// assert
		assert.NoError(t, err)

		d, readErr := deploymentStore.ReadDeploymentByID(context.Background(), intent.DeploymentID)
		assert.NoError(t, readErr)
		assert.Equal(t, IntentPending, d.IntentStatus)
	})
	t.Run("success - matched intents are never orphaned", func(t *testing.T) {
		// arrange
		p := createProject(t)
		sha := "4444555566667777888899990000111122223333"
		intent := createIntent(t, p.ProjectID, sha)
		matched, err := deploymentStore.MatchPendingToRun(
			context.Background(), p.ProjectID, intent.DeploymentID,
			ExternalRunUpsert{
				ExternalRunID: 3001,
				CommitSha:     sha,
				RunStatus:     RunQueued,
				CreatedOn:     time.Now().UTC(),
			})
		assert.NoError(t, err)
		assert.True(t, matched)
		backdateIntent(t, intent.DeploymentID, time.Now().UTC().Add(-time.Hour))

		// act
		err = deploymentStore.MarkOrphaned(
			context.Background(), p.ProjectID, time.Now().UTC().Add(-5*time.Minute))

		// assert
		assert.NoError(t, err)

		d, readErr := deploymentStore.ReadDeploymentByID(context.Background(), intent.DeploymentID)
		assert.NoError(t, readErr)
		assert.Equal(t, IntentMatched, d.IntentStatus)
	})
}

func TestDeploymentSQLiteStore_MarkLive(t *testing.T) {
	t.Run("success - live pointer moves to the new deployment", func(t *testing.T) {
		// arrange
		p := createProject(t)
		first := createIntent(t, p.ProjectID, "5555666677778888999900001111222233334444")
		second := createIntent(t, p.ProjectID, "6666777788889999000011112222333344445555")
		err := deploymentStore.MarkLive(context.Background(), p.ProjectID, first.DeploymentID)
		assert.NoError(t, err)

		// act
		err = deploymentStore.MarkLive(context.Background(), p.ProjectID, second.DeploymentID)

		// assert
		assert.NoError(t, err)

		live, readErr := deploymentStore.ReadLive(context.Background(), p.ProjectID)
		assert.NoError(t, readErr)
		assert.Equal(t, second.DeploymentID, live.DeploymentID)

		d, readErr := deploymentStore.ReadDeploymentByID(context.Background(), first.DeploymentID)
		assert.NoError(t, readErr)
		assert.False(t, d.IsLive)
	})
	t.Run("failure - deployment is not found", func(t *testing.T) {
		// arrange
		p := createProject(t)

		// act
		err := deploymentStore.MarkLive(context.Background(), p.ProjectID, 987654)

		// assert
		assert.Error(t, err)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}

func TestDeploymentSQLiteStore_ReadLive(t *testing.T) {
	t.Run("failure - no live deployment", func(t *testing.T) {
		// arrange
		p := createProject(t)

		// act
		d, err := deploymentStore.ReadLive(context.Background(), p.ProjectID)

		// assert
		assert.Error(t, err)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Nil(t, d)
	})
}

func TestDeploymentSQLiteStore_ListPending(t *testing.T) {
	t.Run("success - pending intents newest first", func(t *testing.T) {
		// arrange
		p := createProject(t)
		older := createIntent(t, p.ProjectID, "7777888899990000111122223333444455556666")
		newer := createIntent(t, p.ProjectID, "8888999900001111222233334444555566667777")
		now := time.Now().UTC()
		backdateIntent(t, older.DeploymentID, now.Add(-2*time.Minute))
		backdateIntent(t, newer.DeploymentID, now.Add(-time.Minute))

		// act
		deployments, err := deploymentStore.ListPending(context.Background(), p.ProjectID)

		// assert
		assert.NoError(t, err)
		assert.Len(t, deployments, 2)
		assert.Equal(t, newer.DeploymentID, deployments[0].DeploymentID)
		assert.Equal(t, older.DeploymentID, deployments[1].DeploymentID)
	})
}

func createIntent(t *testing.T, projectID int64, sha string) *Deployment {
	d, err := deploymentStore.CreateIntent(
		context.Background(),
		projectID,
		sha,
		"test commit",
		"haatos",
	)
	assert.NoError(t, err)
	return d
}

func backdateIntent(t *testing.T, deploymentID int64, to time.Time) {
	_, err := deploymentStore.rwdb.Exec(
		`update deployments set triggered_on = $1 where deployment_id = $2`,
		dbTime(to), deploymentID,
	)
	assert.NoError(t, err)
}
