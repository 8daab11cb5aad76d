package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProjectSQLiteStore_CreateProject(t *testing.T) {
	t.Run("success - project is stored", func(t *testing.T) {
		// arrange
		name := fmt.Sprintf("testproject%d", time.Now().UnixNano())
		repoOwner := "haatos"
		repoName := "shipyard"
		defaultBranch := "main"
		hostingName := "shipyard-prod"
		forgeToken := "encryptedtoken"

		// act
		p, err := projectStore.CreateProject(
			context.Background(),
			name, repoOwner, repoName, defaultBranch, hostingName, forgeToken,
		)

		// assert
		assert.NoError(t, err)
		assert.NotNil(t, p)
		assert.NotEqual(t, 0, p.ProjectID)
		assert.Equal(t, name, p.Name)
		assert.Equal(t, repoOwner, p.RepoOwner)
		assert.Equal(t, repoName, p.RepoName)
		assert.Equal(t, defaultBranch, p.DefaultBranch)
		assert.Equal(t, hostingName, p.HostingName)
		assert.Equal(t, forgeToken, p.ForgeTokenEncrypted)
		assert.False(t, p.CreatedOn.IsZero())
	})
	t.Run("failure - project name already exists", func(t *testing.T) {
		// arrange
		existing := createProject(t)

		// act
		p, err := projectStore.CreateProject(
			context.Background(),
			existing.Name, "other", "repo", "main", "other-prod", "",
		)

		// assert
		assert.Error(t, err)
		assert.Nil(t, p)
	})
}

func TestProjectSQLiteStore_ReadProjectByID(t *testing.T) {
	t.Run("success - project is found", func(t *testing.T) {
		// arrange
		expected := createProject(t)

		// act
		p, err := projectStore.ReadProjectByID(context.Background(), expected.ProjectID)

		// assert
		assert.NoError(t, err)
		assert.NotNil(t, p)
		assert.Equal(t, expected.ProjectID, p.ProjectID)
		assert.Equal(t, expected.Name, p.Name)
	})
	t.Run("failure - project is not found", func(t *testing.T) {
		// arrange
		var projectID int64 = 987654

		// act
		p, err := projectStore.ReadProjectByID(context.Background(), projectID)

		// assert
		assert.Error(t, err)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Nil(t, p)
	})
}

func TestProjectSQLiteStore_UpdateProjectForgeToken(t *testing.T) {
	t.Run("success - forge token updates", func(t *testing.T) {
		// arrange
		expected := createProject(t)
		newToken := "newencryptedtoken"

		// act
		updateErr := projectStore.UpdateProjectForgeToken(
			context.Background(),
			expected.ProjectID,
			newToken,
		)
		p, readErr := projectStore.ReadProjectByID(context.Background(), expected.ProjectID)

		// assert
		assert.NoError(t, updateErr)
		assert.NoError(t, readErr)
		assert.NotNil(t, p)
		assert.Equal(t, newToken, p.ForgeTokenEncrypted)
	})
}

func TestProjectSQLiteStore_DeleteProject(t *testing.T) {
	t.Run("success - project and its deployments are deleted", func(t *testing.T) {
		// arrange
		expected := createProject(t)
		d := createIntent(t, expected.ProjectID, "abc123")

		// act
		err := projectStore.DeleteProject(context.Background(), expected.ProjectID)

		// assert
		assert.NoError(t, err)

		p, readErr := projectStore.ReadProjectByID(context.Background(), expected.ProjectID)
		assert.True(t, errors.Is(readErr, sql.ErrNoRows))
		assert.Nil(t, p)

		dd, readErr := deploymentStore.ReadDeploymentByID(context.Background(), d.DeploymentID)
		assert.True(t, errors.Is(readErr, sql.ErrNoRows))
		assert.Nil(t, dd)
	})
}

func TestProjectSQLiteStore_ListProjects(t *testing.T) {
	t.Run("success - projects found", func(t *testing.T) {
		// arrange
		expected := createProject(t)

		// act
		projects, err := projectStore.ListProjects(context.Background())

		// assert
		assert.NoError(t, err)
		assert.True(t, len(projects) >= 1)
		assert.True(t, slices.ContainsFunc(projects, func(p *Project) bool {
			return p.ProjectID == expected.ProjectID && p.Name == expected.Name
		}))
	})
}

func createProject(t *testing.T) *Project {
	p, err := projectStore.CreateProject(
		context.Background(),
		fmt.Sprintf("testproject%d", time.Now().UnixNano()),
		"haatos",
		"shipyard",
		"main",
		fmt.Sprintf("hosting%d", time.Now().UnixNano()),
		"encryptedtoken",
	)
	assert.NoError(t, err)
	return p
}
