package hosting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClient_ListDeployableArtifacts(t *testing.T) {
	t.Run("success - artifacts are parsed", func(t *testing.T) {
		// arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/projects/shipyard-prod/deployments", r.URL.Path)
			assert.Equal(t, "Bearer hostingtoken", r.Header.Get("Authorization"))
			w.Write([]byte(`[
				{
					"id": "art-1",
					"commit_hash": "aaaa111122223333444455556666777788889999",
					"url": "https://hosting.example/art-1"
				},
				{
					"id": "art-2",
					"commit_hash": "bbbb111122223333444455556666777788889999",
					"url": "https://hosting.example/art-2"
				}
			]`))
		}))
		defer server.Close()
		client := NewClient(server.URL, "hostingtoken")

		// act
		artifacts, err := client.ListDeployableArtifacts(context.Background(), "shipyard-prod")

		// assert
		assert.NoError(t, err)
		assert.Len(t, artifacts, 2)
		assert.Equal(t, "art-1", artifacts[0].ID)
		assert.Equal(t, "aaaa111122223333444455556666777788889999", artifacts[0].CommitHash)
	})
	t.Run("success - server errors are retried", func(t *testing.T) {
		// arrange
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`[]`))
		}))
		defer server.Close()
		client := NewClient(server.URL, "hostingtoken")

		// act
		artifacts, err := client.ListDeployableArtifacts(context.Background(), "shipyard-prod")

		// assert
		assert.NoError(t, err)
		assert.Empty(t, artifacts)
		assert.Equal(t, int64(2), calls.Load())
	})
}

func TestClient_Promote(t *testing.T) {
	t.Run("success - promote posts to the artifact", func(t *testing.T) {
		// arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/projects/shipyard-prod/deployments/art-2/promote", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()
		client := NewClient(server.URL, "hostingtoken")

		// act
		err := client.Promote(context.Background(), "shipyard-prod", "art-2")

		// assert
		assert.NoError(t, err)
	})
	t.Run("failure - promote is never retried on http errors", func(t *testing.T) {
		// arrange
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()
		client := NewClient(server.URL, "hostingtoken")

		// act
		err := client.Promote(context.Background(), "shipyard-prod", "art-2")

		// assert
		assert.Error(t, err)
		assert.Equal(t, int64(1), calls.Load())
	})
}
