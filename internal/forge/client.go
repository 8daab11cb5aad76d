package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// WorkflowRun is the forge's record of one CI workflow execution.
type WorkflowRun struct {
	ID         int64     `json:"id"`
	HeadSha    string    `json:"head_sha"`
	Status     string    `json:"status"`
	Conclusion *string   `json:"conclusion"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Commit struct {
	Sha     string
	Message string
	Author  string
	URL     string
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("forge api error [%d]: %s", e.StatusCode, e.Body)
}

// Client is a thin wrapper over the forge's actions REST API. It rate
// limits itself and retries transient failures; anything else is returned
// to the caller as-is.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

func (c *Client) ListRecentRuns(
	ctx context.Context,
	token, owner, repo string,
	limit int64,
) ([]WorkflowRun, error) {
	url := fmt.Sprintf(
		"%s/repos/%s/%s/actions/runs?per_page=%d",
		c.baseURL, owner, repo, limit,
	)
	var payload struct {
		WorkflowRuns []WorkflowRun `json:"workflow_runs"`
	}
	if err := c.getJSON(ctx, token, url, &payload); err != nil {
		return nil, err
	}
	return payload.WorkflowRuns, nil
}

func (c *Client) GetCommit(
	ctx context.Context,
	token, owner, repo, sha string,
) (*Commit, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.baseURL, owner, repo, sha)
	var payload struct {
		Sha    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string `json:"name"`
			} `json:"author"`
		} `json:"commit"`
		HTMLURL string `json:"html_url"`
	}
	if err := c.getJSON(ctx, token, url, &payload); err != nil {
		return nil, err
	}
	return &Commit{
		Sha:     payload.Sha,
		Message: payload.Commit.Message,
		Author:  payload.Commit.Author.Name,
		URL:     payload.HTMLURL,
	}, nil
}

func (c *Client) DispatchWorkflow(
	ctx context.Context,
	token, owner, repo, workflow, ref string,
) error {
	url := fmt.Sprintf(
		"%s/repos/%s/%s/actions/workflows/%s/dispatches",
		c.baseURL, owner, repo, workflow,
	)
	body := fmt.Sprintf(`{"ref":%q}`, ref)
	return c.do(ctx, token, http.MethodPost, url, body, nil)
}

func (c *Client) getJSON(ctx context.Context, token, url string, dest any) error {
	return c.do(ctx, token, http.MethodGet, url, "", dest)
}

func (c *Client) do(ctx context.Context, token, method, url, body string, dest any) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("Authorization", "Bearer "+token)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			apiErr := &apiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return retry.RetryableError(apiErr)
			}
			return apiErr
		}

		if dest == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(dest)
	})
}
