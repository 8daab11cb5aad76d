package hosting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Artifact is a deployable build the hosting platform still holds.
type Artifact struct {
	ID         string `json:"id"`
	CommitHash string `json:"commit_hash"`
	URL        string `json:"url"`
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("hosting api error [%d]: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) ListDeployableArtifacts(
	ctx context.Context,
	hostingName string,
) ([]Artifact, error) {
	url := fmt.Sprintf("%s/projects/%s/deployments", c.baseURL, hostingName)
	artifacts := make([]Artifact, 0)
	if err := c.do(ctx, http.MethodGet, url, &artifacts); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// Promote makes the given artifact the production deployment. Not safe to
// retry blindly, so only network-level failures before a response arrives
// are retried.
func (c *Client) Promote(ctx context.Context, hostingName, artifactID string) error {
	url := fmt.Sprintf(
		"%s/projects/%s/deployments/%s/promote",
		c.baseURL, hostingName, artifactID,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &apiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, dest any) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

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
