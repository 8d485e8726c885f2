package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	v1 "github.com/stacklok/issue-auditor/internal/api/v1"
	"github.com/stacklok/issue-auditor/internal/httpclient"
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/status"
	"github.com/stacklok/issue-auditor/internal/targets"
)

const clientTimeout = 30 * time.Second

// apiClient talks to a running auditor over its v1 API
type apiClient struct {
	base   string
	client httpclient.Client
}

func newAPIClient(server string) (*apiClient, error) {
	u, err := url.Parse(server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server must be an absolute URL, got %q", server)
	}
	return &apiClient{
		base:   strings.TrimSuffix(server, "/") + "/v1",
		client: httpclient.NewDefaultClient(clientTimeout),
	}, nil
}

func (c *apiClient) submitJob(ctx context.Context, req v1.SubmitJobRequest) (*v1.SubmitJobResponse, error) {
	body, err := c.client.PostJSON(ctx, c.base+"/jobs", req)
	if err != nil {
		return nil, apiError(err)
	}
	return decodeBody[v1.SubmitJobResponse](body)
}

func (c *apiClient) listJobs(ctx context.Context, st string, targetID uuid.UUID, limit int) (*v1.ListJobsResponse, error) {
	query := url.Values{}
	if st != "" {
		query.Set("status", st)
	}
	if targetID != uuid.Nil {
		query.Set("targetId", targetID.String())
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	endpoint := c.base + "/jobs"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	body, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return nil, apiError(err)
	}
	return decodeBody[v1.ListJobsResponse](body)
}

func (c *apiClient) getJob(ctx context.Context, id uuid.UUID) (*jobs.Job, error) {
	body, err := c.client.Get(ctx, c.base+"/jobs/"+id.String())
	if err != nil {
		return nil, apiError(err)
	}
	return decodeBody[jobs.Job](body)
}

func (c *apiClient) targetStatus(ctx context.Context, id uuid.UUID) (*status.TargetStatus, error) {
	body, err := c.client.Get(ctx, c.base+"/targets/"+id.String()+"/status")
	if err != nil {
		return nil, apiError(err)
	}
	return decodeBody[status.TargetStatus](body)
}

func (c *apiClient) registerTarget(ctx context.Context, req v1.RegisterTargetRequest) (*targets.Target, error) {
	body, err := c.client.PostJSON(ctx, c.base+"/targets", req)
	if err != nil {
		return nil, apiError(err)
	}
	return decodeBody[targets.Target](body)
}

func (c *apiClient) listTargets(ctx context.Context) (*v1.ListTargetsResponse, error) {
	body, err := c.client.Get(ctx, c.base+"/targets")
	if err != nil {
		return nil, apiError(err)
	}
	return decodeBody[v1.ListTargetsResponse](body)
}

func decodeBody[T any](body []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// apiError surfaces the server's error message instead of the raw HTTP error
func apiError(err error) error {
	httpErr, ok := httpclient.AsHTTPError(err)
	if !ok || httpErr.Body == "" {
		return err
	}

	var payload struct {
		Error string `json:"error"`
	}
	if jsonErr := json.Unmarshal([]byte(httpErr.Body), &payload); jsonErr != nil || payload.Error == "" {
		return err
	}
	return fmt.Errorf("server returned %d: %s", httpErr.StatusCode, payload.Error)
}
