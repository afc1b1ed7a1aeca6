package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"routelab/internal/geo"
	"routelab/internal/model"
)

// Client is the HTTP client for the routing service. Requests go through a
// rate limiter so polling loops cannot hammer the API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	limiter *rate.Limiter
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(20), 20),
	}
}

// APIError carries the RFC7807 body of a failed request.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Title)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Title: resp.Status}
		var prob struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&prob); err == nil && prob.Title != "" {
			apiErr.Title = prob.Title
			apiErr.Detail = prob.Detail
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SubmitJob posts a problem and returns the new job id.
func (c *Client) SubmitJob(ctx context.Context, req *model.SubmitRequest) (string, error) {
	var resp model.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/vrp/jobs", req, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// PollJob fetches the job's current snapshot.
func (c *Client) PollJob(ctx context.Context, jobID string) (model.PollResponse, error) {
	var resp model.PollResponse
	err := c.do(ctx, http.MethodGet, "/vrp/jobs/"+url.PathEscape(jobID)+"/poll", nil, &resp)
	return resp, err
}

// StartJob begins solving. False means the job was already past Pending.
func (c *Client) StartJob(ctx context.Context, jobID string) (bool, error) {
	var ok bool
	err := c.do(ctx, http.MethodPost, "/vrp/jobs/"+url.PathEscape(jobID)+"/start", nil, &ok)
	return ok, err
}

// StopJob cancels a running job.
func (c *Client) StopJob(ctx context.Context, jobID string) (bool, error) {
	var ok bool
	err := c.do(ctx, http.MethodPost, "/vrp/jobs/"+url.PathEscape(jobID)+"/stop", nil, &ok)
	return ok, err
}

// ListJobs pages job summaries newest first.
func (c *Client) ListJobs(ctx context.Context, page, perPage int) ([]model.JobSummary, int, error) {
	var resp struct {
		Data  []model.JobSummary `json:"data"`
		Total int                `json:"total"`
	}
	path := fmt.Sprintf("/vrp/jobs?page=%d&per_page=%d", page, perPage)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Data, resp.Total, nil
}

// RouteResult is the /route response.
type RouteResult struct {
	GeoJSON   geo.FeatureCollection `json:"geojson"`
	WeightSec float64               `json:"weight_sec"`
	Algorithm string                `json:"algorithm"`
}

// Route requests a point-to-point path.
func (c *Client) Route(ctx context.Context, req model.RouteRequest) (RouteResult, error) {
	var resp RouteResult
	err := c.do(ctx, http.MethodPost, "/route", req, &resp)
	return resp, err
}

// Landmarks fetches the landmark layer.
func (c *Client) Landmarks(ctx context.Context) (geo.FeatureCollection, error) {
	var fc geo.FeatureCollection
	err := c.do(ctx, http.MethodGet, "/landmarks", nil, &fc)
	return fc, err
}
