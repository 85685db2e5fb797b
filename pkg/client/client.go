// Package client provides a Go client for the docpivot REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to a docpivot API server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL, e.g.
// "http://localhost:8000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Minute},
	}
}

// ConvertRequest is a conversion submission. Content carries the
// document; set Encoding to "base64" for binary formats.
type ConvertRequest struct {
	SourceFormat string `json:"source_format"`
	TargetFormat string `json:"target_format"`
	Content      string `json:"content"`
	Encoding     string `json:"encoding,omitempty"`
}

// Failure describes why a job failed.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Job is the server's view of a conversion job.
type Job struct {
	JobID        string    `json:"job_id"`
	Status       string    `json:"status"`
	Progress     float64   `json:"progress"`
	SourceFormat string    `json:"source_format"`
	TargetFormat string    `json:"target_format"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Error        *Failure  `json:"error,omitempty"`
}

// FormatInfo describes one supported format.
type FormatInfo struct {
	Name        string   `json:"name"`
	ContentType string   `json:"content_type"`
	Description string   `json:"description"`
	Targets     []string `json:"targets"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Submit sends a conversion request. With wait true the returned job is
// terminal; otherwise it is the freshly queued job.
func (c *Client) Submit(ctx context.Context, req ConvertRequest, wait bool) (*Job, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/api/v1/convert"
	if wait {
		url += "?wait=true"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, decodeError(resp)
	}
	return decodeJob(resp.Body)
}

// Status fetches a job snapshot by id.
func (c *Client) Status(ctx context.Context, jobID string) (*Job, error) {
	resp, err := c.get(ctx, "/api/v1/jobs/"+jobID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return decodeJob(resp.Body)
}

// Result fetches the converted document of a completed job.
func (c *Client) Result(ctx context.Context, jobID string) ([]byte, error) {
	resp, err := c.get(ctx, "/api/v1/jobs/"+jobID+"/result")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

// Formats lists the supported formats and their conversion targets.
func (c *Client) Formats(ctx context.Context) ([]FormatInfo, error) {
	resp, err := c.get(ctx, "/api/v1/formats")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var payload struct {
		Formats []FormatInfo `json:"formats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.Formats, nil
}

// Events opens the server's SSE stream. The caller owns the returned
// body and reads it until the context is cancelled.
func (c *Client) Events(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/events", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives any sensible request timeout.
	streaming := &http.Client{}
	resp, err := streaming.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

func decodeJob(r io.Reader) (*Job, error) {
	var job Job
	if err := json.NewDecoder(r).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &job, nil
}

func decodeError(resp *http.Response) error {
	var apiErr errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		if apiErr.Detail != "" {
			return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Detail)
		}
		return fmt.Errorf("%s", apiErr.Error)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
