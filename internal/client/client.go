package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/systemshift/unreplied/internal/server/conversations"
	"github.com/systemshift/unreplied/internal/server/reputation"
)

// Client handles communication with the unreplied API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ScoreEntry is one row of a score response.
type ScoreEntry struct {
	FID   int64    `json:"fid"`
	Score *float64 `json:"score"`
	Rank  *float64 `json:"rank"`
}

// Resolve fetches one page of conversations. A 400 from the server is
// returned as a *conversations.ValidationError, so Client can back a
// conversations.Paginator.
func (c *Client) Resolve(ctx context.Context, req conversations.Request) (*conversations.Result, error) {
	q := url.Values{}
	q.Set("fid", strconv.FormatInt(req.UserFID, 10))
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	}
	if req.PageSize > 0 {
		q.Set("limit", strconv.Itoa(req.PageSize))
	}
	if req.Filter.Days > 0 {
		q.Set("days", strconv.Itoa(req.Filter.Days))
	}
	if req.Filter.Sort != "" {
		q.Set("sort", string(req.Filter.Sort))
	}

	var result conversations.Result
	if err := c.do(ctx, http.MethodGet, "/conversations?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	if result.Conversations == nil {
		result.Conversations = []conversations.Conversation{}
	}
	return &result, nil
}

// Ranks returns ranks for fids. Fids the server could not resolve yet are
// absent from the map.
func (c *Client) Ranks(ctx context.Context, fids []int64) (map[int64]*float64, error) {
	parts := make([]string, len(fids))
	for i, fid := range fids {
		parts[i] = strconv.FormatInt(fid, 10)
	}

	var ranks map[int64]*float64
	path := "/reputation/rank?fids=" + url.QueryEscape(strings.Join(parts, ","))
	if err := c.do(ctx, http.MethodGet, path, nil, &ranks); err != nil {
		return nil, err
	}
	return ranks, nil
}

// Scores returns scores for the fids the score provider knows.
func (c *Client) Scores(ctx context.Context, fids []int64) ([]ScoreEntry, error) {
	var result struct {
		Data  []ScoreEntry `json:"data"`
		Count int          `json:"count"`
	}
	if err := c.do(ctx, http.MethodPost, "/reputation/score", map[string][]int64{"fids": fids}, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// Status reports both reputation caches keyed by provider name.
func (c *Client) Status(ctx context.Context) (map[string]reputation.Status, error) {
	var status map[string]reputation.Status
	if err := c.do(ctx, http.MethodGet, "/reputation/status", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// ClearCache empties both reputation caches.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/reputation/cache", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		msg, _ := io.ReadAll(resp.Body)
		return &conversations.ValidationError{Field: "request", Reason: strings.TrimSpace(string(msg))}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
