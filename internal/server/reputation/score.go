package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ScoreClient fetches behavioral reputation scores over HTTP.
type ScoreClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	limiter    *rate.Limiter
}

type scoreRequest struct {
	FIDs   []int64 `json:"fids"`
	APIKey string  `json:"api_key,omitempty"`
}

type scoreResponse struct {
	Data  []json.RawMessage `json:"data"`
	Count int               `json:"count"`
}

// scoreEntry accepts both the generic field names and the upstream
// quotient-prefixed ones.
type scoreEntry struct {
	FID           int64    `json:"fid"`
	Score         *float64 `json:"score"`
	Rank          *float64 `json:"rank"`
	QuotientScore *float64 `json:"quotientScore"`
	QuotientRank  *float64 `json:"quotientRank"`
}

// NewScoreClient creates a client for endpoint. every bounds the call rate.
func NewScoreClient(endpoint, apiKey string, every time.Duration) *ScoreClient {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &ScoreClient{
		httpClient: &http.Client{},
		endpoint:   endpoint,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Name returns the provider name
func (c *ScoreClient) Name() string {
	return ProviderScore
}

// FetchBatch POSTs all fids in one request.
func (c *ScoreClient) FetchBatch(ctx context.Context, fids []int64, timeout time.Duration) (map[int64]*Score, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("score rate limit: %w", err)
	}

	body, err := json.Marshal(scoreRequest{FIDs: fids, APIKey: c.apiKey})
	if err != nil {
		return nil, fmt.Errorf("encoding score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("score provider status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding score response: %w", err)
	}

	result := absentAll(fids)
	for _, raw := range decoded.Data {
		var e scoreEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decoding score entry: %w", err)
		}
		if _, requested := result[e.FID]; !requested {
			continue
		}

		s := &Score{FID: e.FID, Value: e.Score, Rank: e.Rank, Raw: raw}
		if s.Value == nil {
			s.Value = e.QuotientScore
		}
		if s.Rank == nil {
			s.Rank = e.QuotientRank
		}
		result[e.FID] = s
	}

	return result, nil
}
