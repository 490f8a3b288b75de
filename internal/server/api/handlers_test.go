package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/systemshift/unreplied/internal/server/conversations"
	"github.com/systemshift/unreplied/internal/server/graph"
	"github.com/systemshift/unreplied/internal/server/reputation"
)

type fixture struct {
	repo  *graph.MemoryRepository
	rank  *reputation.MockProvider
	score *reputation.MockProvider
	ts    *httptest.Server
}

// Helper to create a test server with routes
func setupTestServer(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Now()

	repo := graph.NewMemory()
	casts := []graph.Cast{
		{FID: 3, Hash: "0xaa", Timestamp: now.Add(-time.Hour), Text: "gm"},
		{FID: 7, Hash: "0xb1", Timestamp: now.Add(-50 * time.Minute), Text: "gm!", ParentHash: "0xaa"},
		{FID: 9, Hash: "0xb2", Timestamp: now.Add(-40 * time.Minute), Text: "hey", ParentHash: "0xaa"},
	}
	if _, err := graph.Seed(testContext(t), repo, casts); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	rank := reputation.NewMockRankProvider(0)
	score := reputation.NewMockScoreProvider(0)
	orch := reputation.NewOrchestrator(rank, score, reputation.Options{Timeout: time.Second, Logger: logger})
	resolver := conversations.NewResolver(repo, conversations.Options{ExcludeAnswered: true, Logger: logger})

	ts := httptest.NewServer(New(resolver, orch, logger).Router())
	t.Cleanup(ts.Close)

	return &fixture{repo: repo, rank: rank, score: score, ts: ts}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, r)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	f := setupTestServer(t)
	resp := f.do(t, "GET", "/health", "")

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	decode(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %s", body["status"])
	}
}

func TestGetRanks(t *testing.T) {
	f := setupTestServer(t)
	resp := f.do(t, "GET", "/reputation/rank?fids=1,7,1", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]*float64
	decode(t, resp, &body)
	if len(body) != 2 {
		t.Fatalf("expected two fids, got %v", body)
	}
	if body["1"] == nil || *body["1"] != 2 {
		t.Errorf("fid 1 rank = %v", body["1"])
	}
	if r, ok := body["7"]; !ok || r != nil {
		t.Errorf("fid 7 should be null, got %v", r)
	}
	if n := len(f.rank.Batches()); n != 1 {
		t.Errorf("expected one rank batch, got %d", n)
	}
}

func TestGetRanksProviderDown(t *testing.T) {
	f := setupTestServer(t)
	f.rank.SetFailure(errors.New("rpc unavailable"))

	resp := f.do(t, "GET", "/reputation/rank?fids=1,2", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("provider failure should not be a server error, got %d", resp.StatusCode)
	}
	var body map[string]*float64
	decode(t, resp, &body)
	if len(body) != 0 {
		t.Errorf("unresolved fids should be omitted, got %v", body)
	}
}

func TestGetScores(t *testing.T) {
	f := setupTestServer(t)
	resp := f.do(t, "POST", "/reputation/score", `{"fids":[2,1]}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Data []struct {
			FID   int64    `json:"fid"`
			Score *float64 `json:"score"`
		} `json:"data"`
		Count int `json:"count"`
	}
	decode(t, resp, &body)
	if body.Count != 2 || len(body.Data) != 2 || body.Data[0].FID != 2 || body.Data[1].FID != 1 {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Data[0].Score == nil {
		t.Error("expected a score for fid 2")
	}
}

func TestReputationValidation(t *testing.T) {
	f := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"missing fids", "GET", "/reputation/rank", ""},
		{"non-numeric fid", "GET", "/reputation/rank?fids=1,abc", ""},
		{"zero fid", "GET", "/reputation/rank?fids=0", ""},
		{"invalid json", "POST", "/reputation/score", `{invalid`},
		{"empty list", "POST", "/reputation/score", `{"fids":[]}`},
		{"negative fid", "POST", "/reputation/score", `{"fids":[-4]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, tt.method, tt.path, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", resp.StatusCode)
			}
		})
	}

	if n := len(f.rank.Batches()) + len(f.score.Batches()); n != 0 {
		t.Errorf("rejected requests must not reach providers, got %d batches", n)
	}
}

func TestReputationStatusAndClear(t *testing.T) {
	f := setupTestServer(t)
	f.do(t, "GET", "/reputation/rank?fids=1,2", "")

	var status map[string]reputation.Status
	decode(t, f.do(t, "GET", "/reputation/status", ""), &status)
	if !status["rank"].Valid || status["rank"].CachedCount != 2 {
		t.Errorf("unexpected status %+v", status)
	}

	resp := f.do(t, "DELETE", "/reputation/cache", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", resp.StatusCode)
	}

	decode(t, f.do(t, "GET", "/reputation/status", ""), &status)
	if status["rank"].Valid || status["score"].CachedCount != 0 {
		t.Errorf("unexpected status after clear %+v", status)
	}
}

func TestGetConversations(t *testing.T) {
	f := setupTestServer(t)
	resp := f.do(t, "GET", "/conversations?fid=3&limit=10", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Conversations []conversations.Conversation `json:"conversations"`
		NextCursor    *string                      `json:"nextCursor"`
		TotalCount    int                          `json:"totalCount"`
	}
	decode(t, resp, &body)
	if body.TotalCount != 1 || len(body.Conversations) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
	c := body.Conversations[0]
	if c.RootCastHash != "0xaa" || c.FirstReplyAuthorFID != 7 || c.ReplyCount != 1 {
		t.Errorf("unexpected conversation %+v", c)
	}
	if body.NextCursor != nil {
		t.Errorf("expected null next cursor, got %q", *body.NextCursor)
	}
}

func TestGetConversationsSoftFail(t *testing.T) {
	f := setupTestServer(t)
	f.repo.SetFailure(errors.New("connection reset"))

	resp := f.do(t, "GET", "/conversations?fid=3", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var raw bytes.Buffer
	raw.ReadFrom(resp.Body)
	if got := strings.TrimSpace(raw.String()); got != `{"conversations":[],"nextCursor":null,"totalCount":0}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestGetConversationsValidation(t *testing.T) {
	f := setupTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"missing fid", ""},
		{"non-numeric fid", "?fid=abc"},
		{"bad limit", "?fid=3&limit=ten"},
		{"bad cursor", "?fid=3&cursor=***"},
		{"bad sort", "?fid=3&sort=sideways"},
		{"days out of range", "?fid=3&days=365"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, "GET", "/conversations"+tt.query, "")
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", resp.StatusCode)
			}
		})
	}
}
