package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/systemshift/unreplied/internal/server/api"
	"github.com/systemshift/unreplied/internal/server/conversations"
	"github.com/systemshift/unreplied/internal/server/graph"
	"github.com/systemshift/unreplied/internal/server/reputation"
)

func newTestService(t *testing.T, threads int) *Client {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Now()

	repo := graph.NewMemory()
	var casts []graph.Cast
	for i := 0; i < threads; i++ {
		h := fmt.Sprintf("0x%02d", i)
		casts = append(casts,
			graph.Cast{FID: 3, Hash: h, Timestamp: now.Add(-time.Duration(100-i) * time.Minute)},
			graph.Cast{FID: 7, Hash: h + "r", Timestamp: now.Add(-time.Duration(50-i) * time.Minute), ParentHash: h},
		)
	}
	if _, err := graph.Seed(context.Background(), repo, casts); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	orch := reputation.NewOrchestrator(reputation.NewMockRankProvider(0), reputation.NewMockScoreProvider(0),
		reputation.Options{Logger: logger})
	resolver := conversations.NewResolver(repo, conversations.Options{ExcludeAnswered: true, Logger: logger})

	ts := httptest.NewServer(api.New(resolver, orch, logger).Router())
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestClientPaginates(t *testing.T) {
	c := newTestService(t, 5)
	p := conversations.NewPaginator(c, 2)

	var got []string
	for p.HasMore() {
		res, err := p.NextPage(context.Background(), 3)
		if err != nil {
			t.Fatalf("NextPage: %v", err)
		}
		for _, conv := range res.Conversations {
			got = append(got, conv.RootCastHash)
		}
	}

	if fmt.Sprint(got) != "[0x04 0x03 0x02 0x01 0x00]" {
		t.Errorf("feed = %v", got)
	}
}

func TestClientValidationError(t *testing.T) {
	c := newTestService(t, 0)

	_, err := c.Resolve(context.Background(), conversations.Request{UserFID: 3, Cursor: "not base64!"})
	var verr *conversations.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestClientReputation(t *testing.T) {
	c := newTestService(t, 0)
	ctx := context.Background()

	ranks, err := c.Ranks(ctx, []int64{1, 7})
	if err != nil {
		t.Fatalf("Ranks: %v", err)
	}
	if ranks[1] == nil || ranks[7] != nil {
		t.Errorf("unexpected ranks %v", ranks)
	}

	scores, err := c.Scores(ctx, []int64{1})
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if len(scores) != 1 || scores[0].FID != 1 || scores[0].Score == nil {
		t.Errorf("unexpected scores %+v", scores)
	}

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status[reputation.ProviderRank].CachedCount != 2 {
		t.Errorf("unexpected status %+v", status)
	}

	if err := c.ClearCache(ctx); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	status, _ = c.Status(ctx)
	if status[reputation.ProviderScore].Valid {
		t.Error("cache should be invalid after clear")
	}
}

func TestClientServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Status(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *conversations.ValidationError
	if errors.As(err, &verr) {
		t.Error("a 502 is not a validation error")
	}
}
