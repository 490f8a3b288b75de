package reputation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockProvider serves scores from an in-memory fixture. It keeps the
// batching contract of the real clients: one call per batch, unknown fids
// mapped to nil.
type MockProvider struct {
	name     string
	latency  time.Duration
	generate func(fid int64) *Score

	mu       sync.Mutex
	fixtures map[int64]*Score
	batches  [][]int64
	failWith error
}

// NewMockProvider creates a provider with explicit fixtures.
func NewMockProvider(name string, fixtures map[int64]*Score, latency time.Duration) *MockProvider {
	if fixtures == nil {
		fixtures = make(map[int64]*Score)
	}
	return &MockProvider{name: name, fixtures: fixtures, latency: latency}
}

// NewMockRankProvider generates deterministic ranks; every seventh fid is
// unranked.
func NewMockRankProvider(latency time.Duration) *MockProvider {
	m := NewMockProvider(ProviderRank, nil, latency)
	m.generate = func(fid int64) *Score {
		if fid%7 == 0 {
			return nil
		}
		return &Score{FID: fid, Rank: floatPtr(float64(fid%5000 + 1))}
	}
	return m
}

// NewMockScoreProvider generates deterministic scores in [0, 1).
func NewMockScoreProvider(latency time.Duration) *MockProvider {
	m := NewMockProvider(ProviderScore, nil, latency)
	m.generate = func(fid int64) *Score {
		score := float64((fid*37)%1000) / 1000
		return &Score{FID: fid, Value: floatPtr(score), Rank: floatPtr(float64(fid%5000 + 1))}
	}
	return m
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	return m.name
}

// SetFailure makes subsequent batches fail with err; nil restores success.
func (m *MockProvider) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Batches returns a copy of every batch requested so far.
func (m *MockProvider) Batches() [][]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]int64, len(m.batches))
	for i, b := range m.batches {
		out[i] = append([]int64(nil), b...)
	}
	return out
}

// FetchBatch returns fixture data after the configured latency.
func (m *MockProvider) FetchBatch(ctx context.Context, fids []int64, timeout time.Duration) (map[int64]*Score, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m.mu.Lock()
	m.batches = append(m.batches, append([]int64(nil), fids...))
	failWith := m.failWith
	m.mu.Unlock()

	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%s mock: %w", m.name, ctx.Err())
		}
	}

	if failWith != nil {
		return nil, failWith
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := absentAll(fids)
	for _, fid := range fids {
		if s, ok := m.fixtures[fid]; ok {
			result[fid] = s
		} else if m.generate != nil {
			result[fid] = m.generate(fid)
		}
	}
	return result, nil
}
