package reputation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single provider batch.
const DefaultTimeout = 10 * time.Second

// Options configures an Orchestrator. Zero values take defaults.
type Options struct {
	Timeout time.Duration
	TTL     time.Duration
	Expiry  Expiry
	Clock   func() time.Time
	Logger  *slog.Logger
}

// binding pairs a provider with its own store and tracks which fids are
// currently being fetched from it.
type binding struct {
	provider Provider
	store    *Store[*Score]

	mu       sync.Mutex
	inflight map[int64]chan struct{}
}

// claim splits misses into fids this caller must fetch and channels for
// fids another caller is already fetching. Fids that became cached since
// the caller's lookup are dropped. Owned fids share the returned done
// channel.
func (b *binding) claim(misses []int64) (owned []int64, done chan struct{}, waits []chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	done = make(chan struct{})
	for _, fid := range b.store.Get(misses).Misses {
		if ch, ok := b.inflight[fid]; ok {
			waits = append(waits, ch)
			continue
		}
		b.inflight[fid] = done
		owned = append(owned, fid)
	}
	return owned, done, waits
}

// release must run after the fetch result has been stored.
func (b *binding) release(owned []int64, done chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, fid := range owned {
		delete(b.inflight, fid)
	}
	close(done)
}

// Orchestrator fronts the rank and score providers with one TTL store each.
type Orchestrator struct {
	rank    *binding
	score   *binding
	timeout time.Duration
	logger  *slog.Logger
}

// NewOrchestrator binds rank to the rank store and score to the score store.
func NewOrchestrator(rank, score Provider, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TTL <= 0 {
		opts.TTL = 300 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	storeOpts := []StoreOption{WithExpiry(opts.Expiry)}
	if opts.Clock != nil {
		storeOpts = append(storeOpts, WithClock(opts.Clock))
	}

	newBinding := func(p Provider) *binding {
		return &binding{
			provider: p,
			store:    NewStore[*Score](opts.TTL, storeOpts...),
			inflight: make(map[int64]chan struct{}),
		}
	}

	return &Orchestrator{
		rank:    newBinding(rank),
		score:   newBinding(score),
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

// RankStore exposes the rank provider's cache.
func (o *Orchestrator) RankStore() *Store[*Score] {
	return o.rank.store
}

// ScoreStore exposes the score provider's cache.
func (o *Orchestrator) ScoreStore() *Store[*Score] {
	return o.score.store
}

// Fetch resolves uncached fids from both providers concurrently and stores
// the results. A failing provider is logged and leaves its misses
// unresolved; it never blocks the other provider. The only error returned
// is a ValidationError.
func (o *Orchestrator) Fetch(ctx context.Context, fids []int64) error {
	if err := ValidateFIDs(fids); err != nil {
		return err
	}
	ids := dedupe(fids)
	if len(ids) == 0 {
		return nil
	}

	batchID := uuid.NewString()

	var wg sync.WaitGroup
	for _, b := range []*binding{o.rank, o.score} {
		misses := b.store.Get(ids).Misses
		if len(misses) == 0 {
			continue
		}

		wg.Add(1)
		go func(b *binding, misses []int64) {
			defer wg.Done()
			o.resolve(ctx, b, misses, batchID)
		}(b, misses)
	}
	wg.Wait()

	return nil
}

func (o *Orchestrator) resolve(ctx context.Context, b *binding, misses []int64, batchID string) {
	owned, done, waits := b.claim(misses)

	if len(owned) > 0 {
		o.fetchOwned(ctx, b, owned, batchID)
	}
	b.release(owned, done)

	for _, ch := range waits {
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

func (o *Orchestrator) fetchOwned(ctx context.Context, b *binding, owned []int64, batchID string) {
	name := b.provider.Name()
	start := time.Now()

	result, err := b.provider.FetchBatch(ctx, owned, o.timeout)
	if err != nil {
		o.logger.Warn("reputation batch failed",
			"provider", name,
			"batch", batchID,
			"fids", len(owned),
			"err", err,
		)
		return
	}

	values := make(map[int64]*Score, len(owned))
	for _, fid := range owned {
		values[fid] = result[fid]
	}
	b.store.Put(values)

	o.logger.Debug("reputation batch stored",
		"provider", name,
		"batch", batchID,
		"fids", len(owned),
		"elapsed", time.Since(start),
	)
}

// Clear empties both stores.
func (o *Orchestrator) Clear() {
	o.rank.store.Clear()
	o.score.store.Clear()
}

// Ranks returns cached ranks. Fids never resolved are omitted; fids known
// to be unranked map to nil.
func (o *Orchestrator) Ranks(fids []int64) map[int64]*float64 {
	hits := o.rank.store.Get(fids).Hits
	out := make(map[int64]*float64, len(hits))
	for fid, s := range hits {
		if s == nil {
			out[fid] = nil
			continue
		}
		out[fid] = s.Rank
	}
	return out
}

// Scores returns cached scores for fids the score provider knows, in
// request order.
func (o *Orchestrator) Scores(fids []int64) []*Score {
	hits := o.score.store.Get(fids).Hits
	out := make([]*Score, 0, len(hits))
	for _, fid := range dedupe(fids) {
		if s := hits[fid]; s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Status reports both stores keyed by provider name.
func (o *Orchestrator) Status() map[string]Status {
	return map[string]Status{
		ProviderRank:  o.rank.store.Status(),
		ProviderScore: o.score.store.Status(),
	}
}
