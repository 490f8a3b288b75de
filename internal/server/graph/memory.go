package graph

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository evaluates the same window semantics as UnrepliedQuery
// over an in-process map. It backs mock mode and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	casts    map[string]*Cast
	failWith error
}

// NewMemory creates an empty in-memory repository
func NewMemory() *MemoryRepository {
	return &MemoryRepository{casts: make(map[string]*Cast)}
}

// SetFailure makes ThreadWindow return err, to simulate storage failures.
// nil restores normal reads.
func (r *MemoryRepository) SetFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

// Close is a no-op
func (r *MemoryRepository) Close(ctx context.Context) error {
	return nil
}

// EnsureIndexes is a no-op
func (r *MemoryRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

// SaveCast stores a copy of the cast
func (r *MemoryRepository) SaveCast(ctx context.Context, cast *Cast) error {
	if err := cast.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.casts[cast.Hash]; ok {
		existing.DeletedAt = cast.DeletedAt
		return nil
	}
	c := *cast
	r.casts[c.Hash] = &c
	return nil
}

// ThreadWindow computes the first-reply window
func (r *MemoryRepository) ThreadWindow(ctx context.Context, q WindowQuery) ([]ThreadRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.failWith != nil {
		return nil, r.failWith
	}

	// user_casts
	var roots []*Cast
	for _, c := range r.casts {
		if c.FID != q.UserFID || !c.IsRoot() || c.DeletedAt != nil || c.Timestamp.IsZero() {
			continue
		}
		if c.Timestamp.Before(q.Since) {
			continue
		}
		key := RootKey{Timestamp: c.Timestamp, Hash: c.Hash}
		if q.After != nil && !key.Before(*q.After) {
			continue
		}
		roots = append(roots, c)
	}
	sort.Slice(roots, func(i, j int) bool {
		ki := RootKey{Timestamp: roots[i].Timestamp, Hash: roots[i].Hash}
		kj := RootKey{Timestamp: roots[j].Timestamp, Hash: roots[j].Hash}
		return kj.Before(ki)
	})
	if q.Limit >= 0 && len(roots) > q.Limit {
		roots = roots[:q.Limit]
	}

	// replies, grouped by root
	byRoot := make(map[string][]*Cast, len(roots))
	own := make(map[string][]*Cast)
	for _, root := range roots {
		byRoot[root.Hash] = nil
	}
	for _, c := range r.casts {
		if _, ok := byRoot[c.ParentHash]; !ok || c.IsRoot() {
			continue
		}
		if c.DeletedAt != nil || c.Timestamp.IsZero() {
			continue
		}
		if c.FID == q.UserFID {
			own[c.ParentHash] = append(own[c.ParentHash], c)
			continue
		}
		byRoot[c.ParentHash] = append(byRoot[c.ParentHash], c)
	}

	rows := make([]ThreadRow, 0, len(roots))
	for _, root := range roots {
		row := ThreadRow{Root: RootKey{Timestamp: root.Timestamp, Hash: root.Hash}}

		replies := byRoot[root.Hash]
		if len(replies) > 0 {
			first := replies[0]
			for _, c := range replies[1:] {
				if c.Timestamp.Before(first.Timestamp) ||
					(c.Timestamp.Equal(first.Timestamp) && c.Hash < first.Hash) {
					first = c
				}
			}
			reply := *first
			row.FirstReply = &reply
			row.ReplyCount = len(replies)

			for _, c := range own[root.Hash] {
				if !c.Timestamp.Before(first.Timestamp) {
					row.Answered = true
					break
				}
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
