package conversations

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned by NextPage while another fetch is pending. The
// call is dropped, not queued.
var ErrInFlight = errors.New("page fetch already in flight")

// PageSource serves pages to a Paginator. Resolver and the HTTP client
// implement it.
type PageSource interface {
	Resolve(ctx context.Context, req Request) (*Result, error)
}

// Paginator walks a user's conversation feed one page at a time.
type Paginator struct {
	source   PageSource
	pageSize int

	mu       sync.Mutex
	filter   Filter
	cursor   string
	hasMore  bool
	inFlight bool
	// generation changes on Reset so a fetch started before it cannot
	// move the new cursor.
	generation int
}

// NewPaginator creates a paginator positioned at the first page
func NewPaginator(source PageSource, pageSize int) *Paginator {
	return &Paginator{source: source, pageSize: pageSize, hasMore: true}
}

// NextPage fetches the page after the current cursor. Once a page comes
// back empty, or without a next cursor, HasMore stays false and NextPage
// returns empty pages without calling the source until Reset.
func (p *Paginator) NextPage(ctx context.Context, userFID int64) (*Result, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, ErrInFlight
	}
	if !p.hasMore {
		p.mu.Unlock()
		return emptyResult(), nil
	}
	p.inFlight = true
	req := Request{
		UserFID:  userFID,
		PageSize: p.pageSize,
		Cursor:   p.cursor,
		Filter:   p.filter,
	}
	generation := p.generation
	p.mu.Unlock()

	result, err := p.source.Resolve(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false

	if err != nil {
		return nil, err
	}
	if generation != p.generation {
		return result, nil
	}

	if len(result.Conversations) == 0 || result.NextCursor == nil {
		p.hasMore = false
	}
	if result.NextCursor != nil {
		p.cursor = *result.NextCursor
	}
	return result, nil
}

// Reset clears the cursor and re-enables paging.
func (p *Paginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cursor = ""
	p.hasMore = true
	p.generation++
}

// SetFilter changes the filter and resets.
func (p *Paginator) SetFilter(f Filter) {
	p.mu.Lock()
	p.filter = f
	p.mu.Unlock()
	p.Reset()
}

// HasMore reports whether another page may exist.
func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Cursor returns the current continuation token
func (p *Paginator) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}
