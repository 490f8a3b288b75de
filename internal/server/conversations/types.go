package conversations

import (
	"fmt"

	"github.com/systemshift/unreplied/internal/server/graph"
)

// Paging and window limits.
const (
	MaxPageSize     = 50
	DefaultPageSize = 20
	MaxDays         = 90
)

// Conversation is a root cast surfaced by its earliest reply from another
// user. It is derived on every query and never stored.
type Conversation struct {
	RootCastHash        string     `json:"rootCastHash"`
	FirstReply          graph.Cast `json:"firstReply"`
	ReplyCount          int        `json:"replyCount"`
	FirstReplyAuthorFID int64      `json:"firstReplyAuthorFid"`
}

// Sort orders conversations by first-reply timestamp within a page.
// Pages always walk root casts newest first, so SortOldest does not make
// the first page hold the oldest threads.
type Sort string

const (
	SortNewest Sort = "newest"
	// SortOldest puts the earliest first reply first within each page.
	SortOldest Sort = "oldest"
)

// Filter narrows the conversation feed. Zero values take defaults.
type Filter struct {
	Days int
	Sort Sort
}

func (f Filter) normalize(defaultDays int) (Filter, error) {
	if f.Days == 0 {
		f.Days = defaultDays
	}
	if f.Days < 1 || f.Days > MaxDays {
		return f, &ValidationError{Field: "days", Reason: fmt.Sprintf("must be between 1 and %d", MaxDays)}
	}
	switch f.Sort {
	case "":
		f.Sort = SortNewest
	case SortNewest, SortOldest:
	default:
		return f, &ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown order %q", f.Sort)}
	}
	return f, nil
}

// Request asks for one page of a user's unreplied conversations.
type Request struct {
	UserFID  int64
	PageSize int
	Cursor   string
	Filter   Filter
}

// Result is one page. NextCursor is nil once the window is exhausted.
type Result struct {
	Conversations []Conversation `json:"conversations"`
	NextCursor    *string        `json:"nextCursor"`
	TotalCount    int            `json:"totalCount"`
}

func emptyResult() *Result {
	return &Result{Conversations: []Conversation{}}
}

// ValidationError reports a malformed request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
