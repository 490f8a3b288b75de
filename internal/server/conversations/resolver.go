package conversations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/systemshift/unreplied/internal/server/graph"
)

// DefaultTimeout bounds one Resolve call end to end.
const DefaultTimeout = 15 * time.Second

// Options configures a Resolver.
type Options struct {
	// ExcludeAnswered drops threads where the user replied at or after the
	// first reply from someone else.
	ExcludeAnswered bool
	// TrueReplyCount reports the number of replies from other users
	// instead of 1.
	TrueReplyCount bool
	// DefaultDays is the window used when a request does not set one.
	DefaultDays int
	Timeout     time.Duration
	Clock       func() time.Time
	Logger      *slog.Logger
}

// Resolver finds root casts whose earliest reply from another user is
// still waiting on the author.
type Resolver struct {
	repo            graph.Repository
	excludeAnswered bool
	trueReplyCount  bool
	defaultDays     int
	timeout         time.Duration
	now             func() time.Time
	logger          *slog.Logger
}

// NewResolver creates a resolver over repo
func NewResolver(repo graph.Repository, opts Options) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.DefaultDays <= 0 || opts.DefaultDays > MaxDays {
		opts.DefaultDays = MaxDays
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Resolver{
		repo:            repo,
		excludeAnswered: opts.ExcludeAnswered,
		trueReplyCount:  opts.TrueReplyCount,
		defaultDays:     opts.DefaultDays,
		timeout:         opts.Timeout,
		now:             opts.Clock,
		logger:          opts.Logger,
	}
}

// Resolve returns one page of conversations. Only malformed requests
// return an error; storage failures are logged and yield an empty page.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	if req.UserFID <= 0 {
		return nil, &ValidationError{Field: "fid", Reason: fmt.Sprintf("fid %d is not positive", req.UserFID)}
	}
	if req.PageSize < 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	filter, err := req.Filter.normalize(r.defaultDays)
	if err != nil {
		return nil, err
	}
	after, err := DecodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q := graph.WindowQuery{
		UserFID: req.UserFID,
		Since:   r.now().Add(-time.Duration(filter.Days) * 24 * time.Hour),
		Limit:   pageSize,
		After:   after,
	}

	var (
		convs     []Conversation
		last      *graph.RootKey
		exhausted bool
	)
	// Root windows without a conversation are skipped until one is found
	// or the roots run out, so an empty page always means the end.
	for {
		if err := ctx.Err(); err != nil {
			r.logger.Error("conversation scan timed out",
				"fid", req.UserFID,
				"cursor", req.Cursor,
				"err", err,
			)
			return emptyResult(), nil
		}

		rows, err := r.repo.ThreadWindow(ctx, q)
		if err != nil {
			r.logger.Error("conversation query failed",
				"fid", req.UserFID,
				"cursor", req.Cursor,
				"err", err,
			)
			return emptyResult(), nil
		}

		for _, row := range rows {
			if c, ok := r.toConversation(row); ok {
				convs = append(convs, c)
			}
		}
		if len(rows) > 0 {
			key := rows[len(rows)-1].Root
			last = &key
		}
		if len(rows) < pageSize {
			exhausted = true
			break
		}
		if len(convs) > 0 {
			break
		}
		q.After = last
	}

	sortByReply(convs, filter.Sort)

	result := &Result{Conversations: convs, TotalCount: len(convs)}
	if result.Conversations == nil {
		result.Conversations = []Conversation{}
	}
	if !exhausted && last != nil {
		next := EncodeCursor(*last)
		result.NextCursor = &next
	}
	return result, nil
}

func (r *Resolver) toConversation(row graph.ThreadRow) (Conversation, bool) {
	if row.FirstReply == nil {
		return Conversation{}, false
	}
	if r.excludeAnswered && row.Answered {
		return Conversation{}, false
	}

	count := 1
	if r.trueReplyCount {
		count = row.ReplyCount
	}
	return Conversation{
		RootCastHash:        row.Root.Hash,
		FirstReply:          *row.FirstReply,
		ReplyCount:          count,
		FirstReplyAuthorFID: row.FirstReply.FID,
	}, true
}

func sortByReply(convs []Conversation, order Sort) {
	sort.SliceStable(convs, func(i, j int) bool {
		a, b := convs[i].FirstReply, convs[j].FirstReply
		if !a.Timestamp.Equal(b.Timestamp) {
			if order == SortOldest {
				return a.Timestamp.Before(b.Timestamp)
			}
			return a.Timestamp.After(b.Timestamp)
		}
		return a.Hash > b.Hash
	})
}
