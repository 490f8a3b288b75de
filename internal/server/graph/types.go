package graph

import (
	"fmt"
	"time"
)

// Cast is a single post in the social graph. A cast with an empty ParentHash
// is a root cast; otherwise it is a reply.
type Cast struct {
	FID        int64      `json:"fid"`
	Hash       string     `json:"hash"`
	Timestamp  time.Time  `json:"timestamp"`
	Text       string     `json:"text"`
	ParentHash string     `json:"parentCastHash,omitempty"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// IsRoot reports whether the cast starts a thread.
func (c *Cast) IsRoot() bool {
	return c.ParentHash == ""
}

// Validate checks the fields every backend relies on.
func (c *Cast) Validate() error {
	if c.FID <= 0 {
		return fmt.Errorf("cast %q: invalid fid %d", c.Hash, c.FID)
	}
	if c.Hash == "" {
		return fmt.Errorf("cast hash is required")
	}
	if c.ParentHash == c.Hash {
		return fmt.Errorf("cast %q cannot reply to itself", c.Hash)
	}
	return nil
}

// RootKey identifies a root cast's position in the newest-first root ordering.
type RootKey struct {
	Timestamp time.Time `json:"ts"`
	Hash      string    `json:"hash"`
}

// Before reports whether k sorts strictly after other in newest-first order,
// i.e. k is older (or equally old with a smaller hash).
func (k RootKey) Before(other RootKey) bool {
	if !k.Timestamp.Equal(other.Timestamp) {
		return k.Timestamp.Before(other.Timestamp)
	}
	return k.Hash < other.Hash
}

// WindowQuery selects a window of a user's root casts and the earliest
// reply from someone else under each of them.
type WindowQuery struct {
	UserFID int64
	// Since is the inclusive lower bound on root cast timestamps.
	Since time.Time
	// Limit caps the number of root casts scanned.
	Limit int
	// After restricts the window to roots strictly older than this key.
	After *RootKey
}

// ThreadRow is one scanned root cast. FirstReply is nil when no other user
// has replied.
type ThreadRow struct {
	Root       RootKey
	FirstReply *Cast
	ReplyCount int
	// Answered is set when the user replied in the thread at or after the
	// first reply.
	Answered bool
}
