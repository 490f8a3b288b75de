package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Provider names. Each provider is bound to its own store and the two are
// never substituted for one another.
const (
	ProviderRank  = "rank"
	ProviderScore = "score"
)

// Score is one provider's reputation data for a fid.
type Score struct {
	FID   int64           `json:"fid"`
	Value *float64        `json:"score"`
	Rank  *float64        `json:"rank"`
	Raw   json.RawMessage `json:"-"`
}

// MarshalJSON merges the provider payload with the normalized fields, so
// callers see {fid, score, rank, ...provider fields}.
func (s *Score) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any)
	if len(s.Raw) > 0 {
		if err := json.Unmarshal(s.Raw, &fields); err != nil {
			fields = make(map[string]any)
		}
	}
	fields["fid"] = s.FID
	fields["score"] = s.Value
	fields["rank"] = s.Rank
	return json.Marshal(fields)
}

// Provider fetches reputation for a batch of fids in a single upstream
// call. Every requested fid appears in the result; fids the provider does
// not know map to nil.
type Provider interface {
	Name() string
	FetchBatch(ctx context.Context, fids []int64, timeout time.Duration) (map[int64]*Score, error)
}

// ValidationError reports malformed input rejected before any I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateFIDs rejects non-positive fids.
func ValidateFIDs(fids []int64) error {
	for _, fid := range fids {
		if fid <= 0 {
			return &ValidationError{Field: "fids", Reason: fmt.Sprintf("fid %d is not positive", fid)}
		}
	}
	return nil
}

// dedupe returns fids without repeats, keeping first-seen order.
func dedupe(fids []int64) []int64 {
	seen := make(map[int64]struct{}, len(fids))
	out := make([]int64, 0, len(fids))
	for _, fid := range fids {
		if _, ok := seen[fid]; ok {
			continue
		}
		seen[fid] = struct{}{}
		out = append(out, fid)
	}
	return out
}

// absentAll maps every fid to nil; providers start from it so omitted fids
// are remembered as known absent.
func absentAll(fids []int64) map[int64]*Score {
	out := make(map[int64]*Score, len(fids))
	for _, fid := range fids {
		out[fid] = nil
	}
	return out
}

func floatPtr(f float64) *float64 {
	return &f
}
