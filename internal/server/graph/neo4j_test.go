package graph

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestCastParams(t *testing.T) {
	deleted := at(50)
	tests := []struct {
		name string
		cast Cast
		want map[string]any
	}{
		{
			name: "root without timestamp",
			cast: Cast{FID: 3, Hash: "0xa", Text: "hi"},
			want: map[string]any{
				"hash": "0xa", "fid": int64(3), "text": "hi",
				"timestamp": nil, "parent_hash": nil, "deleted_at": nil,
			},
		},
		{
			name: "deleted reply",
			cast: Cast{FID: 7, Hash: "0xb", Text: "yo", Timestamp: at(10), ParentHash: "0xa", DeletedAt: &deleted},
			want: map[string]any{
				"hash": "0xb", "fid": int64(7), "text": "yo",
				"timestamp":   at(10).UnixMilli(),
				"parent_hash": "0xa",
				"deleted_at":  deleted.UnixMilli(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := castParams(&tt.cast)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d params, got %v", len(tt.want), got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("param %s: expected %v (%T), got %v (%T)", k, v, v, got[k], got[k])
				}
			}
		})
	}
}

var threadRowKeys = []string{
	"root_hash", "root_ts", "reply_fid", "reply_hash", "reply_ts", "reply_text", "reply_count", "answered",
}

func TestRecordToThreadRow(t *testing.T) {
	rootTS := at(10).UnixMilli()
	replyTS := at(25).UnixMilli()

	t.Run("with first reply", func(t *testing.T) {
		rec := &neo4j.Record{
			Keys:   threadRowKeys,
			Values: []any{"0xa", rootTS, int64(7), "0xar", replyTS, "hey", int64(3), true},
		}
		row, err := recordToThreadRow(rec)
		if err != nil {
			t.Fatalf("recordToThreadRow: %v", err)
		}
		if row.Root.Hash != "0xa" || !row.Root.Timestamp.Equal(at(10)) {
			t.Errorf("unexpected root key %+v", row.Root)
		}
		if row.Root.Timestamp.Location() != time.UTC {
			t.Errorf("expected UTC timestamp, got %v", row.Root.Timestamp.Location())
		}
		if !row.Answered || row.ReplyCount != 3 {
			t.Errorf("expected answered with 3 replies, got %+v", row)
		}
		r := row.FirstReply
		if r == nil {
			t.Fatal("expected first reply")
		}
		if r.FID != 7 || r.Hash != "0xar" || r.Text != "hey" || r.ParentHash != "0xa" || !r.Timestamp.Equal(at(25)) {
			t.Errorf("unexpected first reply %+v", r)
		}
	})

	t.Run("null reply columns", func(t *testing.T) {
		rec := &neo4j.Record{
			Keys:   threadRowKeys,
			Values: []any{"0xb", rootTS, nil, nil, nil, nil, int64(0), false},
		}
		row, err := recordToThreadRow(rec)
		if err != nil {
			t.Fatalf("recordToThreadRow: %v", err)
		}
		if row.FirstReply != nil || row.ReplyCount != 0 || row.Answered {
			t.Errorf("expected root without reply, got %+v", row)
		}
	})

	t.Run("missing root hash", func(t *testing.T) {
		rec := &neo4j.Record{
			Keys:   threadRowKeys,
			Values: []any{nil, rootTS, nil, nil, nil, nil, int64(0), false},
		}
		if _, err := recordToThreadRow(rec); err == nil {
			t.Error("expected error for null root hash")
		}
	})

	t.Run("null root timestamp", func(t *testing.T) {
		rec := &neo4j.Record{
			Keys:   threadRowKeys,
			Values: []any{"0xc", nil, nil, nil, nil, nil, int64(0), false},
		}
		row, err := recordToThreadRow(rec)
		if err != nil {
			t.Fatalf("recordToThreadRow: %v", err)
		}
		if !row.Root.Timestamp.IsZero() {
			t.Errorf("expected zero timestamp, got %v", row.Root.Timestamp)
		}
	})
}
