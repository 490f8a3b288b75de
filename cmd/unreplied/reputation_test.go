package main

import (
	"testing"

	"github.com/systemshift/unreplied/internal/client"
)

func TestFormatRank(t *testing.T) {
	r := 12.0
	ranks := map[int64]*float64{1: &r, 2: nil}

	tests := []struct {
		fid  int64
		want string
	}{
		{1, "12"},
		{2, "unranked"},
		{3, "pending"},
	}
	for _, tt := range tests {
		if got := formatRank(ranks, tt.fid); got != tt.want {
			t.Errorf("formatRank(%d) = %q, want %q", tt.fid, got, tt.want)
		}
	}
}

func TestFormatScore(t *testing.T) {
	s := 0.8125
	scores := map[int64]client.ScoreEntry{1: {FID: 1, Score: &s}, 2: {FID: 2}}

	if got := formatScore(scores, 1); got != "0.812" && got != "0.813" {
		t.Errorf("formatScore(1) = %q", got)
	}
	if got := formatScore(scores, 2); got != "-" {
		t.Errorf("formatScore(2) = %q", got)
	}
	if got := formatScore(scores, 3); got != "-" {
		t.Errorf("formatScore(3) = %q", got)
	}
}
