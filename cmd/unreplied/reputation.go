package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/systemshift/unreplied/internal/client"
)

var (
	repClear  bool
	repStatus bool
)

var reputationCmd = &cobra.Command{
	Use:   "reputation [fid...]",
	Short: "Look up ranks and scores, or inspect the reputation cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		ctx := context.Background()

		if repClear {
			if err := c.ClearCache(ctx); err != nil {
				return err
			}
			fmt.Println("reputation cache cleared")
		}

		if repStatus {
			status, err := c.Status(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(status))
			for name := range status {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				s := status[name]
				fmt.Printf("%-6s valid=%-5t age=%ds cached=%d ttl=%ds\n", name, s.Valid, s.AgeSeconds, s.CachedCount, s.TTLSeconds)
			}
		}

		if len(args) == 0 {
			if !repClear && !repStatus {
				return fmt.Errorf("at least one fid is required")
			}
			return nil
		}

		fids := make([]int64, 0, len(args))
		for _, arg := range args {
			fid, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid fid %q", arg)
			}
			fids = append(fids, fid)
		}

		ranks, err := c.Ranks(ctx, fids)
		if err != nil {
			return err
		}
		scores, err := c.Scores(ctx, fids)
		if err != nil {
			return err
		}
		byFID := make(map[int64]client.ScoreEntry, len(scores))
		for _, s := range scores {
			byFID[s.FID] = s
		}

		for _, fid := range fids {
			fmt.Printf("fid %-8d rank %-10s score %s\n", fid, formatRank(ranks, fid), formatScore(byFID, fid))
		}
		return nil
	},
}

func formatRank(ranks map[int64]*float64, fid int64) string {
	r, ok := ranks[fid]
	switch {
	case !ok:
		return "pending"
	case r == nil:
		return "unranked"
	default:
		return strconv.FormatFloat(*r, 'f', 0, 64)
	}
}

func formatScore(scores map[int64]client.ScoreEntry, fid int64) string {
	s, ok := scores[fid]
	if !ok || s.Score == nil {
		return "-"
	}
	return strconv.FormatFloat(*s.Score, 'f', 3, 64)
}

func init() {
	reputationCmd.Flags().BoolVar(&repClear, "clear", false, "Clear both caches first")
	reputationCmd.Flags().BoolVar(&repStatus, "status", false, "Print cache status")
}
