package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/systemshift/unreplied/internal/client"
	"github.com/systemshift/unreplied/internal/server/conversations"
)

var (
	feedFID   int64
	feedPages int
	feedLimit int
	feedDays  int
	feedSort  string
	feedJSON  bool
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Page through a user's unreplied conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if feedFID <= 0 {
			return fmt.Errorf("--fid is required")
		}

		p := conversations.NewPaginator(client.New(serverURL), feedLimit)
		p.SetFilter(conversations.Filter{Days: feedDays, Sort: conversations.Sort(feedSort)})

		ctx := context.Background()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		for page := 1; p.HasMore() && (feedPages <= 0 || page <= feedPages); page++ {
			res, err := p.NextPage(ctx, feedFID)
			if err != nil {
				return err
			}

			if feedJSON {
				if err := enc.Encode(res); err != nil {
					return err
				}
				continue
			}

			fmt.Printf("--- page %d (%d conversations)\n", page, res.TotalCount)
			for _, c := range res.Conversations {
				text := []rune(strings.ReplaceAll(c.FirstReply.Text, "\n", " "))
				if len(text) > 80 {
					text = append(text[:77], []rune("...")...)
				}
				fmt.Printf("%s  fid %-8d %s  %s\n",
					c.FirstReply.Timestamp.Format("2006-01-02 15:04"),
					c.FirstReplyAuthorFID, c.RootCastHash, string(text))
			}
		}

		if !feedJSON && !p.HasMore() {
			fmt.Println("--- end of feed")
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().Int64Var(&feedFID, "fid", 0, "User fid")
	feedCmd.Flags().IntVar(&feedPages, "pages", 1, "Pages to fetch (0 = until exhausted)")
	feedCmd.Flags().IntVar(&feedLimit, "limit", conversations.DefaultPageSize, "Root casts per page (max 50)")
	feedCmd.Flags().IntVar(&feedDays, "days", 0, "Window in days (default: server setting)")
	feedCmd.Flags().StringVar(&feedSort, "sort", "", "newest or oldest")
	feedCmd.Flags().BoolVar(&feedJSON, "json", false, "Print raw JSON pages")
}
