package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systemshift/unreplied/internal/server/graph"
)

var seedCmd = &cobra.Command{
	Use:   "seed <casts.json>",
	Short: "Load casts from a JSON fixture into the configured store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DBDriver == "memory" {
			return fmt.Errorf("seeding the memory store has no effect; use FIXTURES with serve instead")
		}
		cfg.Fixtures = ""

		casts, err := graph.LoadFixtures(args[0])
		if err != nil {
			return err
		}

		ctx := context.Background()
		repo, err := graph.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("opening %s store: %w", cfg.DBDriver, err)
		}
		defer repo.Close(ctx)

		n, err := graph.Seed(ctx, repo, casts)
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d casts into %s\n", n, cfg.DBDriver)
		return nil
	},
}
