package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// LoadFixtures reads a JSON array of casts from path.
func LoadFixtures(path string) ([]Cast, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}

	var casts []Cast
	if err := json.Unmarshal(data, &casts); err != nil {
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}
	return casts, nil
}

// Seed saves every cast into repo and returns how many were written.
func Seed(ctx context.Context, repo Repository, casts []Cast) (int, error) {
	for i := range casts {
		if err := repo.SaveCast(ctx, &casts[i]); err != nil {
			return i, fmt.Errorf("seeding cast %s: %w", casts[i].Hash, err)
		}
	}
	return len(casts), nil
}
