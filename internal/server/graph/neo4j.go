package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jRepository stores casts as (:Cast) nodes. Timestamps are stored as
// epoch milliseconds so ordering is numeric.
type Neo4jRepository struct {
	driver   neo4j.DriverWithContext
	database string
}

// Neo4jConfig holds Neo4j connection configuration
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// NewNeo4j creates a new Neo4j repository
func NewNeo4j(ctx context.Context, cfg Neo4jConfig) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	// Verify connectivity
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	return &Neo4jRepository{driver: driver, database: database}, nil
}

// Close closes the Neo4j connection
func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// EnsureIndexes creates the uniqueness constraint and lookup indexes
func (r *Neo4jRepository) EnsureIndexes(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT cast_hash IF NOT EXISTS FOR (c:Cast) REQUIRE c.hash IS UNIQUE`,
		`CREATE INDEX cast_fid IF NOT EXISTS FOR (c:Cast) ON (c.fid)`,
		`CREATE INDEX cast_parent IF NOT EXISTS FOR (c:Cast) ON (c.parentHash)`,
		`CREATE INDEX cast_timestamp IF NOT EXISTS FOR (c:Cast) ON (c.timestamp)`,
	}

	for _, stmt := range statements {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		})
		if err != nil {
			return fmt.Errorf("creating neo4j index: %w", err)
		}
	}
	return nil
}

// SaveCast merges a cast node by hash
func (r *Neo4jRepository) SaveCast(ctx context.Context, cast *Cast) error {
	if err := cast.Validate(); err != nil {
		return err
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (c:Cast {hash: $hash})
			ON CREATE SET c.fid = $fid,
			              c.timestamp = $timestamp,
			              c.text = $text,
			              c.parentHash = $parent_hash
			SET c.deletedAt = $deleted_at
		`

		_, err := tx.Run(ctx, query, castParams(cast))
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("saving cast: %w", err)
	}
	return nil
}

func castParams(cast *Cast) map[string]any {
	params := map[string]any{
		"hash":        cast.Hash,
		"fid":         cast.FID,
		"text":        cast.Text,
		"timestamp":   nil,
		"parent_hash": nil,
		"deleted_at":  nil,
	}
	if !cast.Timestamp.IsZero() {
		params["timestamp"] = cast.Timestamp.UnixMilli()
	}
	if cast.ParentHash != "" {
		params["parent_hash"] = cast.ParentHash
	}
	if cast.DeletedAt != nil {
		params["deleted_at"] = cast.DeletedAt.UnixMilli()
	}
	return params
}

// threadWindowCypher mirrors UnrepliedQuery: window the user's roots, take
// the earliest reply by someone else per root, and flag roots the user
// answered at or after that reply.
const threadWindowCypher = `
	MATCH (root:Cast {fid: $fid})
	WHERE root.parentHash IS NULL
	  AND root.deletedAt IS NULL
	  AND root.timestamp >= $since
	  AND ($after_ts IS NULL
	       OR root.timestamp < $after_ts
	       OR (root.timestamp = $after_ts AND root.hash < $after_hash))
	WITH root
	ORDER BY root.timestamp DESC, root.hash DESC
	LIMIT $limit
	OPTIONAL MATCH (reply:Cast)
	WHERE reply.parentHash = root.hash
	  AND reply.fid <> $fid
	  AND reply.deletedAt IS NULL
	  AND reply.timestamp IS NOT NULL
	WITH root, reply
	ORDER BY reply.timestamp ASC, reply.hash ASC
	WITH root, collect(reply) AS replies
	WITH root, size(replies) AS reply_count,
	     CASE WHEN size(replies) > 0 THEN replies[0] ELSE null END AS first
	OPTIONAL MATCH (own:Cast {fid: $fid})
	WHERE own.parentHash = root.hash
	  AND own.deletedAt IS NULL
	  AND first IS NOT NULL
	  AND own.timestamp >= first.timestamp
	WITH root, first, reply_count, count(own) > 0 AS answered
	RETURN root.hash AS root_hash,
	       root.timestamp AS root_ts,
	       first.fid AS reply_fid,
	       first.hash AS reply_hash,
	       first.timestamp AS reply_ts,
	       first.text AS reply_text,
	       reply_count,
	       answered
	ORDER BY root_ts DESC, root_hash DESC
`

// ThreadWindow runs the first-reply window in Cypher
func (r *Neo4jRepository) ThreadWindow(ctx context.Context, q WindowQuery) ([]ThreadRow, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
	defer session.Close(ctx)

	params := map[string]any{
		"fid":        q.UserFID,
		"since":      q.Since.UnixMilli(),
		"limit":      int64(q.Limit),
		"after_ts":   nil,
		"after_hash": "",
	}
	if q.After != nil {
		params["after_ts"] = q.After.Timestamp.UnixMilli()
		params["after_hash"] = q.After.Hash
	}

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, threadWindowCypher, params)
		if err != nil {
			return nil, err
		}

		var rows []ThreadRow
		for res.Next(ctx) {
			row, err := recordToThreadRow(res.Record())
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("querying thread window: %w", err)
	}

	return result.([]ThreadRow), nil
}

func recordToThreadRow(record *neo4j.Record) (ThreadRow, error) {
	rootHash, _ := record.Get("root_hash")
	rootTS, _ := record.Get("root_ts")
	answered, _ := record.Get("answered")

	hash, ok := rootHash.(string)
	if !ok {
		return ThreadRow{}, fmt.Errorf("unexpected root hash %v", rootHash)
	}

	row := ThreadRow{
		Root: RootKey{Timestamp: millisValue(rootTS), Hash: hash},
	}
	if b, ok := answered.(bool); ok {
		row.Answered = b
	}

	replyHash, _ := record.Get("reply_hash")
	if h, ok := replyHash.(string); ok {
		replyFID, _ := record.Get("reply_fid")
		replyTS, _ := record.Get("reply_ts")
		replyText, _ := record.Get("reply_text")
		replyCount, _ := record.Get("reply_count")

		fid, _ := replyFID.(int64)
		text, _ := replyText.(string)
		count, _ := replyCount.(int64)

		row.FirstReply = &Cast{
			FID:        fid,
			Hash:       h,
			Timestamp:  millisValue(replyTS),
			Text:       text,
			ParentHash: hash,
		}
		row.ReplyCount = int(count)
	}

	return row, nil
}

func millisValue(v any) time.Time {
	if ms, ok := v.(int64); ok {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
