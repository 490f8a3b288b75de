package graph

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// PoolConfig bounds the database/sql connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultPoolConfig mirrors the production pool: 10 connections, idle
// connections evicted after 30s, 2s to establish connectivity.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		ConnMaxIdleTime: 30 * time.Second,
		ConnectTimeout:  2 * time.Second,
	}
}

// SQLRepository implements Repository over database/sql. SQLite and
// Postgres share it and differ only in their Dialect.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLite creates a new SQLite repository
func NewSQLite(ctx context.Context, dbPath string, pool PoolConfig) (*SQLRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	repo, err := openSQL(ctx, db, SQLiteDialect, pool)
	if err != nil {
		return nil, err
	}

	// Apply pragmas for concurrent readers
	for _, pragma := range allPragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if err := repo.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func openSQL(ctx context.Context, db *sql.DB, d Dialect, pool PoolConfig) (*SQLRepository, error) {
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
		db.SetMaxIdleConns(pool.MaxOpenConns)
	}
	if pool.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	// Verify connectivity
	pingCtx := ctx
	if pool.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pool.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", d.Name, err)
	}

	return &SQLRepository{db: db, dialect: d}, nil
}

func (r *SQLRepository) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(r.dialect) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return r.EnsureIndexes(ctx)
}

// Close closes the database connection pool
func (r *SQLRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

// EnsureIndexes creates the cast lookup indexes
func (r *SQLRepository) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range indexStatements() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// SaveCast inserts a cast, or refreshes the soft-delete marker of an
// existing one.
func (r *SQLRepository) SaveCast(ctx context.Context, cast *Cast) error {
	if err := cast.Validate(); err != nil {
		return err
	}

	b := &binder{d: r.dialect}
	var ts, parent, deleted any
	if !cast.Timestamp.IsZero() {
		ts = r.dialect.TimeArg(cast.Timestamp)
	}
	if cast.ParentHash != "" {
		parent = cast.ParentHash
	}
	if cast.DeletedAt != nil {
		deleted = r.dialect.TimeArg(*cast.DeletedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO casts (fid, hash, timestamp, text, parent_cast_hash, deleted_at)
		VALUES (%s, %s, %s, %s, %s, %s)
		ON CONFLICT (hash) DO UPDATE SET deleted_at = excluded.deleted_at
	`, b.arg(cast.FID), b.arg(cast.Hash), b.arg(ts), b.arg(cast.Text), b.arg(parent), b.arg(deleted))

	if _, err := r.db.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("inserting cast: %w", err)
	}
	return nil
}

// ThreadWindow runs the windowed first-reply query.
func (r *SQLRepository) ThreadWindow(ctx context.Context, q WindowQuery) ([]ThreadRow, error) {
	query, args := UnrepliedQuery{WindowQuery: q}.Build(r.dialect)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying thread window: %w", err)
	}
	defer rows.Close()

	var result []ThreadRow
	for rows.Next() {
		row, err := scanThreadRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading thread window: %w", err)
	}

	return result, nil
}

func scanThreadRow(rows *sql.Rows) (ThreadRow, error) {
	var (
		rootHash            string
		rootTS, replyTS     any
		replyFID, replyCnt  sql.NullInt64
		replyHash, replyTxt sql.NullString
		answered            bool
	)

	if err := rows.Scan(&rootHash, &rootTS, &replyFID, &replyHash, &replyTS, &replyTxt, &replyCnt, &answered); err != nil {
		return ThreadRow{}, fmt.Errorf("scanning thread row: %w", err)
	}

	rootTime, _, err := parseTimeValue(rootTS)
	if err != nil {
		return ThreadRow{}, fmt.Errorf("root %s: %w", rootHash, err)
	}

	row := ThreadRow{
		Root:     RootKey{Timestamp: rootTime, Hash: rootHash},
		Answered: answered,
	}

	if replyHash.Valid {
		replyTime, _, err := parseTimeValue(replyTS)
		if err != nil {
			return ThreadRow{}, fmt.Errorf("reply %s: %w", replyHash.String, err)
		}
		row.FirstReply = &Cast{
			FID:        replyFID.Int64,
			Hash:       replyHash.String,
			Timestamp:  replyTime,
			Text:       replyTxt.String,
			ParentHash: rootHash,
		}
		row.ReplyCount = int(replyCnt.Int64)
	}

	return row, nil
}
