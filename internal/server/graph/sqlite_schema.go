package graph

// SQL schema DDL constants. The core only reads casts; the other tables are
// part of the social-graph schema shared with the sync side.

const schemaCastsSQLite = `
CREATE TABLE IF NOT EXISTS casts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fid INTEGER NOT NULL,
    hash TEXT UNIQUE NOT NULL,
    timestamp DATETIME,
    text TEXT NOT NULL DEFAULT '',
    parent_cast_hash TEXT,
    deleted_at DATETIME
)`

const schemaProfilesSQLite = `
CREATE TABLE IF NOT EXISTS profiles (
    fid INTEGER PRIMARY KEY,
    data TEXT NOT NULL DEFAULT '{}'
)`

const schemaLinksSQLite = `
CREATE TABLE IF NOT EXISTS links (
    fid INTEGER NOT NULL,
    target_fid INTEGER NOT NULL,
    type TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    UNIQUE(fid, target_fid, type)
)`

const schemaReactionsSQLite = `
CREATE TABLE IF NOT EXISTS reactions (
    fid INTEGER NOT NULL,
    target_cast_hash TEXT NOT NULL,
    type TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    UNIQUE(fid, target_cast_hash, type)
)`

const schemaVerificationsSQLite = `
CREATE TABLE IF NOT EXISTS verifications (
    fid INTEGER NOT NULL,
    address TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    UNIQUE(fid, address)
)`

const schemaCastsPostgres = `
CREATE TABLE IF NOT EXISTS casts (
    id BIGSERIAL PRIMARY KEY,
    fid BIGINT NOT NULL,
    hash TEXT UNIQUE NOT NULL,
    timestamp TIMESTAMPTZ,
    text TEXT NOT NULL DEFAULT '',
    parent_cast_hash TEXT,
    deleted_at TIMESTAMPTZ
)`

const schemaProfilesPostgres = `
CREATE TABLE IF NOT EXISTS profiles (
    fid BIGINT PRIMARY KEY,
    data JSONB NOT NULL DEFAULT '{}'::jsonb
)`

const schemaLinksPostgres = `
CREATE TABLE IF NOT EXISTS links (
    fid BIGINT NOT NULL,
    target_fid BIGINT NOT NULL,
    type TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL,
    UNIQUE(fid, target_fid, type)
)`

const schemaReactionsPostgres = `
CREATE TABLE IF NOT EXISTS reactions (
    fid BIGINT NOT NULL,
    target_cast_hash TEXT NOT NULL,
    type TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL,
    UNIQUE(fid, target_cast_hash, type)
)`

const schemaVerificationsPostgres = `
CREATE TABLE IF NOT EXISTS verifications (
    fid BIGINT NOT NULL,
    address TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL,
    UNIQUE(fid, address)
)`

// Index definitions (same syntax on both dialects)
const indexCastsHash = `CREATE INDEX IF NOT EXISTS idx_casts_hash ON casts(hash)`
const indexCastsFID = `CREATE INDEX IF NOT EXISTS idx_casts_fid ON casts(fid)`
const indexCastsParent = `CREATE INDEX IF NOT EXISTS idx_casts_parent_cast_hash ON casts(parent_cast_hash)`
const indexCastsTimestamp = `CREATE INDEX IF NOT EXISTS idx_casts_timestamp ON casts(timestamp)`
const indexLinksFID = `CREATE INDEX IF NOT EXISTS idx_links_fid ON links(fid)`
const indexReactionsTarget = `CREATE INDEX IF NOT EXISTS idx_reactions_target ON reactions(target_cast_hash)`

// SQLite pragmas
const pragmaWAL = `PRAGMA journal_mode=WAL`
const pragmaBusyTimeout = `PRAGMA busy_timeout=5000`
const pragmaSynchronous = `PRAGMA synchronous=NORMAL`

func indexStatements() []string {
	return []string{
		indexCastsHash,
		indexCastsFID,
		indexCastsParent,
		indexCastsTimestamp,
		indexLinksFID,
		indexReactionsTarget,
	}
}

// schemaStatements returns all table DDL for the dialect in order
func schemaStatements(d Dialect) []string {
	if d.Name == PostgresDialect.Name {
		return []string{
			schemaCastsPostgres,
			schemaProfilesPostgres,
			schemaLinksPostgres,
			schemaReactionsPostgres,
			schemaVerificationsPostgres,
		}
	}
	return []string{
		schemaCastsSQLite,
		schemaProfilesSQLite,
		schemaLinksSQLite,
		schemaReactionsSQLite,
		schemaVerificationsSQLite,
	}
}

// allPragmas returns the SQLite pragma statements
func allPragmas() []string {
	return []string{
		pragmaWAL,
		pragmaBusyTimeout,
		pragmaSynchronous,
	}
}
