package graph

import (
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed-width so that SQLite's text comparison orders
// timestamps chronologically.
const timeLayout = "2006-01-02 15:04:05.000"

// Dialect captures the differences between the SQL backends.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// TimeArg converts a timestamp into a bind value.
	TimeArg func(t time.Time) any
}

// SQLiteDialect binds with ? and stores timestamps as fixed-width UTC text.
var SQLiteDialect = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	TimeArg:     func(t time.Time) any { return t.UTC().Format(timeLayout) },
}

// PostgresDialect binds with $n and passes timestamps through to timestamptz.
var PostgresDialect = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	TimeArg:     func(t time.Time) any { return t.UTC() },
}

// binder collects bind arguments while a statement is rendered.
type binder struct {
	d    Dialect
	args []any
}

func (b *binder) arg(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

func (b *binder) timeArg(t time.Time) string {
	return b.arg(b.d.TimeArg(t))
}

// UnrepliedQuery builds the windowed first-reply statement:
//
//	user_casts  the user's live root casts in the window, newest first, capped
//	replies     live replies by other users, ROW_NUMBER by timestamp per root
//	select      every scanned root LEFT JOINed to its rank-1 reply
//
// Roots without a qualifying reply are kept with NULL reply columns so the
// caller can advance its cursor past them.
type UnrepliedQuery struct {
	WindowQuery
}

// Build renders the statement and its arguments for the dialect.
func (q UnrepliedQuery) Build(d Dialect) (string, []any) {
	b := &binder{d: d}
	var sb strings.Builder

	sb.WriteString("WITH user_casts AS (\n")
	sb.WriteString("\tSELECT hash, timestamp\n")
	sb.WriteString("\tFROM casts\n")
	fmt.Fprintf(&sb, "\tWHERE fid = %s\n", b.arg(q.UserFID))
	sb.WriteString("\t  AND parent_cast_hash IS NULL\n")
	sb.WriteString("\t  AND deleted_at IS NULL\n")
	fmt.Fprintf(&sb, "\t  AND timestamp >= %s\n", b.timeArg(q.Since))
	if q.After != nil {
		fmt.Fprintf(&sb, "\t  AND (timestamp < %s OR (timestamp = %s AND hash < %s))\n",
			b.timeArg(q.After.Timestamp), b.timeArg(q.After.Timestamp), b.arg(q.After.Hash))
	}
	sb.WriteString("\tORDER BY timestamp DESC, hash DESC\n")
	fmt.Fprintf(&sb, "\tLIMIT %s\n", b.arg(q.Limit))
	sb.WriteString("),\n")

	sb.WriteString("replies AS (\n")
	sb.WriteString("\tSELECT r.fid, r.hash, r.timestamp, r.text, r.parent_cast_hash,\n")
	sb.WriteString("\t       ROW_NUMBER() OVER (PARTITION BY r.parent_cast_hash ORDER BY r.timestamp ASC, r.hash ASC) AS rn,\n")
	sb.WriteString("\t       COUNT(*) OVER (PARTITION BY r.parent_cast_hash) AS reply_count\n")
	sb.WriteString("\tFROM casts r\n")
	sb.WriteString("\tJOIN user_casts uc ON r.parent_cast_hash = uc.hash\n")
	fmt.Fprintf(&sb, "\tWHERE r.fid <> %s\n", b.arg(q.UserFID))
	sb.WriteString("\t  AND r.deleted_at IS NULL\n")
	sb.WriteString("\t  AND r.timestamp IS NOT NULL\n")
	sb.WriteString(")\n")

	sb.WriteString("SELECT uc.hash, uc.timestamp,\n")
	sb.WriteString("       f.fid, f.hash, f.timestamp, f.text, f.reply_count,\n")
	sb.WriteString("       EXISTS (\n")
	sb.WriteString("           SELECT 1 FROM casts s\n")
	fmt.Fprintf(&sb, "           WHERE s.parent_cast_hash = uc.hash AND s.fid = %s\n", b.arg(q.UserFID))
	sb.WriteString("             AND s.deleted_at IS NULL AND s.timestamp >= f.timestamp\n")
	sb.WriteString("       ) AS answered\n")
	sb.WriteString("FROM user_casts uc\n")
	sb.WriteString("LEFT JOIN replies f ON f.parent_cast_hash = uc.hash AND f.rn = 1\n")
	sb.WriteString("ORDER BY uc.timestamp DESC, uc.hash DESC")

	return sb.String(), b.args
}

// parseTimeValue converts a scanned timestamp column. Drivers return
// time.Time, text, or nothing at all.
func parseTimeValue(v any) (time.Time, bool, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return t.UTC(), true, nil
	case string:
		return parseTimeText(t)
	case []byte:
		return parseTimeText(string(t))
	case int64:
		return time.UnixMilli(t).UTC(), true, nil
	default:
		return time.Time{}, false, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseTimeText(s string) (time.Time, bool, error) {
	if s == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("parsing timestamp %q", s)
}
