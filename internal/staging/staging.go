// Package staging implements the staging area for candidate records.
//
// Contributions arrive faster than maintainers review them. The staging
// area parks candidates in a local SQLite database (.awesync/stage.db)
// until a maintainer promotes them into the canonical source; promoted
// rows are kept with a promotion timestamp so provenance survives.
//
// The database is embedded SQLite (ncruces/go-sqlite3) in WAL mode.
// Entries are validated on the way in, so the staging area never holds
// a record the source would reject for missing required fields.
// Duplicate detection against the source happens at promotion time,
// when the canonical snapshot is available.
package staging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/source"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DefaultFileName is the staging database file inside the project data
// directory.
const DefaultFileName = "stage.db"

var (
	// ErrNotFound reports a staged entry ID that does not exist.
	ErrNotFound = errors.New("staged entry not found")

	// ErrAlreadyPromoted reports an attempt to promote an entry twice.
	ErrAlreadyPromoted = errors.New("staged entry already promoted")

	// ErrAlreadyStaged reports a pending entry with the same identity
	// key in the same category.
	ErrAlreadyStaged = errors.New("record already staged")
)

// Entry is one staged candidate record.
type Entry struct {
	ID       int64
	Category string
	Record   record.Record

	// Origin is a free-form provenance note: "manual" for interactive
	// adds, or the name of the feed or URL the candidate came from.
	Origin string

	StagedAt   time.Time
	PromotedAt *time.Time
}

// Promoted reports whether the entry has been merged into the source.
func (e *Entry) Promoted() bool { return e.PromotedAt != nil }

// Store wraps the staging database connection.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the staging database at path and
// ensures the schema exists. The caller must Close the store.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staging database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping staging database: %w", err)
	}

	s := &Store{conn: conn, path: path}

	// WAL keeps list queries readable while an add is in flight.
	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close staging database: %w", err)
	}
	s.conn = nil
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS staged (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		year TEXT NOT NULL,
		title TEXT NOT NULL,
		team TEXT NOT NULL DEFAULT '',
		team_website TEXT NOT NULL DEFAULT '',
		affiliation TEXT NOT NULL DEFAULT '',
		domain TEXT NOT NULL DEFAULT '',
		venue TEXT NOT NULL DEFAULT '',
		paper_url TEXT NOT NULL DEFAULT '',
		code_url TEXT NOT NULL DEFAULT '',
		github_stars TEXT NOT NULL DEFAULT '',
		origin TEXT NOT NULL DEFAULT '',
		staged_at TEXT NOT NULL,
		promoted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_staged_category ON staged(category);
	CREATE INDEX IF NOT EXISTS idx_staged_promoted ON staged(promoted_at);
	CREATE INDEX IF NOT EXISTS idx_staged_at ON staged(staged_at);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize staging schema: %w", err)
	}
	return nil
}

// Add validates and stages one candidate record. A pending entry with
// the same identity key in the same category is rejected with
// ErrAlreadyStaged; a promoted duplicate does not block re-staging.
func (s *Store) Add(ctx context.Context, category string, rec record.Record, origin string) (*Entry, error) {
	if strings.TrimSpace(category) == "" {
		return nil, fmt.Errorf("stage: empty category key")
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	pending, err := s.List(ctx, ListOptions{Category: category})
	if err != nil {
		return nil, err
	}
	key := rec.Key()
	for _, e := range pending {
		if e.Record.Key() == key {
			return nil, fmt.Errorf("%w: %q (%s) in category %q",
				ErrAlreadyStaged, rec.Title, rec.Year, category)
		}
	}

	now := time.Now().UTC()
	query := `
	INSERT INTO staged (
		category, year, title, team, team_website, affiliation,
		domain, venue, paper_url, code_url, github_stars,
		origin, staged_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.conn.ExecContext(ctx, query,
		category,
		rec.Year,
		rec.Title,
		rec.Team,
		rec.TeamWebsite,
		rec.Affiliation,
		rec.Domain,
		rec.Venue,
		rec.PaperURL,
		rec.CodeURL,
		rec.GitHubStars,
		origin,
		now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to stage record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read staged entry id: %w", err)
	}

	return &Entry{
		ID:       id,
		Category: category,
		Record:   rec,
		Origin:   origin,
		StagedAt: now,
	}, nil
}

// ListOptions filters the List query.
type ListOptions struct {
	// Category restricts to one category (empty = all).
	Category string

	// Since restricts to entries staged at or after this time (zero =
	// no restriction).
	Since time.Time

	// IncludePromoted includes entries that have already been promoted.
	IncludePromoted bool

	// Limit restricts the number of results (0 = no limit).
	Limit int
}

// List returns staged entries ordered oldest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Entry, error) {
	var conditions []string
	var args []interface{}

	if !opts.IncludePromoted {
		conditions = append(conditions, "promoted_at IS NULL")
	}
	if opts.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, opts.Category)
	}
	if !opts.Since.IsZero() {
		conditions = append(conditions, "staged_at >= ?")
		args = append(args, opts.Since.UTC().Format(time.RFC3339))
	}

	query := `
	SELECT id, category, year, title, team, team_website, affiliation,
	       domain, venue, paper_url, code_url, github_stars,
	       origin, staged_at, promoted_at
	FROM staged
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY staged_at ASC, id ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Get returns one entry by ID. Returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	query := `
	SELECT id, category, year, title, team, team_website, affiliation,
	       domain, venue, paper_url, code_url, github_stars,
	       origin, staged_at, promoted_at
	FROM staged
	WHERE id = ?
	`
	rows, err := s.conn.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query staged entry %d: %w", id, err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return entries[0], nil
}

// Promote merges the identified pending entries into the snapshot.
//
// The merge is all-or-nothing: if any entry is missing, already
// promoted, or collides with an existing source record, the snapshot is
// left untouched. Promote does not persist anything; after the caller
// saves the updated source it must call MarkPromoted so the entries
// stop showing up as pending.
func (s *Store) Promote(ctx context.Context, snap *record.Snapshot, ids []int64) ([]*Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	entries := make([]*Entry, 0, len(ids))
	for _, id := range ids {
		e, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if e.Promoted() {
			return nil, fmt.Errorf("%w: id %d (%q)", ErrAlreadyPromoted, e.ID, e.Record.Title)
		}
		entries = append(entries, e)
	}

	// Merge into a scratch copy first so a collision midway through
	// leaves the caller's snapshot untouched.
	work := snap.Clone()
	touched := make(map[string]bool)
	for _, e := range entries {
		if err := source.Merge(work, e.Category, e.Record); err != nil {
			return nil, fmt.Errorf("promote id %d: %w", e.ID, err)
		}
		touched[e.Category] = true
	}
	for cat := range touched {
		snap.Set(cat, work.Records(cat))
	}
	return entries, nil
}

// MarkPromoted stamps the entries as promoted. Already-promoted and
// missing IDs are skipped; the count of rows actually stamped is
// returned.
func (s *Store) MarkPromoted(ctx context.Context, ids []int64, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `UPDATE staged SET promoted_at = ? WHERE promoted_at IS NULL AND id IN (` + placeholders + `)`

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, at.UTC().Format(time.RFC3339))
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark entries promoted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count promoted entries: %w", err)
	}
	return int(n), nil
}

// Remove deletes entries by ID, pending or promoted. Missing IDs are
// ignored; the count of rows deleted is returned.
func (s *Store) Remove(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `DELETE FROM staged WHERE id IN (` + placeholders + `)`

	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to remove staged entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed entries: %w", err)
	}
	return int(n), nil
}

// PendingCount returns the number of entries awaiting promotion.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM staged WHERE promoted_at IS NULL").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending entries: %w", err)
	}
	return count, nil
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var e Entry
		var stagedAt string
		var promotedAt sql.NullString

		err := rows.Scan(
			&e.ID,
			&e.Category,
			&e.Record.Year,
			&e.Record.Title,
			&e.Record.Team,
			&e.Record.TeamWebsite,
			&e.Record.Affiliation,
			&e.Record.Domain,
			&e.Record.Venue,
			&e.Record.PaperURL,
			&e.Record.CodeURL,
			&e.Record.GitHubStars,
			&e.Origin,
			&stagedAt,
			&promotedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staged entry: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, stagedAt); err == nil {
			e.StagedAt = t
		}
		if promotedAt.Valid {
			if t, err := time.Parse(time.RFC3339, promotedAt.String); err == nil {
				e.PromotedAt = &t
			}
		}

		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staged entries: %w", err)
	}
	return entries, nil
}
