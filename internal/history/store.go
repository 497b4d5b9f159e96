// Package history keeps a small local log of completed runs: an append-only
// list capped at the 50 most recent entries, stored in an embedded sqlite
// database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"brandforge/internal/domain"
)

// MaxEntries caps how many history entries are retained.
const MaxEntries = 50

// Entry is one completed-run snapshot.
type Entry struct {
	ID           string                `json:"id"`
	CreatedAt    time.Time             `json:"createdAt"`
	BrandName    string                `json:"brandName"`
	Subject      string                `json:"subject"`
	ThumbnailURL string                `json:"thumbnailUrl"`
	AssetCount   int                   `json:"assetCount"`
	Headline     string                `json:"headline"`
	Analysis     *domain.BrandAnalysis `json:"brandContext,omitempty"`
	Assets       []domain.Asset        `json:"assets,omitempty"`
	AdCopy       *domain.AdCopy        `json:"adCopy,omitempty"`
}

// Store is the sqlite-backed history log.
type Store struct {
	db *sql.DB
}

// Open initializes or connects to the history database under dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS history_entries (
	id            TEXT PRIMARY KEY,
	created_at    TEXT NOT NULL,
	brand_name    TEXT NOT NULL DEFAULT '',
	subject       TEXT NOT NULL DEFAULT '',
	thumbnail_url TEXT NOT NULL DEFAULT '',
	asset_count   INTEGER NOT NULL DEFAULT 0,
	headline      TEXT NOT NULL DEFAULT '',
	analysis_json TEXT,
	assets_json   TEXT NOT NULL DEFAULT '[]',
	ad_copy_json  TEXT
);
CREATE INDEX IF NOT EXISTS idx_history_created_at ON history_entries(created_at DESC);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

// Snapshot builds an entry from a completed run. The thumbnail is the first
// asset with a non-empty URL.
func Snapshot(analysis *domain.BrandAnalysis, assets []domain.Asset, adCopy *domain.AdCopy) Entry {
	entry := Entry{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		AssetCount: len(assets),
		Assets:     assets,
		AdCopy:     adCopy,
	}
	if analysis != nil {
		entry.BrandName = analysis.BrandName
		entry.Subject = analysis.Subject
		entry.Analysis = analysis
	}
	if adCopy != nil {
		entry.Headline = adCopy.Headline
	}
	for _, a := range assets {
		if a.URL != "" {
			entry.ThumbnailURL = a.URL
			break
		}
	}
	return entry
}

// Append stores one entry and prunes the log down to MaxEntries newest
// entries.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	assetsJSON, err := json.Marshal(entry.Assets)
	if err != nil {
		return fmt.Errorf("encode history assets: %w", err)
	}
	var adCopyJSON []byte
	if entry.AdCopy != nil {
		adCopyJSON, err = json.Marshal(entry.AdCopy)
		if err != nil {
			return fmt.Errorf("encode history ad copy: %w", err)
		}
	}
	var analysisJSON []byte
	if entry.Analysis != nil {
		analysisJSON, err = json.Marshal(entry.Analysis)
		if err != nil {
			return fmt.Errorf("encode history analysis: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO history_entries (id, created_at, brand_name, subject, thumbnail_url, asset_count, headline, analysis_json, assets_json, ad_copy_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CreatedAt.Format(time.RFC3339Nano),
		entry.BrandName,
		entry.Subject,
		entry.ThumbnailURL,
		entry.AssetCount,
		entry.Headline,
		nullable(analysisJSON),
		string(assetsJSON),
		nullable(adCopyJSON),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
DELETE FROM history_entries WHERE id NOT IN (
	SELECT id FROM history_entries ORDER BY created_at DESC LIMIT ?
)`, MaxEntries)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}

func nullable(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

// List returns entries newest-first. Asset and ad-copy payloads are included.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, brand_name, subject, thumbnail_url, asset_count, headline, analysis_json, assets_json, ad_copy_json
FROM history_entries ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// Get returns one entry by id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, brand_name, subject, thumbnail_url, asset_count, headline, analysis_json, assets_json, ad_copy_json
FROM history_entries WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get history entry: %w", err)
		}
		return nil, fmt.Errorf("history entry %s: %w", id, domain.ErrNotFound)
	}
	entry, err := scanEntry(rows)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry        Entry
		createdAt    string
		analysisJSON sql.NullString
		assetsJSON   string
		adCopyJSON   sql.NullString
	)
	if err := rows.Scan(
		&entry.ID,
		&createdAt,
		&entry.BrandName,
		&entry.Subject,
		&entry.ThumbnailURL,
		&entry.AssetCount,
		&entry.Headline,
		&analysisJSON,
		&assetsJSON,
		&adCopyJSON,
	); err != nil {
		return Entry{}, fmt.Errorf("scan history entry: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse history timestamp: %w", err)
	}
	entry.CreatedAt = ts
	if err := json.Unmarshal([]byte(assetsJSON), &entry.Assets); err != nil {
		return Entry{}, fmt.Errorf("decode history assets: %w", err)
	}
	if analysisJSON.Valid && analysisJSON.String != "" {
		var analysis domain.BrandAnalysis
		if err := json.Unmarshal([]byte(analysisJSON.String), &analysis); err != nil {
			return Entry{}, fmt.Errorf("decode history analysis: %w", err)
		}
		entry.Analysis = &analysis
	}
	if adCopyJSON.Valid && adCopyJSON.String != "" {
		var adCopy domain.AdCopy
		if err := json.Unmarshal([]byte(adCopyJSON.String), &adCopy); err != nil {
			return Entry{}, fmt.Errorf("decode history ad copy: %w", err)
		}
		entry.AdCopy = &adCopy
	}
	return entry, nil
}

// Delete removes one entry by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM history_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("history entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Clear removes all entries.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history_entries"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
