package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/michaelbrown/switchboard/internal/settings"
	"github.com/michaelbrown/switchboard/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements store.Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and runs migrations.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveConfig(ctx context.Context, name string, blob settings.Blob) (*store.ConfigDocument, error) {
	data, err := json.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM config_revisions WHERE name = ?`, name).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("computing revision seq: %w", err)
	}

	doc := &store.ConfigDocument{
		Name:      name,
		Revision:  uuid.New().String(),
		Seq:       seq,
		Config:    blob,
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO config_revisions (id, name, seq, config, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		doc.Revision, doc.Name, doc.Seq, string(data), doc.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting revision: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO config_heads (name, revision_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET revision_id = excluded.revision_id, updated_at = excluded.updated_at`,
		doc.Name, doc.Revision, doc.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("updating head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing save: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) LoadConfig(ctx context.Context, name string) (*store.ConfigDocument, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.name, r.seq, r.config, r.created_at
		FROM config_heads h
		JOIN config_revisions r ON r.id = h.revision_id
		WHERE h.name = ?`, name)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("config not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) ListRevisions(ctx context.Context, name string, limit int) ([]store.Revision, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, created_at FROM config_revisions
		WHERE name = ? ORDER BY seq DESC LIMIT ?`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}
	defer rows.Close()

	var revisions []store.Revision
	for rows.Next() {
		var rev store.Revision
		var createdAt string
		if err := rows.Scan(&rev.ID, &rev.Seq, &createdAt); err != nil {
			return nil, err
		}
		rev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

func (s *SQLiteStore) GetRevision(ctx context.Context, name, revisionID string) (*store.ConfigDocument, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, seq, config, created_at
		FROM config_revisions WHERE name = ? AND id = ?`, name, revisionID)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("revision not found: %s", revisionID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading revision: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanDocument(row *sql.Row) (*store.ConfigDocument, error) {
	var doc store.ConfigDocument
	var data, createdAt string
	if err := row.Scan(&doc.Revision, &doc.Name, &doc.Seq, &data, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &doc.Config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &doc, nil
}
