package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ziadkadry99/partschat/internal/db"
)

// Record tracks a document that has been ingested into the vector store.
type Record struct {
	Source      string    `json:"source"`
	DocType     string    `json:"doc_type"`
	Chunks      int       `json:"chunks"`
	ContentHash string    `json:"content_hash"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// Store persists ingestion records so unchanged documents can be skipped.
type Store struct {
	db *db.DB
}

// NewStore creates an ingestion record store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get returns the record for a source, or nil if it was never ingested.
func (s *Store) Get(ctx context.Context, source string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT source, doc_type, chunks, content_hash, ingested_at
		 FROM ingested_documents WHERE source = ?`, source)

	var rec Record
	err := row.Scan(&rec.Source, &rec.DocType, &rec.Chunks, &rec.ContentHash, &rec.IngestedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ingestion record: %w", err)
	}
	return &rec, nil
}

// Save inserts or replaces the record for a source.
func (s *Store) Save(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingested_documents (source, doc_type, chunks, content_hash, ingested_at)
		 VALUES (?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(source) DO UPDATE SET
		   doc_type = excluded.doc_type,
		   chunks = excluded.chunks,
		   content_hash = excluded.content_hash,
		   ingested_at = datetime('now')`,
		rec.Source, rec.DocType, rec.Chunks, rec.ContentHash)
	if err != nil {
		return fmt.Errorf("saving ingestion record: %w", err)
	}
	return nil
}

// List returns all ingestion records, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, doc_type, chunks, content_hash, ingested_at
		 FROM ingested_documents ORDER BY ingested_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing ingestion records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Source, &rec.DocType, &rec.Chunks, &rec.ContentHash, &rec.IngestedAt); err != nil {
			return nil, fmt.Errorf("scanning ingestion record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes the record for a source.
func (s *Store) Delete(ctx context.Context, source string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ingested_documents WHERE source = ?`, source)
	if err != nil {
		return fmt.Errorf("deleting ingestion record: %w", err)
	}
	return nil
}
