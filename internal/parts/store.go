package parts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ziadkadry99/partschat/internal/db"
)

// Store manages persistence of parts inventory records.
type Store struct {
	db *db.DB
}

// NewStore creates a new parts store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const partColumns = `part_id, name, category, spec, current_stock, minimum_stock, unit_price, supplier, location, created_at, updated_at`

// GetByID retrieves a part by its exact ID. Returns (nil, nil) when the part
// does not exist.
func (s *Store) GetByID(ctx context.Context, partID string) (*Part, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+partColumns+` FROM parts WHERE part_id = ?`, partID)

	p, err := scanPart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting part %s: %w", partID, err)
	}
	return p, nil
}

// Search finds parts whose ID, name or category contains the given term.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]Part, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+partColumns+` FROM parts
		 WHERE part_id LIKE ? OR name LIKE ? OR category LIKE ?
		 ORDER BY part_id LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching parts: %w", err)
	}
	defer rows.Close()
	return collectParts(rows)
}

// Sample returns up to n parts for grounding queries that name no specific part.
func (s *Store) Sample(ctx context.Context, n int) ([]Part, error) {
	if n <= 0 {
		n = 3
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+partColumns+` FROM parts ORDER BY updated_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sampling parts: %w", err)
	}
	defer rows.Close()
	return collectParts(rows)
}

// List returns parts matching the filter.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Part, error) {
	query := `SELECT ` + partColumns + ` FROM parts WHERE 1=1`
	args := []interface{}{}

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Supplier != "" {
		query += " AND supplier = ?"
		args = append(args, filter.Supplier)
	}
	if filter.BelowMinimum {
		query += " AND current_stock < minimum_stock"
	}

	query += " ORDER BY part_id"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing parts: %w", err)
	}
	defer rows.Close()
	return collectParts(rows)
}

// Upsert inserts or replaces a part record.
func (s *Store) Upsert(ctx context.Context, p Part) error {
	if p.PartID == "" {
		return fmt.Errorf("part_id is required")
	}
	spec, err := json.Marshal(p.Spec)
	if err != nil {
		return fmt.Errorf("marshaling spec: %w", err)
	}
	if p.Spec == nil {
		spec = []byte("{}")
	}
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO parts (part_id, name, category, spec, current_stock, minimum_stock, unit_price, supplier, location, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(part_id) DO UPDATE SET
		   name = excluded.name,
		   category = excluded.category,
		   spec = excluded.spec,
		   current_stock = excluded.current_stock,
		   minimum_stock = excluded.minimum_stock,
		   unit_price = excluded.unit_price,
		   supplier = excluded.supplier,
		   location = excluded.location,
		   updated_at = excluded.updated_at`,
		p.PartID, p.Name, p.Category, string(spec), p.CurrentStock, p.MinimumStock,
		p.UnitPrice, p.Supplier, p.Location, now, now)
	if err != nil {
		return fmt.Errorf("upserting part %s: %w", p.PartID, err)
	}
	return nil
}

// Count returns the total number of parts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parts`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPart(row rowScanner) (*Part, error) {
	var p Part
	var spec string
	err := row.Scan(&p.PartID, &p.Name, &p.Category, &spec, &p.CurrentStock,
		&p.MinimumStock, &p.UnitPrice, &p.Supplier, &p.Location, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(spec), &p.Spec); err != nil {
		p.Spec = map[string]string{}
	}
	return &p, nil
}

func collectParts(rows *sql.Rows) ([]Part, error) {
	var result []Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning part: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}
