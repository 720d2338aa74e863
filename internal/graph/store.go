// Package graph stores typed relations between parts and related entities
// (suppliers, equipment, similar parts, documents) and assembles the one-hop
// neighborhood used to enrich retrieval results.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/partschat/internal/db"
)

// Relation is the edge type between a part and a related entity.
type Relation string

const (
	RelSuppliedBy   Relation = "supplied_by"
	RelUsedIn       Relation = "used_in"
	RelSimilarTo    Relation = "similar_to"
	RelDocumentedIn Relation = "documented_in"
)

// Edge is a single relation from a part to a target entity.
type Edge struct {
	PartID     string   `json:"part_id" yaml:"part_id"`
	Relation   Relation `json:"relation" yaml:"relation"`
	TargetKind string   `json:"target_kind" yaml:"target_kind"`
	TargetID   string   `json:"target_id" yaml:"target_id"`
	TargetName string   `json:"target_name" yaml:"target_name"`
	Detail     string   `json:"detail" yaml:"detail"`
}

// PartContext groups a part's one-hop neighborhood by relation type.
type PartContext struct {
	PartID       string `json:"part_id"`
	Suppliers    []Edge `json:"suppliers"`
	Equipment    []Edge `json:"equipment"`
	SimilarParts []Edge `json:"similar_parts"`
	Documents    []Edge `json:"documents"`
}

// Empty reports whether the part has no relations at all.
func (c *PartContext) Empty() bool {
	return len(c.Suppliers) == 0 && len(c.Equipment) == 0 &&
		len(c.SimilarParts) == 0 && len(c.Documents) == 0
}

// Store manages persistence of part relations.
type Store struct {
	db *db.DB
}

// NewStore creates a new graph store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// AddEdge inserts or replaces a relation edge.
func (s *Store) AddEdge(ctx context.Context, e Edge) error {
	if e.PartID == "" || e.TargetID == "" {
		return fmt.Errorf("part_id and target_id are required")
	}
	switch e.Relation {
	case RelSuppliedBy, RelUsedIn, RelSimilarTo, RelDocumentedIn:
	default:
		return fmt.Errorf("unknown relation: %s", e.Relation)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO part_relations (part_id, relation, target_kind, target_id, target_name, detail)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(part_id, relation, target_id) DO UPDATE SET
		   target_kind = excluded.target_kind,
		   target_name = excluded.target_name,
		   detail = excluded.detail`,
		e.PartID, e.Relation, e.TargetKind, e.TargetID, e.TargetName, e.Detail)
	if err != nil {
		return fmt.Errorf("adding edge %s -%s-> %s: %w", e.PartID, e.Relation, e.TargetID, err)
	}
	return nil
}

// Neighbors returns the edges originating from the given part, optionally
// narrowed to the listed relation types.
func (s *Store) Neighbors(ctx context.Context, partID string, relations ...Relation) ([]Edge, error) {
	query := `SELECT part_id, relation, target_kind, target_id, target_name, detail
		 FROM part_relations WHERE part_id = ?`
	args := []any{partID}
	if len(relations) > 0 {
		query += ` AND relation IN (?` + strings.Repeat(", ?", len(relations)-1) + `)`
		for _, rel := range relations {
			args = append(args, rel)
		}
	}
	query += ` ORDER BY relation, target_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying neighbors of %s: %w", partID, err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.PartID, &e.Relation, &e.TargetKind, &e.TargetID, &e.TargetName, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Context assembles the one-hop neighborhood of a part grouped by relation.
func (s *Store) Context(ctx context.Context, partID string) (*PartContext, error) {
	edges, err := s.Neighbors(ctx, partID)
	if err != nil {
		return nil, err
	}

	pc := &PartContext{PartID: partID}
	for _, e := range edges {
		switch e.Relation {
		case RelSuppliedBy:
			pc.Suppliers = append(pc.Suppliers, e)
		case RelUsedIn:
			pc.Equipment = append(pc.Equipment, e)
		case RelSimilarTo:
			pc.SimilarParts = append(pc.SimilarParts, e)
		case RelDocumentedIn:
			pc.Documents = append(pc.Documents, e)
		}
	}
	return pc, nil
}

// DeleteByPart removes all edges originating from the given part.
func (s *Store) DeleteByPart(ctx context.Context, partID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM part_relations WHERE part_id = ?`, partID)
	if err != nil {
		return fmt.Errorf("deleting edges of %s: %w", partID, err)
	}
	return nil
}
