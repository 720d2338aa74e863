// Package memory persists long-term facts about users and assembles the
// conversation context handed to the generator.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/partschat/internal/db"
)

// Importance ranks how strongly a memory should influence answers.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Memory is a single long-term fact about a user. The (user_id, category,
// key) triple is unique; saving the same triple again overwrites the value.
type Memory struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Category   string     `json:"category"`
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Importance Importance `json:"importance"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Store manages persistence of user memories.
type Store struct {
	db *db.DB
}

// NewStore creates a new memory store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save inserts a memory or overwrites the value of an existing one with the
// same (user_id, category, key). Last write wins.
func (s *Store) Save(ctx context.Context, m Memory) error {
	if m.UserID == "" || m.Category == "" || m.Key == "" {
		return fmt.Errorf("user_id, category and key are required")
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	switch m.Importance {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
	default:
		m.Importance = ImportanceLow
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_memories (id, user_id, category, key, value, importance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, category, key) DO UPDATE SET
		   value = excluded.value,
		   importance = excluded.importance,
		   updated_at = excluded.updated_at`,
		m.ID, m.UserID, m.Category, m.Key, m.Value, m.Importance, now, now)
	if err != nil {
		return fmt.Errorf("saving memory: %w", err)
	}
	return nil
}

// List returns all memories for a user, most important first.
func (s *Store) List(ctx context.Context, userID string) ([]Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category, key, value, importance, created_at, updated_at
		 FROM user_memories WHERE user_id = ?
		 ORDER BY CASE importance WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, updated_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	defer rows.Close()

	var memories []Memory
	for rows.Next() {
		var m Memory
		if err := rows.Scan(&m.ID, &m.UserID, &m.Category, &m.Key, &m.Value, &m.Importance, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// Delete removes a memory by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM user_memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting memory: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("memory not found: %s", id)
	}
	return nil
}

// DeleteAll removes every memory for a user.
func (s *Store) DeleteAll(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_memories WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting memories for %s: %w", userID, err)
	}
	return nil
}
