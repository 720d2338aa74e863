// Package feedback records answer ratings and promotes repeatedly-confirmed
// question/answer pairs into reusable knowledge entries.
package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/partschat/internal/db"
)

// Rating is a user's verdict on an answer.
type Rating string

const (
	RatingHelpful   Rating = "helpful"
	RatingUnhelpful Rating = "unhelpful"
)

// Entry is one piece of user feedback on an assistant message.
type Entry struct {
	ID             string    `json:"id"`
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Rating         Rating    `json:"rating"`
	Comment        string    `json:"comment"`
	CreatedAt      time.Time `json:"created_at"`
}

// KnowledgeEntry is a question/answer pair confirmed by positive feedback.
// ConfidenceScore counts how many times the pair has been confirmed.
type KnowledgeEntry struct {
	ID              string    `json:"id"`
	QuestionPattern string    `json:"question_pattern"`
	Answer          string    `json:"answer"`
	ConfidenceScore int       `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Store manages persistence of feedback and knowledge entries.
type Store struct {
	db *db.DB
}

// NewStore creates a new feedback store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create records a feedback entry.
func (s *Store) Create(ctx context.Context, e Entry) (*Entry, error) {
	switch e.Rating {
	case RatingHelpful, RatingUnhelpful:
	default:
		return nil, fmt.Errorf("invalid rating: %s", e.Rating)
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.UserID == "" {
		e.UserID = "anonymous"
	}
	e.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback_entries (id, message_id, conversation_id, user_id, rating, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.MessageID, e.ConversationID, e.UserID, e.Rating, e.Comment, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting feedback: %w", err)
	}
	return &e, nil
}

// List returns feedback entries, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message_id, conversation_id, user_id, rating, comment, created_at
		 FROM feedback_entries ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.MessageID, &e.ConversationID, &e.UserID, &e.Rating, &e.Comment, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns the helpful/unhelpful counts.
func (s *Store) Stats(ctx context.Context) (helpful, unhelpful int, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rating, COUNT(*) FROM feedback_entries GROUP BY rating`)
	if err != nil {
		return 0, 0, fmt.Errorf("counting feedback: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rating Rating
		var count int
		if err := rows.Scan(&rating, &count); err != nil {
			return 0, 0, fmt.Errorf("scanning counts: %w", err)
		}
		switch rating {
		case RatingHelpful:
			helpful = count
		case RatingUnhelpful:
			unhelpful = count
		}
	}
	return helpful, unhelpful, rows.Err()
}

// Confirm records a confirmed question/answer pair. A repeated confirmation
// of the same pair increments its confidence counter instead of duplicating
// the row.
func (s *Store) Confirm(ctx context.Context, questionPattern, answer string) error {
	if questionPattern == "" || answer == "" {
		return fmt.Errorf("question pattern and answer are required")
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_entries (id, question_pattern, answer, confidence_score, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)
		 ON CONFLICT(question_pattern, answer) DO UPDATE SET
		   confidence_score = confidence_score + 1,
		   updated_at = excluded.updated_at`,
		uuid.New().String(), questionPattern, answer, now, now)
	if err != nil {
		return fmt.Errorf("confirming knowledge entry: %w", err)
	}
	return nil
}

// Knowledge returns knowledge entries ordered by confirmation count.
func (s *Store) Knowledge(ctx context.Context, limit int) ([]KnowledgeEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_pattern, answer, confidence_score, created_at, updated_at
		 FROM knowledge_entries ORDER BY confidence_score DESC, updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing knowledge entries: %w", err)
	}
	defer rows.Close()

	var entries []KnowledgeEntry
	for rows.Next() {
		var e KnowledgeEntry
		if err := rows.Scan(&e.ID, &e.QuestionPattern, &e.Answer, &e.ConfidenceScore, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning knowledge entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
