// Package chat exposes the conversational API: synchronous queries,
// progress-streaming queries over SSE and WebSocket, and conversation
// history management.
package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/partschat/internal/db"
)

// Conversation groups the messages of one chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one stored chat turn. Metadata carries answer provenance
// (sources, confidence, warnings) for assistant messages.
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Role           string         `json:"role"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Store manages persistence of conversations and messages.
type Store struct {
	db *db.DB
}

// NewStore creates a new chat store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateConversation starts a new conversation for a user.
func (s *Store) CreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	if userID == "" {
		userID = "anonymous"
	}
	c := Conversation{
		ID:     uuid.New().String(),
		UserID: userID,
		Title:  title,
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Title, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return &c, nil
}

// GetConversation returns a conversation by ID, or (nil, nil) when absent.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return &c, nil
}

// ListConversations returns a user's conversations, most recent first.
func (s *Store) ListConversations(ctx context.Context, userID string, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM conversations
		 WHERE user_id = ? ORDER BY updated_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// DeleteConversation removes a conversation and, via the schema's cascade,
// its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("conversation not found: %s", id)
	}
	return nil
}

// AddMessage appends a message to a conversation and bumps the
// conversation's updated_at.
func (s *Store) AddMessage(ctx context.Context, m Message) (*Message, error) {
	if m.ConversationID == "" {
		return nil, fmt.Errorf("conversation_id is required")
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = time.Now().UTC()

	metadata := []byte("{}")
	if m.Metadata != nil {
		data, err := json.Marshal(m.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshaling message metadata: %w", err)
		}
		metadata = data
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, conversation_id, role, content, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Role, m.Content, string(metadata), m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, m.CreatedAt, m.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("touching conversation: %w", err)
	}
	return &m, nil
}

// Messages returns a conversation's messages in chronological order.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, metadata, created_at
		 FROM chat_messages WHERE conversation_id = ? ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var metadata string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if metadata != "" && metadata != "{}" {
			json.Unmarshal([]byte(metadata), &m.Metadata)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
