// Package settings persists per-user chat preferences: custom instructions,
// model override and temperature.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ziadkadry99/partschat/internal/db"
)

// Settings are the per-user chat preferences. Zero values mean "use the
// server defaults".
type Settings struct {
	UserID             string            `json:"user_id"`
	CustomInstructions string            `json:"custom_instructions"`
	Model              string            `json:"model"`
	Temperature        float64           `json:"temperature"`
	Preferences        map[string]string `json:"preferences"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Store manages persistence of user settings.
type Store struct {
	db *db.DB
}

// NewStore creates a new settings store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get returns the settings for a user, or defaults when none are saved.
func (s *Store) Get(ctx context.Context, userID string) (*Settings, error) {
	var st Settings
	var prefs string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, custom_instructions, model, temperature, preferences, updated_at
		 FROM user_settings WHERE user_id = ?`, userID,
	).Scan(&st.UserID, &st.CustomInstructions, &st.Model, &st.Temperature, &prefs, &st.UpdatedAt)

	if err == sql.ErrNoRows {
		return &Settings{UserID: userID, Temperature: 0.2, Preferences: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting settings for %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(prefs), &st.Preferences); err != nil {
		st.Preferences = map[string]string{}
	}
	return &st, nil
}

// Save inserts or replaces a user's settings.
func (s *Store) Save(ctx context.Context, st Settings) error {
	if st.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	prefs, err := json.Marshal(st.Preferences)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	if st.Preferences == nil {
		prefs = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, custom_instructions, model, temperature, preferences, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   custom_instructions = excluded.custom_instructions,
		   model = excluded.model,
		   temperature = excluded.temperature,
		   preferences = excluded.preferences,
		   updated_at = excluded.updated_at`,
		st.UserID, st.CustomInstructions, st.Model, st.Temperature, string(prefs), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving settings for %s: %w", st.UserID, err)
	}
	return nil
}

// Reset removes a user's saved settings, reverting them to defaults.
func (s *Store) Reset(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_settings WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("resetting settings for %s: %w", userID, err)
	}
	return nil
}
