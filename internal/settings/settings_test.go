package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/partschat/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestGetDefaults(t *testing.T) {
	store := setupStore(t)

	st, err := store.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st.UserID != "nobody" {
		t.Errorf("unexpected user id: %s", st.UserID)
	}
	if st.Temperature != 0.2 {
		t.Errorf("expected default temperature 0.2, got %v", st.Temperature)
	}
	if st.CustomInstructions != "" {
		t.Errorf("expected empty custom instructions, got %q", st.CustomInstructions)
	}
}

func TestSaveAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Settings{
		UserID:             "u1",
		CustomInstructions: "표 형식으로 답변하세요",
		Model:              "gpt-4o-mini",
		Temperature:        0.5,
		Preferences:        map[string]string{"language": "ko"},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	st, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st.CustomInstructions != "표 형식으로 답변하세요" {
		t.Errorf("unexpected instructions: %q", st.CustomInstructions)
	}
	if st.Model != "gpt-4o-mini" || st.Temperature != 0.5 {
		t.Errorf("unexpected model/temperature: %s/%v", st.Model, st.Temperature)
	}
	if st.Preferences["language"] != "ko" {
		t.Errorf("preferences not preserved: %v", st.Preferences)
	}
}

func TestSaveOverwrites(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Settings{UserID: "u1", Model: "gpt-4o"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, Settings{UserID: "u1", Model: "llama3"}); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}

	st, _ := store.Get(ctx, "u1")
	if st.Model != "llama3" {
		t.Errorf("expected overwritten model, got %s", st.Model)
	}
}

func TestReset(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Settings{UserID: "u1", Model: "gpt-4o"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Reset(ctx, "u1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	st, _ := store.Get(ctx, "u1")
	if st.Model != "" {
		t.Errorf("expected defaults after reset, got model %s", st.Model)
	}
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)

	body := `{"user_id":"u1","custom_instructions":"짧게 답변","temperature":0.3}`
	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT settings: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/settings?user_id=u1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET settings: expected 200, got %d", w.Code)
	}

	var st Settings
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decoding settings: %v", err)
	}
	if st.CustomInstructions != "짧게 답변" {
		t.Errorf("unexpected instructions: %q", st.CustomInstructions)
	}
}
