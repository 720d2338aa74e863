package feedback

import (
	"context"
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

func TestCreateAndStats(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, Entry{Rating: RatingHelpful, Comment: "정확한 답변"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, Entry{Rating: RatingHelpful}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, Entry{Rating: RatingUnhelpful, Comment: "재고 수치가 틀림"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	helpful, unhelpful, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if helpful != 2 || unhelpful != 1 {
		t.Errorf("expected 2/1, got %d/%d", helpful, unhelpful)
	}
}

func TestCreateRejectsInvalidRating(t *testing.T) {
	store := setupStore(t)

	if _, err := store.Create(context.Background(), Entry{Rating: "meh"}); err == nil {
		t.Error("expected error for invalid rating")
	}
}

func TestConfirmIncrementsCounter(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Confirm(ctx, "ABC-12345 재고는?", "재고는 850개입니다"); err != nil {
			t.Fatalf("Confirm: %v", err)
		}
	}
	if err := store.Confirm(ctx, "다른 질문", "다른 답변"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	entries, err := store.Knowledge(ctx, 0)
	if err != nil {
		t.Fatalf("Knowledge: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 knowledge entries, got %d", len(entries))
	}
	if entries[0].ConfidenceScore != 3 {
		t.Errorf("expected confirmation count 3 first, got %d", entries[0].ConfidenceScore)
	}
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)

	body := `{"rating": "helpful", "comment": "좋은 답변", "question": "ABC-12345 재고는?", "answer": "850개입니다"}`
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// Helpful feedback with a question/answer pair also confirms knowledge.
	entries, err := store.Knowledge(context.Background(), 0)
	if err != nil {
		t.Fatalf("Knowledge: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected knowledge entry from helpful feedback, got %d", len(entries))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/feedback/stats", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"helpful":1`) {
		t.Errorf("unexpected stats: %s", w.Body.String())
	}
}
