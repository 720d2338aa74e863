package memory

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the user memory API routes.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/memories", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Post("/", handleSave(store))
		r.Delete("/", handleDeleteAll(store))
		r.Delete("/{id}", handleDelete(store))
	})
}

func userIDFrom(r *http.Request) string {
	if v := r.URL.Query().Get("user_id"); v != "" {
		return v
	}
	return "anonymous"
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memories, err := store.List(r.Context(), userIDFrom(r))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if memories == nil {
			memories = []Memory{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(memories)
	}
}

func handleSave(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m Memory
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if m.UserID == "" {
			m.UserID = "anonymous"
		}
		if m.Category == "" || m.Key == "" {
			http.Error(w, `{"error":"category and key are required"}`, http.StatusBadRequest)
			return
		}

		if err := store.Save(r.Context(), m); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"status": "saved"})
	}
}

func handleDelete(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.Delete(r.Context(), id); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleDeleteAll(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteAll(r.Context(), userIDFrom(r)); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}
