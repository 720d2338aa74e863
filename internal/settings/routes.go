package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the user settings API routes.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", handleGet(store))
		r.Put("/", handleSave(store))
		r.Delete("/", handleReset(store))
	})
}

func userIDFrom(r *http.Request) string {
	if v := r.URL.Query().Get("user_id"); v != "" {
		return v
	}
	return "anonymous"
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.Get(r.Context(), userIDFrom(r))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(st)
	}
}

func handleSave(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st Settings
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if st.UserID == "" {
			st.UserID = userIDFrom(r)
		}

		if err := store.Save(r.Context(), st); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "saved"})
	}
}

func handleReset(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Reset(r.Context(), userIDFrom(r)); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "reset"})
	}
}
