package ingest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the document ingestion API routes.
func RegisterRoutes(r chi.Router, store *Store, pipeline *Pipeline) {
	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", handleListDocuments(store))
		r.Post("/", handleUpload(pipeline))
		// Sources can contain slashes, so deletion takes a query parameter.
		r.Delete("/", handleDelete(pipeline))
	})
}

func handleListDocuments(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := store.List(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []Record{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

type uploadRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func handleUpload(pipeline *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.Content == "" {
			http.Error(w, `{"error":"name and content are required"}`, http.StatusBadRequest)
			return
		}

		source := NormalizeSource(req.Name)
		chunks, err := pipeline.IngestContent(r.Context(), source, []byte(req.Content))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"source": source, "chunks": chunks})
	}
}

func handleDelete(pipeline *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := r.URL.Query().Get("source")
		if source == "" {
			http.Error(w, `{"error":"source is required"}`, http.StatusBadRequest)
			return
		}
		if err := pipeline.Remove(r.Context(), source); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
