package export

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/partschat/internal/chat"
)

// RegisterRoutes mounts the conversation export route.
func RegisterRoutes(r chi.Router, store *chat.Store) {
	renderer := NewRenderer()
	r.Get("/api/export/conversations/{id}", handleExport(store, renderer))
}

func handleExport(store *chat.Store, renderer *Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}

		id := chi.URLParam(r, "id")
		conv, err := store.GetConversation(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if conv == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}

		messages, err := store.Messages(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		data, err := renderer.Render(conv, messages, format)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="conversation-`+conv.ID+`.`+string(format)+`"`)
		w.Write(data)
	}
}
