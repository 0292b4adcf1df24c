package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/crewdesk/realtime/pkg/db"
)

type HistoryHandler struct {
	store *db.Store
}

func NewHistoryHandler(store *db.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// GET /history?conversation_id=...&limit=...
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		http.Error(w, "conversation_id is required", http.StatusBadRequest)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	messages, err := h.store.ListMessages(r.Context(), conversationID, limit)
	if err != nil {
		log.Printf("list messages in %s: %v", conversationID, err)
		http.Error(w, "Failed to retrieve history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}
