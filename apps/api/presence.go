package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/crewdesk/realtime/pkg/presence"
)

type PresenceHandler struct {
	mirror *presence.Mirror
}

func NewPresenceHandler(mirror *presence.Mirror) *PresenceHandler {
	return &PresenceHandler{mirror: mirror}
}

type userPresenceResponse struct {
	UserID   string     `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// Routes: /presence/online lists all online users; /presence/{userID}
// reports one user's status and last-seen.
func (h *PresenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimPrefix(r.URL.Path, "/presence/")
	if target == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if target == "online" {
		users, err := h.mirror.ListOnline(r.Context())
		if err != nil {
			log.Printf("list online users: %v", err)
			http.Error(w, "Failed to fetch presence", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(users)
		return
	}

	online, err := h.mirror.IsOnline(r.Context(), target)
	if err != nil {
		log.Printf("presence for %s: %v", target, err)
		http.Error(w, "Failed to fetch presence", http.StatusInternalServerError)
		return
	}
	resp := userPresenceResponse{UserID: target, IsOnline: online}
	if lastSeen, err := h.mirror.LastSeen(r.Context(), target); err == nil && !lastSeen.IsZero() {
		resp.LastSeen = &lastSeen
	}
	json.NewEncoder(w).Encode(resp)
}
