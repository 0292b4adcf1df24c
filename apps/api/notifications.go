package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/crewdesk/realtime/pkg/db"
	"github.com/crewdesk/realtime/pkg/model"
	"github.com/crewdesk/realtime/pkg/realtime"
)

// NotificationsHandler is the collaborator-facing surface: business
// workflows (a mission closing, a quote needing approval) POST here and the
// dispatcher takes it from durability through best-effort push.
type NotificationsHandler struct {
	dispatcher *realtime.Dispatcher
	store      *db.Store
}

func NewNotificationsHandler(dispatcher *realtime.Dispatcher, store *db.Store) *NotificationsHandler {
	return &NotificationsHandler{dispatcher: dispatcher, store: store}
}

type createNotificationRequest struct {
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message"`
	Link        string `json:"link,omitempty"`
	Type        string `json:"type,omitempty"`
	Priority    string `json:"priority,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"` // RFC 3339
}

type createNotificationResponse struct {
	Notification *model.Notification `json:"notification"`
	Delivered    bool                `json:"delivered"`
}

func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *NotificationsHandler) list(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
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

	notifications, err := h.store.ListNotifications(r.Context(), claims.UserID, limit)
	if err != nil {
		log.Printf("list notifications for %s: %v", claims.UserID, err)
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

func (h *NotificationsHandler) create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	in := realtime.CreateInput{
		RecipientID: req.RecipientID,
		Message:     req.Message,
		Link:        req.Link,
		SenderID:    claims.UserID,
		Type:        model.NotificationType(req.Type),
		Priority:    model.Priority(req.Priority),
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			http.Error(w, "Invalid expires_at", http.StatusBadRequest)
			return
		}
		in.ExpiresAt = &expires
	}

	// Only a persistence failure is an error; delivered=false is a normal
	// outcome for offline recipients or an unreachable fabric.
	n, delivered, err := h.dispatcher.Create(r.Context(), in)
	if err != nil {
		log.Printf("create notification for %s: %v", req.RecipientID, err)
		http.Error(w, "Failed to create notification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createNotificationResponse{Notification: n, Delivered: delivered})
}

type markReadRequest struct {
	ID int64 `json:"id"`
}

// MarkReadHandler lets the consuming UI acknowledge a notification.
func MarkReadHandler(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		claims, ok := claimsFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req markReadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := store.MarkNotificationRead(r.Context(), claims.UserID, req.ID); err != nil {
			log.Printf("mark notification %d read: %v", req.ID, err)
			http.Error(w, "Failed to mark notification read", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
