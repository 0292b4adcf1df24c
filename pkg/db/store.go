package db

import (
	"context"
	"fmt"
	"time"

	"github.com/crewdesk/realtime/pkg/model"
)

// Store is the durable side of the core: notification rows, per-user
// presence rows and message read receipts. All writes are per-row upserts;
// no cross-row transaction is needed.
type Store struct {
	session *Session
}

func NewStore(session *Session) *Store {
	return &Store{session: session}
}

func (s *Store) SaveNotification(ctx context.Context, n *model.Notification) error {
	query := `INSERT INTO notifications
		(recipient_id, id, sender_id, message, link, type, priority, read, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if err := s.session.Query(query,
		n.RecipientID, n.ID, n.SenderID, n.Message, n.Link,
		string(n.Type), string(n.Priority), n.Read, n.CreatedAt, n.ExpiresAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("insert notification %d: %w", n.ID, err)
	}
	return nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, recipientID string, id int64) error {
	query := `UPDATE notifications SET read = true WHERE recipient_id = ? AND id = ?`
	if err := s.session.Query(query, recipientID, id).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return nil
}

// ListNotifications returns the newest notifications for a user, newest
// first (the table clusters by id DESC).
func (s *Store) ListNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT recipient_id, id, sender_id, message, link, type, priority, read, created_at, expires_at
		FROM notifications WHERE recipient_id = ? LIMIT ?`
	iter := s.session.Query(query, recipientID, limit).WithContext(ctx).Iter()

	var out []model.Notification
	var n model.Notification
	var typ, prio string
	var expires time.Time
	for iter.Scan(&n.RecipientID, &n.ID, &n.SenderID, &n.Message, &n.Link,
		&typ, &prio, &n.Read, &n.CreatedAt, &expires) {
		n.Type = model.NotificationType(typ)
		n.Priority = model.Priority(prio)
		if expires.IsZero() {
			n.ExpiresAt = nil
		} else {
			e := expires
			n.ExpiresAt = &e
		}
		out = append(out, n)
		expires = time.Time{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", recipientID, err)
	}
	return out, nil
}

func (s *Store) SetOnline(ctx context.Context, userID string, at time.Time) error {
	query := `INSERT INTO user_presence (user_id, is_online, last_seen) VALUES (?, true, ?)`
	if err := s.session.Query(query, userID, at).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("persist online for %s: %w", userID, err)
	}
	return nil
}

func (s *Store) SetOffline(ctx context.Context, userID string, at time.Time) error {
	query := `INSERT INTO user_presence (user_id, is_online, last_seen) VALUES (?, false, ?)`
	if err := s.session.Query(query, userID, at).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("persist offline for %s: %w", userID, err)
	}
	return nil
}

// ListMessages returns a conversation's newest messages, newest first.
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT conversation_id, id, sender_id, recipient_id, content, sent_at, read_at
		FROM messages WHERE conversation_id = ? LIMIT ?`
	iter := s.session.Query(query, conversationID, limit).WithContext(ctx).Iter()

	var out []model.ChatMessage
	var m model.ChatMessage
	var readAt time.Time
	for iter.Scan(&m.ConversationID, &m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.SentAt, &readAt) {
		if readAt.IsZero() {
			m.ReadAt = nil
		} else {
			r := readAt
			m.ReadAt = &r
		}
		out = append(out, m)
		readAt = time.Time{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list messages in %s: %w", conversationID, err)
	}
	return out, nil
}

// MarkMessagesRead stamps read_at on every unread message the sender has in
// the conversation. Scylla has no multi-row conditional update, so unread
// rows are collected first and stamped one by one.
func (s *Store) MarkMessagesRead(ctx context.Context, conversationID, senderID string, at time.Time) error {
	iter := s.session.Query(
		`SELECT id, sender_id, read_at FROM messages WHERE conversation_id = ?`,
		conversationID,
	).WithContext(ctx).Iter()

	var unread []int64
	var id int64
	var rowSender string
	var readAt time.Time
	for iter.Scan(&id, &rowSender, &readAt) {
		if rowSender == senderID && readAt.IsZero() {
			unread = append(unread, id)
		}
		readAt = time.Time{}
	}
	if err := iter.Close(); err != nil {
		return fmt.Errorf("scan conversation %s: %w", conversationID, err)
	}

	for _, id := range unread {
		if err := s.session.Query(
			`UPDATE messages SET read_at = ? WHERE conversation_id = ? AND id = ?`,
			at, conversationID, id,
		).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("stamp message %d read: %w", id, err)
		}
	}
	return nil
}
