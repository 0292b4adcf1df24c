package main

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/crewdesk/realtime/pkg/auth"
	"github.com/crewdesk/realtime/pkg/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	id     string
	userID string

	mu     sync.Mutex
	closed bool
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// Send queues a frame for the write pump without blocking. A full buffer or
// a closed client rejects the frame; the router counts that as undelivered.
func (c *Client) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump decodes inbound frames into the closed event set and hands them
// to the hub. Transport close, however it happens, ends in Disconnect.
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.shutdown()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	ctx := context.Background()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("read error for %s: %v", c.userID, err)
			}
			break
		}

		evt, err := model.DecodeInbound(raw)
		if err != nil {
			log.Printf("bad frame from %s: %v", c.userID, err)
			continue
		}

		switch e := evt.(type) {
		case model.JoinRoom:
			if err := c.hub.JoinRoom(c, e.Room); err != nil {
				log.Printf("join room %s for %s: %v", e.Room, c.userID, err)
			}
		case model.LeaveRoom:
			if err := c.hub.LeaveRoom(c.id, e.Room); err != nil {
				log.Printf("leave room %s for %s: %v", e.Room, c.userID, err)
			}
		case model.Typing:
			if err := c.hub.Typing(ctx, c, e.ConversationID, e.RecipientID, e.IsTyping); err != nil {
				log.Printf("typing relay for %s: %v", c.userID, err)
			}
		case model.MarkMessagesRead:
			if err := c.hub.MarkRead(ctx, e.ConversationID, e.RecipientID); err != nil {
				log.Printf("mark read in %s: %v", e.ConversationID, err)
			}
		}
	}
}

// writePump pumps queued frames to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveWs authenticates and upgrades a websocket request.
func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	tokenString := r.Header.Get("Authorization")
	if tokenString == "" {
		// Query param fallback for browser websocket clients.
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	claims, err := auth.ValidateToken(auth.StripBearer(tokenString))
	if err != nil {
		log.Printf("rejected websocket: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		id:     uuid.NewString(),
		userID: claims.UserID,
	}
	if err := hub.Connect(r.Context(), client); err != nil {
		log.Printf("connect %s: %v", client.userID, err)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
