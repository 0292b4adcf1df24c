package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/crewdesk/realtime/pkg/model"
	"github.com/gorilla/websocket"
)

type LoginResponse struct {
	Token string `json:"token"`
}

func login(apiAddr, userID string) (string, error) {
	reqBody, _ := json.Marshal(map[string]string{"user_id": userID})
	resp, err := http.Post(apiAddr+"/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed: %s", string(body))
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", err
	}
	return loginResp.Token, nil
}

func send(conn *websocket.Conn, event string, payload any) {
	frame, err := model.EncodeEvent(event, payload)
	if err != nil {
		log.Printf("encode %s: %v", event, err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		log.Printf("send %s: %v", event, err)
	}
}

// Terminal client for poking the gateway. Commands:
//
//	/join <room>            join a conversation channel
//	/leave <room>           leave it again
//	/typing <conv> <user>   tell <user> we are typing in <conv>
//	/read <conv> <user>     mark <user>'s messages in <conv> read
func main() {
	serverAddr := flag.String("addr", "localhost:8080", "gateway service address")
	apiAddr := flag.String("api", "http://localhost:8081", "api service address")
	userID := flag.String("user", "user1", "user id")
	flag.Parse()

	token, err := login(*apiAddr, *userID)
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	u := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/ws", RawQuery: "token=" + token}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	log.Printf("connected as %s", *userID)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				return
			}
			var env model.Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				log.Printf("bad frame: %v", err)
				continue
			}
			fmt.Printf("<< %s %s\n", env.Event, env.Data)
		}
	}()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				continue
			}
			switch fields[0] {
			case "/join":
				if len(fields) == 2 {
					send(conn, model.EventJoinRoom, model.JoinRoom{Room: fields[1]})
				}
			case "/leave":
				if len(fields) == 2 {
					send(conn, model.EventLeaveRoom, model.LeaveRoom{Room: fields[1]})
				}
			case "/typing":
				if len(fields) == 3 {
					send(conn, model.EventTyping, model.Typing{
						ConversationID: fields[1],
						RecipientID:    fields[2],
						IsTyping:       true,
					})
				}
			case "/read":
				if len(fields) == 3 {
					send(conn, model.EventMarkRead, model.MarkMessagesRead{
						ConversationID: fields[1],
						RecipientID:    fields[2],
					})
				}
			default:
				fmt.Println("commands: /join /leave /typing /read")
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
