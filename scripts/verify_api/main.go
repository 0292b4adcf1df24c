package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

type LoginResponse struct {
	Token string `json:"token"`
}

// Smoke test against a running API: login, create a notification for an
// offline user, then read it back.
func main() {
	apiAddr := "http://localhost:8081"

	// 1. Login
	reqBody, _ := json.Marshal(map[string]string{"user_id": "verify_user"})
	resp, err := http.Post(apiAddr+"/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		log.Fatal(err)
	}
	log.Println("login ok")

	// 2. Create a notification addressed to ourselves (we hold no websocket,
	// so delivered must come back false while the record persists).
	createBody, _ := json.Marshal(map[string]string{
		"recipient_id": "verify_user",
		"message":      "smoke test notification",
		"priority":     "MEDIUM",
	})
	req, _ := http.NewRequest(http.MethodPost, apiAddr+"/notifications", bytes.NewBuffer(createBody))
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	req.Header.Set("Content-Type", "application/json")
	createResp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer createResp.Body.Close()
	body, _ := io.ReadAll(createResp.Body)
	if createResp.StatusCode != http.StatusCreated {
		log.Fatalf("create failed (%d): %s", createResp.StatusCode, body)
	}
	fmt.Printf("create response: %s\n", body)

	// 3. List notifications back.
	listReq, _ := http.NewRequest(http.MethodGet, apiAddr+"/notifications", nil)
	listReq.Header.Set("Authorization", "Bearer "+loginResp.Token)
	listResp, err := http.DefaultClient.Do(listReq)
	if err != nil {
		log.Fatal(err)
	}
	defer listResp.Body.Close()
	listBody, _ := io.ReadAll(listResp.Body)
	fmt.Printf("notifications: %s\n", listBody)
}
