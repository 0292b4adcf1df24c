package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/crewdesk/realtime/pkg/db"
	"github.com/crewdesk/realtime/pkg/presence"
)

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	f, err := os.OpenFile("gateway.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	defer f.Close()
	log.SetOutput(f)

	kafkaBrokers := strings.Split(envOrDefault("KAFKA_BROKERS", "localhost:19092"), ",")
	redisAddr := envOrDefault("REDIS_ADDR", "localhost:6379")
	scyllaHosts := strings.Split(envOrDefault("SCYLLA_HOSTS", "localhost:9042"), ",")
	topic := envOrDefault("PUSH_TOPIC", "realtime-push")
	keyspace := "realtime"

	grace := 8 * time.Second
	if v := os.Getenv("PRESENCE_GRACE_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("bad PRESENCE_GRACE_SECONDS: %v", err)
		}
		grace = time.Duration(secs) * time.Second
	}

	session, err := db.NewSession(scyllaHosts, keyspace)
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	store := db.NewStore(session)
	mirror := presence.NewMirror(redisAddr)
	defer mirror.Close()

	hub := NewHub(store, mirror, kafkaBrokers, topic, grace)
	defer hub.Close()
	go hub.Run(context.Background())

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})

	log.Println("Gateway Service Starting on :8080...")
	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatal(err)
	}
}
