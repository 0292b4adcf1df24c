package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/crewdesk/realtime/pkg/db"
	"github.com/crewdesk/realtime/pkg/fanout"
	"github.com/crewdesk/realtime/pkg/presence"
	"github.com/crewdesk/realtime/pkg/realtime"
	"github.com/crewdesk/realtime/pkg/snowflake"
)

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	scyllaHosts := strings.Split(envOrDefault("SCYLLA_HOSTS", "localhost:9042"), ",")
	redisAddr := envOrDefault("REDIS_ADDR", "localhost:6379")
	kafkaBrokers := strings.Split(envOrDefault("KAFKA_BROKERS", "localhost:19092"), ",")
	topic := envOrDefault("PUSH_TOPIC", "realtime-push")
	keyspace := "realtime"

	nodeID, err := strconv.ParseInt(envOrDefault("NODE_ID", "1"), 10, 64)
	if err != nil {
		log.Fatalf("bad NODE_ID: %v", err)
	}
	ids, err := snowflake.NewNode(nodeID)
	if err != nil {
		log.Fatalf("Failed to initialize snowflake node: %v", err)
	}

	session, err := db.NewSession(scyllaHosts, keyspace)
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()
	store := db.NewStore(session)

	mirror := presence.NewMirror(redisAddr)
	defer mirror.Close()

	producer := fanout.NewProducer(kafkaBrokers, topic)
	defer producer.Close()

	dispatcher, err := realtime.NewDispatcher(store, mirror, producer, ids)
	if err != nil {
		log.Fatalf("Failed to build dispatcher: %v", err)
	}

	log.Println("API Service Starting on :8081...")

	// Public endpoint
	http.Handle("/login", CORSMiddleware(http.HandlerFunc(LoginHandler)))

	// Protected endpoints
	notifications := NewNotificationsHandler(dispatcher, store)
	http.Handle("/notifications", CORSMiddleware(AuthMiddleware(notifications)))
	http.Handle("/notifications/read", CORSMiddleware(AuthMiddleware(MarkReadHandler(store))))
	http.Handle("/presence/", CORSMiddleware(AuthMiddleware(NewPresenceHandler(mirror))))
	http.Handle("/history", CORSMiddleware(AuthMiddleware(NewHistoryHandler(store))))

	if err := http.ListenAndServe(":8081", nil); err != nil {
		log.Fatal(err)
	}
}
