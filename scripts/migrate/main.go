package main

import (
	"log"
	"os"
	"strings"

	"github.com/gocql/gocql"
)

// Creates the realtime keyspace and tables. In production schema changes
// belong to a migration tool; this bootstrap keeps local setups one command.
func main() {
	hostsStr := os.Getenv("SCYLLA_HOSTS")
	if hostsStr == "" {
		hostsStr = "localhost:9042"
	}
	hosts := strings.Split(hostsStr, ",")

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = "system"
	cluster.Consistency = gocql.Quorum
	sysSession, err := cluster.CreateSession()
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}

	err = sysSession.Query(`CREATE KEYSPACE IF NOT EXISTS realtime
		WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`).Exec()
	if err != nil {
		log.Fatalf("Failed to create keyspace: %v", err)
	}
	sysSession.Close()

	cluster.Keyspace = "realtime"
	session, err := cluster.CreateSession()
	if err != nil {
		log.Fatalf("Failed to connect to realtime keyspace: %v", err)
	}
	defer session.Close()

	tables := []string{
		`CREATE TABLE IF NOT EXISTS notifications (
			recipient_id text,
			id bigint,
			sender_id text,
			message text,
			link text,
			type text,
			priority text,
			read boolean,
			created_at timestamp,
			expires_at timestamp,
			PRIMARY KEY (recipient_id, id)
		) WITH CLUSTERING ORDER BY (id DESC)`,
		`CREATE TABLE IF NOT EXISTS user_presence (
			user_id text PRIMARY KEY,
			is_online boolean,
			last_seen timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			conversation_id text,
			id bigint,
			sender_id text,
			recipient_id text,
			content text,
			sent_at timestamp,
			read_at timestamp,
			PRIMARY KEY (conversation_id, id)
		) WITH CLUSTERING ORDER BY (id DESC)`,
	}
	for _, table := range tables {
		if err := session.Query(table).Exec(); err != nil {
			log.Fatalf("Failed to create table: %v", err)
		}
	}

	log.Println("realtime keyspace and tables created")
}
