// Command dbcheck verifies the event store connection and lists its tables.
package main

import (
	"time"

	"WhatsappReminder/database/postgres"
	"WhatsappReminder/pkg/log"
	"github.com/joho/godotenv"
	"golang.org/x/net/context"
)

const listTables = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name`

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded, using process environment: %v", err)
	}

	db, err := postgres.New()
	if err != nil {
		logger.Fatalf("Connection failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var tables []string
	if err := db.SelectContext(ctx, &tables, listTables); err != nil {
		logger.Fatalf("Failed to list tables: %v", err)
	}

	logger.WithField("count", len(tables)).Info("Connected to the event store")
	for _, table := range tables {
		logger.WithField("table", table).Info("Table found")
	}
}
