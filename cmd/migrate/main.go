package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"yt-notify/pkg/database"
)

const usage = "Usage: go run ./cmd/migrate [up|drop|status]"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "up":
		if err := run(ctx, conn, database.SchemaUp); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ Content archive created successfully")

	case "drop":
		if err := run(ctx, conn, database.SchemaDown); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ Content archive dropped successfully")

	case "status":
		if err := status(ctx, conn); err != nil {
			log.Fatalf("Failed to read archive status: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func run(ctx context.Context, conn *pgx.Conn, queries []string) error {
	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Executed: %s\n", firstLine(query))
	}
	return nil
}

func status(ctx context.Context, conn *pgx.Conn) error {
	rows, err := conn.Query(ctx, `
		SELECT channel, COUNT(*), MAX(published_at)
		FROM content_archive
		GROUP BY channel
		ORDER BY channel`)
	if err != nil {
		return err
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			channel string
			count   int64
			latest  time.Time
		)
		if err := rows.Scan(&channel, &count, &latest); err != nil {
			return err
		}
		found = true
		fmt.Printf("  %-32s %6d items, latest %s\n", channel, count, latest.UTC().Format(time.RFC3339))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if !found {
		fmt.Println("  Archive is empty")
	}
	return nil
}

func firstLine(query string) string {
	query = strings.TrimSpace(query)
	if i := strings.IndexByte(query, '\n'); i >= 0 {
		return strings.TrimSpace(query[:i]) + " ..."
	}
	return query
}
