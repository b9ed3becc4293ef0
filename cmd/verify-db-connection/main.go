package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"strings"

	"wallet-backend/internal/config"

	_ "github.com/lib/pq"
)

var tables = []string{"addresses", "transactions", "transfers"}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	fmt.Println("🔍 Verifying database connection and schema...")
	fmt.Println(strings.Repeat("=", 60))

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatalf("DATABASE_DSN is not configured")
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	var dbName string
	if err := sqlDB.QueryRow("SELECT current_database()").Scan(&dbName); err != nil {
		log.Fatalf("Failed to get database name: %v", err)
	}
	fmt.Printf("📋 Connected to database: %s\n", dbName)

	missing := 0
	for _, table := range tables {
		var exists bool
		err := sqlDB.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			log.Fatalf("Failed to check table %s: %v", table, err)
		}
		if !exists {
			fmt.Printf("❌ %s: missing (start the server once to run migrations)\n", table)
			missing++
			continue
		}

		var count int64
		// table names come from the fixed list above
		if err := sqlDB.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			log.Fatalf("Failed to count %s: %v", table, err)
		}
		fmt.Printf("✅ %s: %d rows\n", table, count)
	}

	var pending int64
	if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM transfers WHERE status = 'sent'`).Scan(&pending); err == nil && pending > 0 {
		fmt.Printf("⚠️  %d transfers still in 'sent' status (interrupted lifecycle)\n", pending)
	}

	if missing > 0 {
		fmt.Printf("\n%d table(s) missing\n", missing)
		return
	}
	fmt.Println("\n🎉 Database looks good")
}
