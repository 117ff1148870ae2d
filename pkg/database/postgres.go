package database

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func Connect() *sql.DB {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Println("Warning: DATABASE_URL not set.")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Error opening connection:", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Database ping failed:", err)
	}

	log.Println("PostgreSQL connection established.")
	return db
}
