package db

import (
	"database/sql"
	_ "embed"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schema string

// InitDB opens Postgres and applies the embedded schema.
func InitDB(dsn string) *sql.DB {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err = db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	createTables(db)
	log.Info().Msg("database initialized")
	return db
}

func createTables(db *sql.DB) {
	if _, err := db.Exec(schema); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}
}
