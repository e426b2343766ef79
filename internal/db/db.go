package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Connect opens the message database and runs migrations. The default is a
// local SQLite file; postgres is available for deployments that already run
// one. Both schemas keep the same column set so the repository layer stays
// driver-agnostic.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	var (
		database *sqlx.DB
		err      error
	)
	switch driver {
	case "sqlite":
		database, err = sqlx.Connect("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("connect sqlite: %w", err)
		}
		// modernc sqlite serializes writes through a single connection.
		database.SetMaxOpenConns(1)
	case "postgres":
		database, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	if err := runMigrations(database, driver); err != nil {
		database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return database, nil
}

func runMigrations(database *sqlx.DB, driver string) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == "postgres" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS messages (
            id %s,
            room TEXT NOT NULL,
            message TEXT,
            image TEXT,
            timestamp TIMESTAMP NOT NULL,
            sender_sid TEXT
        );`, idColumn),
		`CREATE INDEX IF NOT EXISTS idx_messages_room_timestamp ON messages(room, timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);`,
	}

	for _, m := range migrations {
		if _, err := database.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
