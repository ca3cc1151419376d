package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bookkeeping/internal/config"
	"bookkeeping/internal/db"
	"bookkeeping/internal/logger"

	"github.com/jmoiron/sqlx"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding the *.sql migrations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("development", "info")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	database, err := db.Connect(cfg.DatabaseURL, db.PoolOptions{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer database.Close()

	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename text primary key, applied_at timestamptz default now())`); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema_migrations")
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read migrations")
	}
	sort.Strings(files)

	ctx := context.Background()
	applied := 0
	for _, file := range files {
		filename := filepath.Base(file)
		var exists bool
		if err := database.Get(&exists, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename); err != nil {
			log.Fatal().Err(err).Msg("failed to read migration state")
		}
		if exists {
			continue
		}
		err := db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
			if err := applyFile(tx, file); err != nil {
				return err
			}
			_, err := tx.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, filename)
			return err
		})
		if err != nil {
			log.Fatal().Err(err).Str("file", filename).Msg("failed to apply migration")
		}
		log.Info().Str("file", filename).Msg("applied")
		applied++
	}
	log.Info().Int("applied", applied).Int("total", len(files)).Msg("migrations complete")
}

// applyFile runs the statements above the "-- +migrate Down" marker.
func applyFile(db execer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	up, _, _ := strings.Cut(string(content), "-- +migrate Down")
	for _, stmt := range splitSQL(up) {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// splitSQL breaks a script into statements on lines that end with a semicolon.
// Full-line comments are dropped.
func splitSQL(sqlText string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(sqlText))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	out := statements[:0]
	for _, stmt := range statements {
		if strings.TrimSpace(stmt) != "" {
			out = append(out, stmt)
		}
	}
	return out
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}
