package db

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const defaultMaxAttempts = 5

// ErrRetryLimit is returned when every attempt of a transaction hit a serialization
// failure or deadlock.
var ErrRetryLimit = errors.New("transaction retry limit exceeded")

type TxRunner interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

type SQLXTxRunner struct {
	db          *sqlx.DB
	maxAttempts int
	log         zerolog.Logger
}

func NewTxRunner(db *sqlx.DB, maxAttempts int, log zerolog.Logger) SQLXTxRunner {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return SQLXTxRunner{db: db, maxAttempts: maxAttempts, log: log}
}

func (r SQLXTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return withTx(ctx, r.db, r.maxAttempts, r.log, fn)
}

type PoolOptions struct {
	MaxOpenConns int
	MaxIdleConns int
}

func Connect(databaseURL string, opts PoolOptions) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 30
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// WithTx runs fn inside a SERIALIZABLE transaction, retrying the whole unit on
// serialization failures and deadlocks.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	return withTx(ctx, db, defaultMaxAttempts, zerolog.Nop(), fn)
}

func withTx(ctx context.Context, db *sqlx.DB, maxAttempts int, log zerolog.Logger, fn func(*sqlx.Tx) error) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			if IsRetryable(err) && attempt < maxAttempts {
				log.Debug().Err(err).Int("attempt", attempt).Msg("retrying transaction")
				sleepWithBackoff(attempt)
				continue
			}
			if IsRetryable(err) {
				return ErrRetryLimit
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			if IsRetryable(err) && attempt < maxAttempts {
				log.Debug().Err(err).Int("attempt", attempt).Msg("retrying commit")
				sleepWithBackoff(attempt)
				continue
			}
			if IsRetryable(err) {
				return ErrRetryLimit
			}
			return err
		}
		return nil
	}
	return ErrRetryLimit
}

// IsRetryable reports serialization_failure and deadlock_detected.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// IsUniqueViolation reports unique_violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}

func sleepWithBackoff(attempt int) {
	base := 20 * time.Millisecond
	backoff := time.Duration(attempt*attempt) * base
	jitter := time.Duration(rand.Int63n(int64(10 * time.Millisecond)))
	time.Sleep(backoff + jitter)
}
