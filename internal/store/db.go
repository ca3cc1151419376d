package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type DB interface {
	Execer
	Getter
	Selecter
}

// Tx is the subset of *sqlx.Tx the stores use inside a unit of work.
type Tx interface {
	Execer
	Getter
	Selecter
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func itoa(value int) string {
	return strconv.Itoa(value)
}

// timestampOrNow lets callers that did not stamp a row fall back to the current time.
func timestampOrNow(value time.Time) time.Time {
	if value.IsZero() {
		return time.Now().UTC()
	}
	return value
}
