// Package postgres implements the repository contracts on Postgres. Each
// entity lives in its own table; sets are TEXT[] and nested documents JSONB.
// Every mutation is one statement so no row lock outlives a round trip.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"signlearn-service/internal/db"
	"signlearn-service/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// New wires every repository onto database.
func New(database *db.DB) repository.Store {
	return repository.Store{
		Users:       &UserRepository{db: database},
		Progress:    &ProgressRepository{db: database},
		Posts:       &PostRepository{db: database},
		Stories:     &StoryRepository{db: database},
		SharedPosts: &SharedPostRepository{db: database},
		Signs:       &SignRepository{db: database},
		Simulations: &SimulationRepository{db: database},
		Health:      database,
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// classify maps driver errors onto the repository sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return fmt.Errorf("%w: %s", repository.ErrConflict, pqErr.Constraint)
		case pqErr.Code == "42P01":
			// Schema not created yet; startup retries InitSchema in the background.
			return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
		case strings.HasPrefix(string(pqErr.Code), "08"),
			strings.HasPrefix(string(pqErr.Code), "53"),
			strings.HasPrefix(string(pqErr.Code), "57"):
			return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
		}
		return fmt.Errorf("postgres: %w", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	if strings.Contains(err.Error(), "database is closed") || strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return err
}

func textArray(s []string) interface{} {
	if s == nil {
		s = []string{}
	}
	return pq.Array(s)
}

func jsonArg(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func execAffected(ctx context.Context, database *db.DB, query string, args ...interface{}) error {
	ctx, cancel := database.WithTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// toggleMember flips member in table.column for the row id and returns the
// new membership and set size. table and column are compile-time constants.
func toggleMember(ctx context.Context, database *db.DB, table, column string, id uuid.UUID, member string) (bool, int, error) {
	ctx, cancel := database.WithTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = CASE WHEN $2::text = ANY(%[2]s)
			THEN array_remove(%[2]s, $2::text)
			ELSE array_append(%[2]s, $2::text) END
		WHERE id = $1
		RETURNING $2::text = ANY(%[2]s), cardinality(%[2]s)
	`, table, column)

	var isMember bool
	var count int
	if err := database.QueryRowContext(ctx, query, id, member).Scan(&isMember, &count); err != nil {
		return false, 0, classify(err)
	}
	return isMember, count, nil
}

// setMember forces membership of member and returns the set size.
func setMember(ctx context.Context, database *db.DB, table, column, extraWhere string, id uuid.UUID, member string, present bool) (int, error) {
	ctx, cancel := database.WithTimeout(ctx)
	defer cancel()

	expr := fmt.Sprintf(`CASE WHEN $2::text = ANY(%[1]s) THEN %[1]s ELSE array_append(%[1]s, $2::text) END`, column)
	if !present {
		expr = fmt.Sprintf(`array_remove(%s, $2::text)`, column)
	}
	query := fmt.Sprintf(`UPDATE %s SET %s = %s WHERE id = $1 %s RETURNING cardinality(%s)`,
		table, column, expr, extraWhere, column)

	var count int
	if err := database.QueryRowContext(ctx, query, id, member).Scan(&count); err != nil {
		return 0, classify(err)
	}
	return count, nil
}
