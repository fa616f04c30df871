package util

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifyDBError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"no rows", fmt.Errorf("find: %w", pgx.ErrNoRows), "not_found"},
		{"unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"check", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23514"}), "check_violation"},
		{"other pg", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"unknown", errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		if got := ClassifyDBError(tc.err); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
