package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	pgxDup := &pgconn.PgError{Code: "23505", ConstraintName: "price_records_active_pair_idx"}
	pqDup := &pq.Error{Code: "23505", Constraint: "price_records_active_pair_idx"}

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil", nil, "", false},
		{"pgx duplicate", pgxDup, "", true},
		{"pgx wrong constraint", pgxDup, "other_idx", false},
		{"pgx matching constraint", fmt.Errorf("insert: %w", pgxDup), "price_records_active_pair_idx", true},
		{"pq duplicate", pqDup, "price_records_active_pair_idx", true},
		{"pgx non-unique code", &pgconn.PgError{Code: "23503"}, "", false},
		{"sqlite message", errors.New("UNIQUE constraint failed: price_records.product_id"), "", true},
		{"postgres message", errors.New(`duplicate key value violates unique constraint "x"`), "", false},
		{"unrelated", errors.New("connection reset"), "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v, %q) = %v, want %v", tc.err, tc.constraint, got, tc.want)
			}
		})
	}
}
