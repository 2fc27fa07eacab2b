package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/99minutos/identity-service/internal/core/domain"
)

func TestMapWriteError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"username", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_username_key"}, domain.ErrUsernameTaken},
		{"email", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"}, domain.ErrEmailTaken},
		{"other unique", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_pkey"}, domain.ErrUserExists},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"}), domain.ErrEmailTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapWriteError("insert user", tc.err); got != tc.want {
				t.Fatalf("mapWriteError() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMapWriteError_PassesThroughOtherFailures(t *testing.T) {
	notNull := &pgconn.PgError{Code: "23502", ColumnName: "email"}
	got := mapWriteError("insert user", notNull)
	if errors.Is(got, domain.ErrUserExists) || !errors.Is(got, notNull) {
		t.Fatalf("expected wrapped original error, got %v", got)
	}

	boom := errors.New("connection reset")
	if got := mapWriteError("insert user", boom); !errors.Is(got, boom) {
		t.Fatalf("expected wrapped error, got %v", got)
	}
}
