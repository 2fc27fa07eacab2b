package handler

import (
	"errors"
	"strings"
	"testing"

	"github.com/99minutos/identity-service/internal/core/domain"
)

func TestValidator_RegisterRequest(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name string
		req  registerRequest
		want string
	}{
		{"valid", registerRequest{Username: "alice.b", Email: "alice@x.com", Password: "p@ss1234"}, ""},
		{"missing username", registerRequest{Email: "alice@x.com", Password: "p@ss1234"}, "username is required"},
		{"username looks like email", registerRequest{Username: "bob@x.com", Email: "bob@x.com", Password: "p@ss1234"}, "username may only contain"},
		{"short password", registerRequest{Username: "alice", Email: "alice@x.com", Password: "123"}, "password must be at least 6 characters"},
		{"bad email", registerRequest{Username: "alice", Email: "nope", Password: "p@ss1234"}, "email must be a valid email"},
		{"long first name", registerRequest{Username: "alice", Email: "alice@x.com", Password: "p@ss1234", FirstName: strings.Repeat("a", 51)}, "firstName must be at most 50 characters"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.req)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}
