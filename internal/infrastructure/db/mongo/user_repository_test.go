package mongo

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/identity-service/internal/core/domain"
)

func duplicateOn(index string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: identity_service.users index: " + index + " dup key",
	}}}
}

func TestMapWriteError(t *testing.T) {
	if got := mapWriteError("insert user", duplicateOn(usernameIndex)); got != domain.ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", got)
	}
	if got := mapWriteError("insert user", duplicateOn(emailIndex)); got != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", got)
	}
	if got := mapWriteError("insert user", duplicateOn("_id_")); got != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", got)
	}

	boom := errors.New("server selection timeout")
	if got := mapWriteError("insert user", boom); !errors.Is(got, boom) || errors.Is(got, domain.ErrUserExists) {
		t.Fatalf("expected wrapped error, got %v", got)
	}
}

func TestMongoUser_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	local := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	doc := toMongoUser(&domain.User{
		Username:  "alice",
		Email:     "alice@x.com",
		Roles:     []domain.Role{domain.RoleUser, domain.RoleAdmin},
		IsActive:  true,
		CreatedAt: local,
		LastLogin: &local,
	})
	doc.ID = oid

	u := doc.toDomain()
	if u.ID != oid.Hex() {
		t.Fatalf("expected hex id %s, got %s", oid.Hex(), u.ID)
	}
	if !u.HasRole(domain.RoleAdmin) || len(u.Roles) != 2 {
		t.Fatalf("unexpected roles: %v", u.Roles)
	}
	if u.CreatedAt.Location() != time.UTC || u.LastLogin == nil || u.LastLogin.Location() != time.UTC {
		t.Fatalf("timestamps should be normalised to UTC")
	}
}
