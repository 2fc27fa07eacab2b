package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/identity-service/internal/core/domain"
)

const rolesCollection = "roles"

type MongoRoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *MongoRoleRepository {
	return &MongoRoleRepository{coll: db.Collection(rolesCollection)}
}

type mongoRole struct {
	Name        string `bson:"name"`
	Description string `bson:"description,omitempty"`
}

func (r *MongoRoleRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create role index: %w", err)
	}
	return nil
}

func (r *MongoRoleRepository) FindByName(ctx context.Context, name domain.Role) (*domain.RoleRecord, error) {
	var mr mongoRole
	if err := r.coll.FindOne(ctx, bson.M{"name": string(name)}).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &domain.RoleRecord{Name: domain.Role(mr.Name), Description: mr.Description}, nil
}

// Ensure upserts with $setOnInsert so existing descriptions are left alone.
func (r *MongoRoleRepository) Ensure(ctx context.Context, role domain.RoleRecord) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"name": string(role.Name)},
		bson.M{"$setOnInsert": mongoRole{Name: string(role.Name), Description: role.Description}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensure role: %w", err)
	}
	return nil
}
