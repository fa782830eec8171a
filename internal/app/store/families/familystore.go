package familystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/drshaadi/internal/app/system/normalize"
	"github.com/dalemusser/drshaadi/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateFamilyID is returned when the family code is already taken.
var ErrDuplicateFamilyID = errors.New("family code already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("families")}
}

// Create inserts an active family. The creator is always the first member
// and the member list is de-duplicated.
func (s *Store) Create(ctx context.Context, f models.Family) (models.Family, error) {
	f.ID = primitive.NewObjectID()
	f.FamilyID = normalize.FamilyCode(f.FamilyID)
	f.IsActive = true

	members := []primitive.ObjectID{f.CreatedBy}
	seen := map[primitive.ObjectID]bool{f.CreatedBy: true}
	for _, m := range f.Members {
		if !seen[m] {
			seen[m] = true
			members = append(members, m)
		}
	}
	f.Members = members

	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Family{}, ErrDuplicateFamilyID
		}
		return models.Family{}, err
	}
	return f, nil
}

// GetByFamilyID loads a family by its short code.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByFamilyID(ctx context.Context, code string) (*models.Family, error) {
	var f models.Family
	if err := s.c.FindOne(ctx, bson.M{"family_id": normalize.FamilyCode(code)}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// AddMember adds userID to the family's member set. Adding an existing
// member is a no-op apart from updated_at.
// Returns mongo.ErrNoDocuments if the family does not exist.
func (s *Store) AddMember(ctx context.Context, code string, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"family_id": normalize.FamilyCode(code)},
		bson.M{
			"$addToSet": bson.M{"members": userID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveMember pulls userID from the family's member set.
// Returns mongo.ErrNoDocuments if the family does not exist.
func (s *Store) RemoveMember(ctx context.Context, code string, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"family_id": normalize.FamilyCode(code)},
		bson.M{
			"$pull": bson.M{"members": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
