package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/drshaadi/internal/app/system/normalize"
	"github.com/dalemusser/drshaadi/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrDuplicateMobile is returned when an active user already has the mobile number.
	ErrDuplicateMobile = errors.New("a user with this mobile number already exists")
	errNameRequired    = errors.New("name is required")
	errMobileRequired  = errors.New("mobile_number is required")
	errBadProfileType  = errors.New(`profile_type must be "myself"|"family_member"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetActiveByMobile looks up the active user for a mobile number.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetActiveByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var u models.User
	filter := bson.M{"mobile_number": normalize.MobileNumber(mobile), "is_active": true}
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new active user after normalizing & validating fields.
// The unique index on active mobile numbers turns a concurrent duplicate
// into ErrDuplicateMobile.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.MobileNumber = normalize.MobileNumber(u.MobileNumber)
	u.IsActive = true
	if u.ProfileType == "" {
		u.ProfileType = models.ProfileTypeMyself
	}
	if u.Email != nil {
		e := normalize.Email(*u.Email)
		if e == "" {
			u.Email = nil
		} else {
			u.Email = &e
		}
	}

	if u.Name == "" {
		return models.User{}, errNameRequired
	}
	if u.MobileNumber == "" {
		return models.User{}, errMobileRequired
	}
	if !u.ProfileType.Valid() {
		return models.User{}, errBadProfileType
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateMobile
		}
		return models.User{}, err
	}
	return u, nil
}

// SetFamily points the user's family_id at code.
// Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) SetFamily(ctx context.Context, id primitive.ObjectID, code string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"family_id": code, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ClearFamily removes the user's family_id if it still points at code.
// A user who has since moved to another family is left alone.
func (s *Store) ClearFamily(ctx context.Context, id primitive.ObjectID, code string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "family_id": code},
		bson.M{
			"$unset": bson.M{"family_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

// SetProfile replaces the user's profile document wholesale.
// Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) SetProfile(ctx context.Context, id primitive.ObjectID, p models.ProfileData) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"profile_data": p, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ClearProfile removes the user's profile document.
// Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) ClearProfile(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$unset": bson.M{"profile_data": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
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

// Deactivate marks the user inactive, freeing the mobile number for a new account.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
