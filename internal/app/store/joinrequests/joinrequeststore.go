package joinrequeststore

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicatePending is returned when the requester already has a pending
// request for the family.
var ErrDuplicatePending = errors.New("a pending join request already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("family_join_requests")}
}

// Create inserts a pending join request.
func (s *Store) Create(ctx context.Context, familyCode string, requesterID primitive.ObjectID, requesterName string) (models.FamilyJoinRequest, error) {
	req := models.FamilyJoinRequest{
		ID:            primitive.NewObjectID(),
		FamilyID:      normalize.FamilyCode(familyCode),
		RequesterID:   requesterID,
		RequesterName: requesterName,
		Status:        models.JoinStatusPending,
		RequestedAt:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, req); err != nil {
		if wafflemongo.IsDup(err) {
			return models.FamilyJoinRequest{}, ErrDuplicatePending
		}
		return models.FamilyJoinRequest{}, err
	}
	return req, nil
}

// GetByID returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.FamilyJoinRequest, error) {
	var req models.FamilyJoinRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPending returns the family's pending requests, oldest first.
func (s *Store) ListPending(ctx context.Context, familyCode string) ([]models.FamilyJoinRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "requested_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{
		"family_id": normalize.FamilyCode(familyCode),
		"status":    models.JoinStatusPending,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.FamilyJoinRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HasPending reports whether requesterID already has a pending request for the family.
func (s *Store) HasPending(ctx context.Context, familyCode string, requesterID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"family_id":    normalize.FamilyCode(familyCode),
		"requester_id": requesterID,
		"status":       models.JoinStatusPending,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetStatus records the outcome of processing a request.
// Returns mongo.ErrNoDocuments if the request does not exist.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status models.JoinStatus) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "processed_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
