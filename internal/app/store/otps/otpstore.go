package otpstore

import (
	"context"
	"time"

	"github.com/dalemusser/drshaadi/internal/app/system/normalize"
	"github.com/dalemusser/drshaadi/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages OTP records. Records are never deleted; a verified record
// stays behind as proof that the number was confirmed.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("otps")}
}

// Upsert refreshes the pending (unverified) record for mobile in place, or
// inserts one if there is none. attempts resets to zero.
//
// Two concurrent upserts for a fresh number can both try to insert; the
// unique partial index rejects the loser, and a second pass then finds and
// updates the winner's record.
func (s *Store) Upsert(ctx context.Context, mobile, codeHash string, expiresAt time.Time) (models.OTP, error) {
	mobile = normalize.MobileNumber(mobile)
	now := time.Now().UTC()

	filter := bson.M{"mobile_number": mobile, "is_verified": false}
	update := bson.M{
		"$set": bson.M{
			"code_hash":  codeHash,
			"expires_at": expiresAt.UTC(),
			"attempts":   0,
			"created_at": now,
		},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var otp models.OTP
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&otp)
	if err != nil && wafflemongo.IsDup(err) {
		err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&otp)
	}
	if err != nil {
		return models.OTP{}, err
	}
	return otp, nil
}

// FindPending returns the unverified record for mobile.
// Returns mongo.ErrNoDocuments if there is none.
func (s *Store) FindPending(ctx context.Context, mobile string) (*models.OTP, error) {
	var otp models.OTP
	filter := bson.M{"mobile_number": normalize.MobileNumber(mobile), "is_verified": false}
	if err := s.c.FindOne(ctx, filter).Decode(&otp); err != nil {
		return nil, err
	}
	return &otp, nil
}

// IncrementAttempts records one failed verification against the record.
func (s *Store) IncrementAttempts(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"attempts": 1}})
	return err
}

// MarkVerified flips the record to verified if it is still pending.
// It reports false when another caller got there first.
func (s *Store) MarkVerified(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "is_verified": false},
		bson.M{"$set": bson.M{"is_verified": true, "verified_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// VerifiedSince reports whether mobile has a record verified at or after since.
func (s *Store) VerifiedSince(ctx context.Context, mobile string, since time.Time) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"mobile_number": normalize.MobileNumber(mobile),
		"is_verified":   true,
		"verified_at":   bson.M{"$gte": since.UTC()},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
