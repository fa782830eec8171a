package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/drshaadi/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active, mobile-verified user.
func (f *Fixtures) CreateUser(ctx context.Context, name, mobile string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, name, mobile, true)
}

// CreateInactiveUser creates a deactivated user.
func (f *Fixtures) CreateInactiveUser(ctx context.Context, name, mobile string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, name, mobile, false)
}

func (f *Fixtures) insertUser(ctx context.Context, name, mobile string, active bool) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:               primitive.NewObjectID(),
		Name:             name,
		NameCI:           text.Fold(name),
		MobileNumber:     mobile,
		IsMobileVerified: true,
		ProfileType:      models.ProfileTypeMyself,
		IsActive:         active,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateFamily creates a family with creator plus any extra members and
// points every member's family_id at it.
func (f *Fixtures) CreateFamily(ctx context.Context, code string, creator primitive.ObjectID, members ...primitive.ObjectID) models.Family {
	f.t.Helper()

	now := time.Now().UTC()
	fam := models.Family{
		ID:        primitive.NewObjectID(),
		FamilyID:  code,
		CreatedBy: creator,
		Members:   append([]primitive.ObjectID{creator}, members...),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("families").InsertOne(ctx, fam); err != nil {
		f.t.Fatalf("failed to create test family: %v", err)
	}

	for _, id := range fam.Members {
		_, err := f.db.Collection("users").UpdateByID(ctx, id, bson.M{
			"$set": bson.M{"family_id": code},
		})
		if err != nil {
			f.t.Fatalf("failed to link user to family: %v", err)
		}
	}
	return fam
}

// CreateJoinRequest creates a join request from requester with the given status.
func (f *Fixtures) CreateJoinRequest(ctx context.Context, familyCode string, requester models.User, status models.JoinStatus) models.FamilyJoinRequest {
	f.t.Helper()

	now := time.Now().UTC()
	req := models.FamilyJoinRequest{
		ID:            primitive.NewObjectID(),
		FamilyID:      familyCode,
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		Status:        status,
		RequestedAt:   now,
	}
	if status != models.JoinStatusPending {
		req.ProcessedAt = &now
	}

	if _, err := f.db.Collection("family_join_requests").InsertOne(ctx, req); err != nil {
		f.t.Fatalf("failed to create test join request: %v", err)
	}
	return req
}

// CreateOTP creates an unverified OTP record for mobile with the given code.
func (f *Fixtures) CreateOTP(ctx context.Context, mobile, code string, expiresAt time.Time) models.OTP {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash code: %v", err)
	}

	otp := models.OTP{
		ID:           primitive.NewObjectID(),
		MobileNumber: mobile,
		CodeHash:     string(hash),
		ExpiresAt:    expiresAt.UTC(),
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := f.db.Collection("otps").InsertOne(ctx, otp); err != nil {
		f.t.Fatalf("failed to create test otp: %v", err)
	}
	return otp
}

// CreateVerifiedOTP creates an OTP record already marked verified at verifiedAt.
func (f *Fixtures) CreateVerifiedOTP(ctx context.Context, mobile string, verifiedAt time.Time) models.OTP {
	f.t.Helper()

	v := verifiedAt.UTC()
	otp := models.OTP{
		ID:           primitive.NewObjectID(),
		MobileNumber: mobile,
		CodeHash:     "x",
		ExpiresAt:    v.Add(5 * time.Minute),
		IsVerified:   true,
		VerifiedAt:   &v,
		CreatedAt:    v.Add(-time.Minute),
	}

	if _, err := f.db.Collection("otps").InsertOne(ctx, otp); err != nil {
		f.t.Fatalf("failed to create verified otp: %v", err)
	}
	return otp
}
