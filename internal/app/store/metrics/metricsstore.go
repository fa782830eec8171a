package metricsstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals exported as gauges on /metrics.
type Counts struct {
	ActiveUsers         int64
	VerifiedUsers       int64
	Families            int64
	PendingJoinRequests int64
	PendingOTPs         int64 // unverified and not yet expired
}

// FetchCounts returns the high-level counts.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts
	now := time.Now().UTC()

	if n, err := db.Collection("users").CountDocuments(ctx, bson.M{"is_active": true}); err == nil {
		out.ActiveUsers = n
	}

	if n, err := db.Collection("users").CountDocuments(ctx, bson.M{"is_active": true, "is_mobile_verified": true}); err == nil {
		out.VerifiedUsers = n
	}

	if n, err := db.Collection("families").CountDocuments(ctx, bson.M{"is_active": true}); err == nil {
		out.Families = n
	}

	if n, err := db.Collection("family_join_requests").CountDocuments(ctx, bson.M{"status": "pending"}); err == nil {
		out.PendingJoinRequests = n
	}

	otpFilter := bson.M{"is_verified": false, "expires_at": bson.M{"$gt": now}}
	if n, err := db.Collection("otps").CountDocuments(ctx, otpFilter); err == nil {
		out.PendingOTPs = n
	}

	return out
}
