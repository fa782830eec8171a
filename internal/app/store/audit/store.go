package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth    = "auth"
	CategoryFamily  = "family"
	CategoryProfile = "profile"
)

// Auth event types
const (
	EventOTPSent                  = "otp_sent"
	EventOTPSendFailedRateLimit   = "otp_send_failed_rate_limit"
	EventOTPVerified              = "otp_verified"
	EventOTPVerifyFailed          = "otp_verify_failed"
	EventRegisterSuccess          = "register_success"
	EventRegisterFailedDuplicate  = "register_failed_duplicate"
	EventRegisterFailedUnverified = "register_failed_unverified"
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedUnverified    = "login_failed_unverified"
)

// Family event types
const (
	EventFamilyCreated       = "family_created"
	EventFamilyJoined        = "family_joined"
	EventFamilyLeft          = "family_left"
	EventJoinRequestCreated  = "join_request_created"
	EventJoinRequestApproved = "join_request_approved"
	EventJoinRequestRejected = "join_request_rejected"
)

// Profile event types
const (
	EventProfileUpdated = "profile_updated"
	EventProfileDeleted = "profile_deleted"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who
	UserID       *primitive.ObjectID `bson:"user_id,omitempty"`  // affected user
	ActorID      *primitive.ObjectID `bson:"actor_id,omitempty"` // who performed the action, when different
	MobileNumber string              `bson:"mobile_number,omitempty"`
	FamilyID     string              `bson:"family_id,omitempty"`

	// Context
	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	UserID       *primitive.ObjectID
	MobileNumber string
	FamilyID     string
	Category     string
	EventType    string
	StartTime    *time.Time
	EndTime      *time.Time
	Limit        int64
	Offset       int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}
	if filter.UserID != nil {
		query["user_id"] = filter.UserID
	}
	if filter.MobileNumber != "" {
		query["mobile_number"] = filter.MobileNumber
	}
	if filter.FamilyID != "" {
		query["family_id"] = filter.FamilyID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(filter))
}
