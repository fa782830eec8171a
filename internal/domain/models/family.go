// internal/domain/models/family.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Family is a group of users sharing a short join code.
//
// NOTE:
//   - FamilyID is the human-shareable code (7 chars, A-Z0-9); ID is the
//     store-assigned key. Users and join requests reference the code.
//   - Members is maintained with $addToSet/$pull and never holds duplicates.
type Family struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FamilyID  string               `bson:"family_id" json:"family_id"`
	CreatedBy primitive.ObjectID   `bson:"created_by" json:"created_by"`
	Members   []primitive.ObjectID `bson:"members" json:"members"`
	IsActive  bool                 `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether userID is in the members list.
func (f Family) HasMember(userID primitive.ObjectID) bool {
	for _, m := range f.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// JoinStatus is the lifecycle state of a join request.
type JoinStatus string

const (
	JoinStatusPending  JoinStatus = "pending"
	JoinStatusApproved JoinStatus = "approved"
	JoinStatusRejected JoinStatus = "rejected"
)

// FamilyJoinRequest asks for a user to be added to a family.
type FamilyJoinRequest struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FamilyID      string             `bson:"family_id" json:"family_id"`
	RequesterID   primitive.ObjectID `bson:"requester_id" json:"requester_id"`
	RequesterName string             `bson:"requester_name" json:"requester_name"`
	Status        JoinStatus         `bson:"status" json:"status"`
	RequestedAt   time.Time          `bson:"requested_at" json:"requested_at"`
	ProcessedAt   *time.Time         `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
}
