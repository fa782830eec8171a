// internal/domain/models/otp.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTP is a one-time code issued to a mobile number.
//
// At most one unverified record exists per mobile number; sending again
// refreshes it in place. Verified records are kept.
type OTP struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MobileNumber string             `bson:"mobile_number" json:"mobile_number"`
	CodeHash     string             `bson:"code_hash" json:"-"` // bcrypt hash of the code
	ExpiresAt    time.Time          `bson:"expires_at" json:"expires_at"`
	Attempts     int                `bson:"attempts" json:"attempts"` // failed verifications
	IsVerified   bool               `bson:"is_verified" json:"is_verified"`
	VerifiedAt   *time.Time         `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// Expired reports whether the code is past its expiry at now.
func (o OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
