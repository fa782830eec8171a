// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileType records who created the account.
type ProfileType string

const (
	ProfileTypeMyself       ProfileType = "myself"
	ProfileTypeFamilyMember ProfileType = "family_member"
)

// Valid reports whether t is one of the known profile types.
func (t ProfileType) Valid() bool {
	return t == ProfileTypeMyself || t == ProfileTypeFamilyMember
}

// User is a registered account, keyed by mobile number.
//
// NOTE:
//   - FamilyID holds the family's short code (Family.FamilyID), not its _id.
//     It is a back-reference; the family's members list is authoritative.
//   - ProfileData is embedded and replaced wholesale on update.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	NameCI           string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email            *string            `bson:"email,omitempty" json:"email,omitempty"`
	MobileNumber     string             `bson:"mobile_number" json:"mobile_number"`
	IsMobileVerified bool               `bson:"is_mobile_verified" json:"is_mobile_verified"`
	FamilyID         *string            `bson:"family_id,omitempty" json:"family_id,omitempty"`
	ProfileType      ProfileType        `bson:"profile_type" json:"profile_type"`
	ProfileData      *ProfileData       `bson:"profile_data,omitempty" json:"profile_data,omitempty"`
	IsActive         bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
