// Package profileservice stores the nested profile document each user owns
// and reports how complete it is.
package profileservice

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	userstore "github.com/dalemusser/drshaadi/internal/app/store/users"
	"github.com/dalemusser/drshaadi/internal/app/system/apperr"
	"github.com/dalemusser/drshaadi/internal/app/system/htmlsanitize"
	"github.com/dalemusser/drshaadi/internal/app/system/limits"
	"github.com/dalemusser/drshaadi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const MsgUserNotFound = "User not found"

type Service struct {
	users *userstore.Store
}

func New(db *mongo.Database) *Service {
	return &Service{users: userstore.New(db)}
}

// Update replaces the user's profile wholesale with a sanitized copy of data
// and returns what was stored.
func (s *Service) Update(ctx context.Context, userID primitive.ObjectID, data models.ProfileData) (*models.ProfileData, error) {
	clean, err := Sanitize(data)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetProfile(ctx, userID, clean); err != nil {
		return nil, apperr.FromStore(err, MsgUserNotFound)
	}
	return &clean, nil
}

// Get returns the user's profile, or nil if they have not created one.
func (s *Service) Get(ctx context.Context, userID primitive.ObjectID) (*models.ProfileData, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.FromStore(err, MsgUserNotFound)
	}
	return u.ProfileData, nil
}

// CompletionPercentage reports how much of the profile checklist is filled in.
func (s *Service) CompletionPercentage(ctx context.Context, userID primitive.ObjectID) (int, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return p.CompletionPercentage(), nil
}

// Delete removes the user's profile.
func (s *Service) Delete(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.users.ClearProfile(ctx, userID); err != nil {
		return apperr.FromStore(err, MsgUserNotFound)
	}
	return nil
}

// Sanitize strips HTML from every text field and enforces the field length
// limit. Missing sections stay missing.
func Sanitize(p models.ProfileData) (models.ProfileData, error) {
	var errs []error
	clean := func(name string, v *string) {
		*v = htmlsanitize.PlainText(*v)
		if utf8.RuneCountInString(*v) > limits.MaxProfileFieldLen {
			errs = append(errs, fmt.Errorf("%s must be at most %d characters", name, limits.MaxProfileFieldLen))
		}
	}

	var out models.ProfileData
	if p.Address != nil {
		a := *p.Address
		clean("address.location", &a.Location)
		clean("address.pincode", &a.Pincode)
		clean("address.grew_up_in", &a.GrewUpIn)
		clean("address.residency_status", &a.ResidencyStatus)
		out.Address = &a
	}
	if p.Caste != nil {
		c := *p.Caste
		clean("caste.caste", &c.Caste)
		clean("caste.subcaste", &c.Subcaste)
		out.Caste = &c
	}
	if p.Marital != nil {
		m := *p.Marital
		clean("marital.marital_status", &m.MaritalStatus)
		clean("marital.height", &m.Height)
		clean("marital.diet", &m.Diet)
		out.Marital = &m
	}

	if len(errs) > 0 {
		return models.ProfileData{}, apperr.Invalid(errors.Join(errs...).Error())
	}
	return out, nil
}
