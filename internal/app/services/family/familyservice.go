// Package familyservice manages families, their membership, and join requests.
//
// Writes that touch both a family and a user run through txn.Run so the
// family's member list and the user's family_id move together.
package familyservice

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	familystore "github.com/dalemusser/drshaadi/internal/app/store/families"
	joinrequeststore "github.com/dalemusser/drshaadi/internal/app/store/joinrequests"
	userstore "github.com/dalemusser/drshaadi/internal/app/store/users"
	"github.com/dalemusser/drshaadi/internal/app/system/apperr"
	"github.com/dalemusser/drshaadi/internal/app/system/normalize"
	"github.com/dalemusser/drshaadi/internal/app/system/txn"
	"github.com/dalemusser/drshaadi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	// CodeLength is the length of a family code.
	CodeLength   = 7
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxCodeAttempts bounds retries when a generated code is already taken.
	maxCodeAttempts = 5
)

// Actions accepted by ProcessJoinRequest.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Caller-facing messages.
const (
	MsgFamilyNotFound     = "Family not found"
	MsgUserNotFound       = "User not found"
	MsgRequestNotFound    = "Join request not found"
	MsgInvalidAction      = "Invalid action. Use 'approve' or 'reject'"
	MsgNotAMember         = "Not authorized to view requests"
	MsgNotAMemberProcess  = "Not authorized to process this request"
	MsgAlreadyMember      = "Already a member of this family"
	MsgAlreadyRequested   = "A join request for this family is already pending"
	MsgCreatorCannotLeave = "The family creator cannot leave the family"
)

type Service struct {
	db       *mongo.Database
	users    *userstore.Store
	families *familystore.Store
	requests *joinrequeststore.Store
	log      *zap.Logger
	newCode  func() (string, error)
}

func New(db *mongo.Database, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		users:    userstore.New(db),
		families: familystore.New(db),
		requests: joinrequeststore.New(db),
		log:      logger,
		newCode:  NewCode,
	}
}

// SetCodeGenerator replaces the family code generator.
func (s *Service) SetCodeGenerator(fn func() (string, error)) {
	s.newCode = fn
}

// NewCode returns a random family code of CodeLength characters from A-Z0-9.
func NewCode() (string, error) {
	b := make([]byte, CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// CreateFamily makes a new family with creatorID as its only member and
// points the creator at it.
func (s *Service) CreateFamily(ctx context.Context, creatorID primitive.ObjectID) (*models.Family, error) {
	if _, err := s.users.GetByID(ctx, creatorID); err != nil {
		return nil, apperr.FromStore(err, MsgUserNotFound)
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, apperr.Internal("generate family code", err)
		}

		var created models.Family
		err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
			f, err := s.families.Create(ctx, models.Family{FamilyID: code, CreatedBy: creatorID})
			if err != nil {
				return err
			}
			created = f
			return s.users.SetFamily(ctx, creatorID, f.FamilyID)
		})
		if errors.Is(err, familystore.ErrDuplicateFamilyID) {
			s.log.Info("family code collision; retrying",
				zap.String("family_id", code),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, apperr.FromStore(err, MsgUserNotFound)
		}
		return &created, nil
	}
	return nil, apperr.Internal("could not allocate a unique family code", familystore.ErrDuplicateFamilyID)
}

// JoinFamily adds userID to the family with the given code. Joining a
// family twice is harmless.
func (s *Service) JoinFamily(ctx context.Context, code string, userID primitive.ObjectID) (*models.Family, error) {
	code = normalize.FamilyCode(code)
	if _, err := s.families.GetByFamilyID(ctx, code); err != nil {
		return nil, apperr.FromStore(err, MsgFamilyNotFound)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, apperr.FromStore(err, MsgUserNotFound)
	}

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		return s.addMember(ctx, code, userID)
	})
	if err != nil {
		return nil, apperr.FromStore(err, MsgFamilyNotFound)
	}
	return s.GetFamily(ctx, code)
}

// RegisterMember creates u and, when code is set, adds the new user to that
// family in the same transaction. If the join fails no active account is
// left behind: the transaction rolls the insert back, and on servers
// without transactions the new account is deactivated instead, freeing the
// mobile number for a retry. Errors from the user store come back
// unwrapped so callers can match userstore.ErrDuplicateMobile.
func (s *Service) RegisterMember(ctx context.Context, u models.User, code string) (models.User, error) {
	code = normalize.FamilyCode(code)

	var created models.User
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		c, err := s.users.Create(ctx, u)
		if err != nil {
			return err
		}
		created = c
		if code == "" {
			return nil
		}
		return s.addMember(ctx, code, c.ID)
	})
	if err != nil {
		if !created.ID.IsZero() {
			s.discardMember(ctx, code, created.ID)
		}
		return models.User{}, err
	}

	if code != "" {
		created.FamilyID = &code
	}
	return created, nil
}

// discardMember undoes a registration whose family join failed. Inside a
// transaction the documents are already gone and both calls are no-ops.
func (s *Service) discardMember(ctx context.Context, code string, userID primitive.ObjectID) {
	if err := s.families.RemoveMember(ctx, code, userID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		s.log.Warn("remove member after failed registration", zap.String("family_id", code), zap.Error(err))
	}
	if err := s.users.Deactivate(ctx, userID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		s.log.Error("deactivate user after failed registration",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
	}
}

// addMember links userID and the family in both directions. Callers run it
// inside a transaction.
func (s *Service) addMember(ctx context.Context, code string, userID primitive.ObjectID) error {
	if err := s.families.AddMember(ctx, code, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound(MsgFamilyNotFound)
		}
		return err
	}
	if err := s.users.SetFamily(ctx, userID, code); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound(MsgUserNotFound)
		}
		return err
	}
	return nil
}

// GetFamily loads a family by code.
func (s *Service) GetFamily(ctx context.Context, code string) (*models.Family, error) {
	f, err := s.families.GetByFamilyID(ctx, code)
	if err != nil {
		return nil, apperr.FromStore(err, MsgFamilyNotFound)
	}
	return f, nil
}

// GetFamilyByUser returns the family userID belongs to, or nil when the user
// has none or its reference no longer resolves.
func (s *Service) GetFamilyByUser(ctx context.Context, userID primitive.ObjectID) (*models.Family, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.FromStore(err, MsgUserNotFound)
	}
	if u.FamilyID == nil || *u.FamilyID == "" {
		return nil, nil
	}
	f, err := s.families.GetByFamilyID(ctx, *u.FamilyID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromStore(err, MsgFamilyNotFound)
	}
	return f, nil
}

// LeaveFamily removes userID from the family and clears the user's
// reference. It succeeds whether or not the user was a member. The creator
// may not leave.
func (s *Service) LeaveFamily(ctx context.Context, code string, userID primitive.ObjectID) error {
	code = normalize.FamilyCode(code)
	f, err := s.families.GetByFamilyID(ctx, code)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.FromStore(err, MsgFamilyNotFound)
	}
	if f != nil && f.CreatedBy == userID {
		return apperr.Invalid(MsgCreatorCannotLeave)
	}

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.families.RemoveMember(ctx, code, userID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
		return s.users.ClearFamily(ctx, userID, code)
	})
	if err != nil {
		return apperr.FromStore(err, MsgFamilyNotFound)
	}
	return nil
}

// RequireMember loads the family and checks userID belongs to it.
// forbiddenMsg is returned as a Forbidden error when it does not.
func (s *Service) RequireMember(ctx context.Context, code string, userID primitive.ObjectID, forbiddenMsg string) (*models.Family, error) {
	f, err := s.GetFamily(ctx, code)
	if err != nil {
		return nil, err
	}
	if !f.HasMember(userID) {
		return nil, apperr.Forbidden(forbiddenMsg)
	}
	return f, nil
}

// CreateJoinRequest files a pending request from requesterID to join the family.
func (s *Service) CreateJoinRequest(ctx context.Context, code string, requesterID primitive.ObjectID) (*models.FamilyJoinRequest, error) {
	f, err := s.GetFamily(ctx, code)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, apperr.FromStore(err, MsgUserNotFound)
	}
	if f.HasMember(requesterID) {
		return nil, apperr.Invalid(MsgAlreadyMember)
	}

	pending, err := s.requests.HasPending(ctx, f.FamilyID, requesterID)
	if err != nil {
		return nil, apperr.FromStore(err, MsgRequestNotFound)
	}
	if pending {
		return nil, apperr.Invalid(MsgAlreadyRequested)
	}

	req, err := s.requests.Create(ctx, f.FamilyID, requesterID, u.Name)
	if errors.Is(err, joinrequeststore.ErrDuplicatePending) {
		return nil, apperr.Invalid(MsgAlreadyRequested)
	}
	if err != nil {
		return nil, apperr.FromStore(err, MsgRequestNotFound)
	}
	return &req, nil
}

// ListPendingJoinRequests returns the family's pending requests, oldest first.
func (s *Service) ListPendingJoinRequests(ctx context.Context, code string) ([]models.FamilyJoinRequest, error) {
	reqs, err := s.requests.ListPending(ctx, code)
	if err != nil {
		return nil, apperr.FromStore(err, MsgFamilyNotFound)
	}
	return reqs, nil
}

// ProcessJoinRequest approves or rejects a request on behalf of actorID, who
// must belong to the request's family. Approval adds the requester to the
// family. A request that was already processed is processed again.
func (s *Service) ProcessJoinRequest(ctx context.Context, requestID primitive.ObjectID, action string, actorID primitive.ObjectID) (*models.FamilyJoinRequest, error) {
	var status models.JoinStatus
	switch normalize.Action(action) {
	case ActionApprove:
		status = models.JoinStatusApproved
	case ActionReject:
		status = models.JoinStatusRejected
	default:
		return nil, apperr.Invalid(MsgInvalidAction)
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperr.FromStore(err, MsgRequestNotFound)
	}
	if _, err := s.RequireMember(ctx, req.FamilyID, actorID, MsgNotAMemberProcess); err != nil {
		return nil, err
	}

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.requests.SetStatus(ctx, req.ID, status); err != nil {
			return err
		}
		if status == models.JoinStatusApproved {
			return s.addMember(ctx, req.FamilyID, req.RequesterID)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(err, MsgRequestNotFound)
	}

	updated, err := s.requests.GetByID(ctx, req.ID)
	if err != nil {
		return nil, apperr.FromStore(err, MsgRequestNotFound)
	}
	return updated, nil
}
