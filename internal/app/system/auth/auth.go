// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SessionUser is the authenticated caller injected into r.Context().
type SessionUser struct {
	ID           string
	Name         string
	MobileNumber string
	FamilyID     string // family code, "" when none
}

// ObjectID parses the user's id.
func (u *SessionUser) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(u.ID)
}

// UserFetcher loads fresh user data for a verified token.
// It returns nil when the user no longer exists or is inactive.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// CurrentUserID returns the signed-in user's id. ok is false when there is
// no user in context or its id does not parse.
func CurrentUserID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := CurrentUser(r)
	if !ok || u == nil {
		return primitive.NilObjectID, false
	}
	oid, err := u.ObjectID()
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// SessionManager authenticates bearer tokens.
type SessionManager struct {
	tokens  *TokenManager
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager returns a manager verifying tokens with tokens.
func NewSessionManager(tokens *TokenManager, logger *zap.Logger) *SessionManager {
	return &SessionManager{tokens: tokens, log: logger}
}

// SetUserFetcher makes LoadSessionUser look the user up on every request,
// so deactivated accounts lose access before their token expires.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) {
	sm.fetcher = f
}

// Tokens returns the token manager used for issuing.
func (sm *SessionManager) Tokens() *TokenManager { return sm.tokens }

// LoadSessionUser injects the user into context when the request carries a
// valid bearer token. Requests without one pass through untouched.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, ok := sm.tokens.Verify(raw)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		u := &SessionUser{ID: claims.UserID, MobileNumber: claims.MobileNumber}
		if sm.fetcher != nil {
			u = sm.fetcher.FetchUser(r.Context(), claims.UserID)
			if u == nil {
				sm.log.Debug("token for missing or inactive user", zap.String("user_id", claims.UserID))
				next.ServeHTTP(w, r)
				return
			}
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// Otherwise it answers 401 with a JSON detail and a WWW-Authenticate challenge.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", `Bearer`)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
	})
}

// WithTestUser injects u into the request context. For handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
