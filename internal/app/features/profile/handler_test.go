package profile_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	"github.com/dalemusser/drshaadi/internal/app/features/profile"
	profileservice "github.com/dalemusser/drshaadi/internal/app/services/profile"
	"github.com/dalemusser/drshaadi/internal/app/store/audit"
	"github.com/dalemusser/drshaadi/internal/app/system/auditlog"
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/domain/models"
	"github.com/dalemusser/drshaadi/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type profileBody struct {
	UserID               string              `json:"user_id"`
	ProfileData          *models.ProfileData `json:"profile_data"`
	CompletionPercentage int                 `json:"completion_percentage"`
}

func newTestHandler(t *testing.T) (*profile.Handler, *testutil.Fixtures, *audit.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	auditStore := audit.New(db)
	h := profile.NewHandler(
		profileservice.New(db),
		uierrors.NewErrorLogger(logger, false),
		auditlog.New(auditStore, logger, auditlog.Config{Profile: "db"}),
		logger,
	)
	return h, testutil.NewFixtures(t, db), auditStore
}

func fullProfile() map[string]any {
	return map[string]any{
		"address": map[string]any{
			"location":         "Pune",
			"pincode":          "411001",
			"grew_up_in":       "Nagpur",
			"residency_status": "Citizen",
		},
		"caste": map[string]any{
			"caste":    "Deshastha",
			"subcaste": "Rigvedi",
		},
		"marital": map[string]any{
			"marital_status": "Never married",
			"height":         "5ft 6in",
			"diet":           "Vegetarian",
		},
	}
}

func TestHandleUpdate_AndGet(t *testing.T) {
	h, fixtures, auditStore := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "Asha", "+919000000001")

	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedJSONRequest(t, "POST", "/profile/",
		map[string]any{"profile_data": fullProfile()}, u))
	rec.AssertStatus(t, http.StatusOK)

	var body profileBody
	rec.DecodeJSON(t, &body)
	if body.UserID != u.ID.Hex() {
		t.Errorf("user_id: got %q, want %q", body.UserID, u.ID.Hex())
	}
	if body.CompletionPercentage != 100 {
		t.Errorf("completion: got %d, want 100", body.CompletionPercentage)
	}

	rec = testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedJSONRequest(t, "GET", "/profile/", nil, u))
	rec.AssertStatus(t, http.StatusOK)
	body = profileBody{}
	rec.DecodeJSON(t, &body)
	if body.ProfileData == nil || body.ProfileData.Address == nil || body.ProfileData.Address.Location != "Pune" {
		t.Errorf("stored profile not returned: %+v", body.ProfileData)
	}

	n, err := auditStore.CountByFilter(ctx, audit.QueryFilter{EventType: audit.EventProfileUpdated})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 1 {
		t.Errorf("profile_updated events: got %d, want 1", n)
	}
}

func TestHandleUpdate_ReplacesWholesale(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "Asha", "+919000000001")

	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedJSONRequest(t, "POST", "/profile/",
		map[string]any{"profile_data": fullProfile()}, u))
	rec.AssertStatus(t, http.StatusOK)

	// Only caste preference now; address and marital are dropped.
	rec = testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedJSONRequest(t, "PUT", "/profile/", map[string]any{
		"user_id":      u.ID.Hex(),
		"profile_data": map[string]any{"caste": map[string]any{"is_not_particular_about_caste": true}},
	}, u))
	rec.AssertStatus(t, http.StatusOK)

	var body profileBody
	rec.DecodeJSON(t, &body)
	if body.CompletionPercentage != 11 {
		t.Errorf("completion: got %d, want 11", body.CompletionPercentage)
	}
	if body.ProfileData.Address != nil {
		t.Error("address should be gone after wholesale replace")
	}
}

func TestHandleUpdate_StripsMarkup(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "Asha", "+919000000001")

	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedJSONRequest(t, "POST", "/profile/create", map[string]any{
		"profile_data": map[string]any{
			"address": map[string]any{"location": `<script>alert(1)</script>Pune <b>East</b>`},
		},
	}, u))
	rec.AssertStatus(t, http.StatusOK)

	var body profileBody
	rec.DecodeJSON(t, &body)
	if got := body.ProfileData.Address.Location; got != "Pune East" {
		t.Errorf("location: got %q, want %q", got, "Pune East")
	}
}

func TestHandleUpdate_BadInput(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "Asha", "+919000000001")

	tests := []struct {
		name string
		body any
	}{
		{"missing profile_data", map[string]any{}},
		{"unknown section", map[string]any{"profile_data": map[string]any{"hobbies": "chess"}}},
		{"field too long", map[string]any{"profile_data": map[string]any{
			"marital": map[string]any{"diet": strings.Repeat("x", 500)},
		}}},
		{"wrong type", map[string]any{"profile_data": map[string]any{
			"caste": map[string]any{"is_not_particular_about_caste": "yes"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleUpdate(rec, testutil.NewAuthenticatedJSONRequest(t, "POST", "/profile/", tt.body, u))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestHandleUpdate_UnknownUser(t *testing.T) {
	h, _, _ := newTestHandler(t)
	ghost := models.User{ID: primitive.NewObjectID(), Name: "Ghost"}

	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedJSONRequest(t, "POST", "/profile/",
		map[string]any{"profile_data": fullProfile()}, ghost))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertDetail(t, profileservice.MsgUserNotFound)
}

func TestServeProfile_NoProfile(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "Asha", "+919000000001")

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedJSONRequest(t, "GET", "/profile/", nil, u))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"profile_data":null`)
	rec.AssertContains(t, `"completion_percentage":0`)
}

func TestHandleDelete(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "Asha", "+919000000001")

	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedJSONRequest(t, "POST", "/profile/",
		map[string]any{"profile_data": fullProfile()}, u))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.NewAuthenticatedJSONRequest(t, "DELETE", "/profile/", nil, u))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, profile.MsgProfileDeleted)

	rec = testutil.NewRecorder()
	h.ServeCompletion(rec, testutil.NewAuthenticatedJSONRequest(t, "GET", "/profile/completion", nil, u))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"completion_percentage":0`)
}

func TestServeCompletion(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "Asha", "+919000000001")

	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.NewAuthenticatedJSONRequest(t, "POST", "/profile/", map[string]any{
		"profile_data": map[string]any{
			"address": map[string]any{"location": "Pune", "pincode": "411001"},
			"caste":   map[string]any{"is_not_particular_about_caste": true},
		},
	}, u))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.ServeCompletion(rec, testutil.NewAuthenticatedJSONRequest(t, "GET", "/profile/completion", nil, u))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		UserID               string `json:"user_id"`
		CompletionPercentage int    `json:"completion_percentage"`
	}
	rec.DecodeJSON(t, &body)
	if body.UserID != u.ID.Hex() {
		t.Errorf("user_id: got %q, want %q", body.UserID, u.ID.Hex())
	}
	if body.CompletionPercentage != 33 {
		t.Errorf("completion: got %d, want 33", body.CompletionPercentage)
	}
}

func TestRoutes(t *testing.T) {
	h, fixtures, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "Asha", "+919000000001")

	tokens, err := auth.NewTokenManager("test-secret-must-be-at-least-32-chars", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	sm := auth.NewSessionManager(tokens, zap.NewNop())
	router := sm.LoadSessionUser(profile.Routes(h, sm))

	tok, err := tokens.Issue(u.ID.Hex(), u.MobileNumber)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		method     string
		path       string
		body       any
		bearer     string
		wantStatus int
	}{
		{"GET", "/", nil, "", http.StatusUnauthorized},
		{"GET", "/completion", nil, "", http.StatusUnauthorized},
		{"POST", "/create", map[string]any{"profile_data": fullProfile()}, tok.AccessToken, http.StatusOK},
		{"PUT", "/update", map[string]any{"profile_data": fullProfile()}, tok.AccessToken, http.StatusOK},
		{"PUT", "/", map[string]any{"profile_data": fullProfile()}, tok.AccessToken, http.StatusOK},
		{"GET", "/completion", nil, tok.AccessToken, http.StatusOK},
		{"DELETE", "/", nil, tok.AccessToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, tt.method, tt.path, tt.body)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.wantStatus)
		})
	}
}
