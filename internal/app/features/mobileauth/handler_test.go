package mobileauth_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	"github.com/dalemusser/drshaadi/internal/app/features/mobileauth"
	familyservice "github.com/dalemusser/drshaadi/internal/app/services/family"
	otpservice "github.com/dalemusser/drshaadi/internal/app/services/otp"
	"github.com/dalemusser/drshaadi/internal/app/store/audit"
	familystore "github.com/dalemusser/drshaadi/internal/app/store/families"
	userstore "github.com/dalemusser/drshaadi/internal/app/store/users"
	"github.com/dalemusser/drshaadi/internal/app/system/auditlog"
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/app/system/indexes"
	"github.com/dalemusser/drshaadi/internal/app/system/metrics"
	"github.com/dalemusser/drshaadi/internal/app/system/ratelimit"
	"github.com/dalemusser/drshaadi/internal/app/system/sms"
	"github.com/dalemusser/drshaadi/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret = "test-secret-must-be-at-least-32-chars"
	testMobile = "+919876543210"
	fixedCode  = "1234"
)

type testEnv struct {
	db       *mongo.Database
	handler  *mobileauth.Handler
	tokens   *auth.TokenManager
	sm       *auth.SessionManager
	fixtures *testutil.Fixtures
	audit    *audit.Store
}

func newTestEnv(t *testing.T, limiter ratelimit.KeyLimiter, opts mobileauth.Options) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	logger := zap.NewNop()
	tokens, err := auth.NewTokenManager(testSecret, "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	otp := otpservice.New(db, sms.LogSender{Log: logger}, otpservice.Config{
		FixedCode:  fixedCode,
		BcryptCost: bcrypt.MinCost,
	}, logger)
	auditStore := audit.New(db)
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{Auth: "db", Family: "db"})

	h := mobileauth.NewHandler(
		db,
		otp,
		familyservice.New(db, logger),
		tokens,
		uierrors.NewErrorLogger(logger, false),
		auditLog,
		metrics.New(),
		limiter,
		opts,
		logger,
	)

	return &testEnv{
		db:       db,
		handler:  h,
		tokens:   tokens,
		sm:       auth.NewSessionManager(tokens, logger),
		fixtures: testutil.NewFixtures(t, db),
		audit:    auditStore,
	}
}

func (e *testEnv) countEvents(t *testing.T, eventType string) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := e.audit.CountByFilter(ctx, audit.QueryFilter{EventType: eventType})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	return n
}

func decodeToken(t *testing.T, rec *testutil.ResponseRecorder) auth.Token {
	t.Helper()
	var tok auth.Token
	rec.DecodeJSON(t, &tok)
	if tok.AccessToken == "" {
		t.Fatal("expected access_token in response")
	}
	if tok.TokenType != auth.TokenType {
		t.Errorf("token_type: got %q, want %q", tok.TokenType, auth.TokenType)
	}
	return tok
}

/*─────────────────────────────────────────────────────────────────────────────*
| send-otp / verify-otp                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func TestSendOTP_Success(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})

	req := testutil.NewJSONRequest(t, "POST", "/auth/send-otp", map[string]string{
		"mobile_number": "+91 98765-43210",
	})
	rec := testutil.NewRecorder()
	env.handler.SendOTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var body otpservice.SendResult
	rec.DecodeJSON(t, &body)
	if body.MobileNumber != testMobile {
		t.Errorf("mobile_number: got %q, want %q", body.MobileNumber, testMobile)
	}
	if body.Message != otpservice.SentMessage {
		t.Errorf("message: got %q, want %q", body.Message, otpservice.SentMessage)
	}
	if !body.ExpiresAt.After(time.Now()) {
		t.Errorf("expires_at should be in the future, got %v", body.ExpiresAt)
	}
	if n := env.countEvents(t, audit.EventOTPSent); n != 1 {
		t.Errorf("otp_sent events: got %d, want 1", n)
	}
}

func TestSendOTP_BadInput(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})

	tests := []struct {
		name string
		body any
	}{
		{"empty body", nil},
		{"missing mobile", map[string]string{}},
		{"not a number", map[string]string{"mobile_number": "call me"}},
		{"too short", map[string]string{"mobile_number": "12345"}},
		{"unknown field", map[string]string{"mobile_number": testMobile, "extra": "x"}},
		{"malformed", `{"mobile_number":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			env.handler.SendOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/send-otp", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestSendOTP_RateLimitedPerMobile(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	defer limiter.Stop()
	env := newTestEnv(t, limiter, mobileauth.Options{})

	body := map[string]string{"mobile_number": testMobile}

	rec := testutil.NewRecorder()
	env.handler.SendOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/send-otp", body))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	env.handler.SendOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/send-otp", body))
	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertDetail(t, mobileauth.MsgTooManyRequests)

	if n := env.countEvents(t, audit.EventOTPSendFailedRateLimit); n != 1 {
		t.Errorf("rate limit events: got %d, want 1", n)
	}

	// A different number has its own window.
	rec = testutil.NewRecorder()
	env.handler.SendOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/send-otp", map[string]string{
		"mobile_number": "+919999999999",
	}))
	rec.AssertStatus(t, http.StatusOK)
}

func TestVerifyOTP_ClearsSendLimit(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	defer limiter.Stop()
	env := newTestEnv(t, limiter, mobileauth.Options{})

	send := func() int {
		rec := testutil.NewRecorder()
		env.handler.SendOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/send-otp", map[string]string{
			"mobile_number": testMobile,
		}))
		return rec.Code
	}

	if got := send(); got != http.StatusOK {
		t.Fatalf("first send: got %d, want 200", got)
	}
	if got := send(); got != http.StatusTooManyRequests {
		t.Fatalf("second send: got %d, want 429", got)
	}

	rec := testutil.NewRecorder()
	env.handler.VerifyOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/verify-otp", map[string]string{
		"mobile_number": testMobile,
		"otp":           fixedCode,
	}))
	rec.AssertStatus(t, http.StatusOK)

	if got := send(); got != http.StatusOK {
		t.Errorf("send after verification: got %d, want 200", got)
	}
}

func TestVerifyOTP(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})

	rec := testutil.NewRecorder()
	env.handler.SendOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/send-otp", map[string]string{
		"mobile_number": testMobile,
	}))
	rec.AssertStatus(t, http.StatusOK)

	// Wrong code first.
	rec = testutil.NewRecorder()
	env.handler.VerifyOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/verify-otp", map[string]string{
		"mobile_number": testMobile,
		"otp":           "9999",
	}))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertDetail(t, mobileauth.MsgInvalidOTP)

	// Right code.
	rec = testutil.NewRecorder()
	env.handler.VerifyOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/verify-otp", map[string]string{
		"mobile_number": testMobile,
		"otp":           fixedCode,
	}))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Verified bool   `json:"verified"`
		Message  string `json:"message"`
	}
	rec.DecodeJSON(t, &body)
	if !body.Verified {
		t.Error("expected verified=true")
	}
	if body.Message != mobileauth.MsgOTPVerified {
		t.Errorf("message: got %q, want %q", body.Message, mobileauth.MsgOTPVerified)
	}

	// The same code cannot be used twice.
	rec = testutil.NewRecorder()
	env.handler.VerifyOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/verify-otp", map[string]string{
		"mobile_number": testMobile,
		"otp":           fixedCode,
	}))
	rec.AssertStatus(t, http.StatusBadRequest)

	if n := env.countEvents(t, audit.EventOTPVerifyFailed); n != 2 {
		t.Errorf("verify failed events: got %d, want 2", n)
	}
	if n := env.countEvents(t, audit.EventOTPVerified); n != 1 {
		t.Errorf("verified events: got %d, want 1", n)
	}
}

func TestVerifyOTP_NoRecord(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})

	rec := testutil.NewRecorder()
	env.handler.VerifyOTP(rec, testutil.NewJSONRequest(t, "POST", "/auth/verify-otp", map[string]string{
		"mobile_number": testMobile,
		"otp":           fixedCode,
	}))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertDetail(t, mobileauth.MsgInvalidOTP)
}

/*─────────────────────────────────────────────────────────────────────────────*
| register                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := testutil.NewRecorder()
	env.handler.Register(rec, testutil.NewJSONRequest(t, "POST", "/auth/register", map[string]string{
		"name":          "  Asha   <b>Rao</b> ",
		"mobile_number": testMobile,
		"profile_type":  "family_member",
	}))
	rec.AssertStatus(t, http.StatusOK)
	tok := decodeToken(t, rec)

	claims, ok := env.tokens.Verify(tok.AccessToken)
	if !ok {
		t.Fatal("issued token does not verify")
	}
	if claims.MobileNumber != testMobile {
		t.Errorf("claims mobile: got %q, want %q", claims.MobileNumber, testMobile)
	}

	u, err := userstore.New(env.db).GetActiveByMobile(ctx, testMobile)
	if err != nil {
		t.Fatalf("GetActiveByMobile failed: %v", err)
	}
	if u.ID.Hex() != claims.UserID {
		t.Errorf("claims user_id: got %q, want %q", claims.UserID, u.ID.Hex())
	}
	if u.Name != "Asha Rao" {
		t.Errorf("name: got %q, want %q", u.Name, "Asha Rao")
	}
	if !u.IsMobileVerified {
		t.Error("expected is_mobile_verified=true")
	}
	if u.ProfileType != "family_member" {
		t.Errorf("profile_type: got %q, want %q", u.ProfileType, "family_member")
	}
	if n := env.countEvents(t, audit.EventRegisterSuccess); n != 1 {
		t.Errorf("register events: got %d, want 1", n)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	env.fixtures.CreateUser(ctx, "Existing", testMobile)

	rec := testutil.NewRecorder()
	env.handler.Register(rec, testutil.NewJSONRequest(t, "POST", "/auth/register", map[string]string{
		"name":          "Someone Else",
		"mobile_number": testMobile,
	}))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertDetail(t, mobileauth.MsgUserExists)

	if n := env.countEvents(t, audit.EventRegisterFailedDuplicate); n != 1 {
		t.Errorf("duplicate events: got %d, want 1", n)
	}
}

func TestRegister_InactiveUserDoesNotBlock(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	env.fixtures.CreateInactiveUser(ctx, "Old Account", testMobile)

	rec := testutil.NewRecorder()
	env.handler.Register(rec, testutil.NewJSONRequest(t, "POST", "/auth/register", map[string]string{
		"name":          "New Account",
		"mobile_number": testMobile,
	}))
	rec.AssertStatus(t, http.StatusOK)
}

func TestRegister_WithFamily(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := env.fixtures.CreateUser(ctx, "Creator", "+919000000001")
	env.fixtures.CreateFamily(ctx, "ABC1234", creator.ID)

	rec := testutil.NewRecorder()
	env.handler.Register(rec, testutil.NewJSONRequest(t, "POST", "/auth/register", map[string]string{
		"name":          "Joiner",
		"mobile_number": testMobile,
		"family_id":     "abc1234",
	}))
	rec.AssertStatus(t, http.StatusOK)

	u, err := userstore.New(env.db).GetActiveByMobile(ctx, testMobile)
	if err != nil {
		t.Fatalf("GetActiveByMobile failed: %v", err)
	}
	if u.FamilyID == nil || *u.FamilyID != "ABC1234" {
		t.Errorf("family_id: got %v, want ABC1234", u.FamilyID)
	}

	fam, err := familystore.New(env.db).GetByFamilyID(ctx, "ABC1234")
	if err != nil {
		t.Fatalf("GetByFamilyID failed: %v", err)
	}
	if !fam.HasMember(u.ID) {
		t.Error("registered user should be a family member")
	}
}

func TestRegister_UnknownFamily(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := testutil.NewRecorder()
	env.handler.Register(rec, testutil.NewJSONRequest(t, "POST", "/auth/register", map[string]string{
		"name":          "Joiner",
		"mobile_number": testMobile,
		"family_id":     "ZZZ9999",
	}))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertDetail(t, familyservice.MsgFamilyNotFound)

	if _, err := userstore.New(env.db).GetActiveByMobile(ctx, testMobile); err != mongo.ErrNoDocuments {
		t.Errorf("no user should be created, got err=%v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"mobile_number": testMobile}},
		{"markup-only name", map[string]string{"name": "<i></i>", "mobile_number": testMobile}},
		{"bad mobile", map[string]string{"name": "A", "mobile_number": "abc"}},
		{"bad profile type", map[string]string{"name": "A", "mobile_number": testMobile, "profile_type": "cousin"}},
		{"bad email", map[string]string{"name": "A", "mobile_number": testMobile, "email": "nope"}},
		{"bad family code", map[string]string{"name": "A", "mobile_number": testMobile, "family_id": "AB-12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			env.handler.Register(rec, testutil.NewJSONRequest(t, "POST", "/auth/register", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestRegister_RequiresVerifiedOTP(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{RequireVerifiedOTP: true})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	body := map[string]string{"name": "Asha", "mobile_number": testMobile}

	rec := testutil.NewRecorder()
	env.handler.Register(rec, testutil.NewJSONRequest(t, "POST", "/auth/register", body))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertDetail(t, mobileauth.MsgNotVerified)

	// A verification older than the window does not count.
	env.fixtures.CreateVerifiedOTP(ctx, testMobile, time.Now().Add(-time.Hour))
	rec = testutil.NewRecorder()
	env.handler.Register(rec, testutil.NewJSONRequest(t, "POST", "/auth/register", body))
	rec.AssertStatus(t, http.StatusBadRequest)

	env.fixtures.CreateVerifiedOTP(ctx, testMobile, time.Now().Add(-time.Minute))
	rec = testutil.NewRecorder()
	env.handler.Register(rec, testutil.NewJSONRequest(t, "POST", "/auth/register", body))
	rec.AssertStatus(t, http.StatusOK)

	if n := env.countEvents(t, audit.EventRegisterFailedUnverified); n != 2 {
		t.Errorf("unverified events: got %d, want 2", n)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| login / me                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := testutil.NewRecorder()
	env.handler.Login(rec, testutil.NewJSONRequest(t, "POST", "/auth/login", map[string]string{
		"mobile_number": testMobile,
	}))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertDetail(t, mobileauth.MsgUserNotFound)

	u := env.fixtures.CreateUser(ctx, "Asha", testMobile)

	rec = testutil.NewRecorder()
	env.handler.Login(rec, testutil.NewJSONRequest(t, "POST", "/auth/login", map[string]string{
		"mobile_number": "+91 98765 43210",
	}))
	rec.AssertStatus(t, http.StatusOK)
	tok := decodeToken(t, rec)

	claims, ok := env.tokens.Verify(tok.AccessToken)
	if !ok {
		t.Fatal("issued token does not verify")
	}
	if claims.UserID != u.ID.Hex() {
		t.Errorf("user_id: got %q, want %q", claims.UserID, u.ID.Hex())
	}

	if n := env.countEvents(t, audit.EventLoginFailedUserNotFound); n != 1 {
		t.Errorf("login not found events: got %d, want 1", n)
	}
	if n := env.countEvents(t, audit.EventLoginSuccess); n != 1 {
		t.Errorf("login success events: got %d, want 1", n)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	env.fixtures.CreateInactiveUser(ctx, "Gone", testMobile)

	rec := testutil.NewRecorder()
	env.handler.Login(rec, testutil.NewJSONRequest(t, "POST", "/auth/login", map[string]string{
		"mobile_number": testMobile,
	}))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestLogin_RequiresVerifiedOTP(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{RequireVerifiedOTP: true})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	env.fixtures.CreateUser(ctx, "Asha", testMobile)

	rec := testutil.NewRecorder()
	env.handler.Login(rec, testutil.NewJSONRequest(t, "POST", "/auth/login", map[string]string{
		"mobile_number": testMobile,
	}))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertDetail(t, mobileauth.MsgNotVerified)

	if n := env.countEvents(t, audit.EventLoginFailedUnverified); n != 1 {
		t.Errorf("login unverified events: got %d, want 1", n)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := env.fixtures.CreateUser(ctx, "Asha", testMobile)

	rec := testutil.NewRecorder()
	env.handler.Me(rec, testutil.WithUser(testutil.NewJSONRequest(t, "GET", "/auth/me", nil), u))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		MobileNumber string `json:"mobile_number"`
	}
	rec.DecodeJSON(t, &body)
	if body.ID != u.ID.Hex() {
		t.Errorf("id: got %q, want %q", body.ID, u.ID.Hex())
	}
	if body.MobileNumber != testMobile {
		t.Errorf("mobile_number: got %q, want %q", body.MobileNumber, testMobile)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| routed flow                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func TestRoutes_FullFlow(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{RequireVerifiedOTP: true})
	router := mobileauth.Routes(env.handler, env.sm, ratelimit.NewIPLimiter(60, 10))
	protected := env.sm.LoadSessionUser(router)

	do := func(method, path string, body any, bearer string) *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest(t, method, path, body)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := testutil.NewRecorder()
		protected.ServeHTTP(rec, req)
		return rec
	}

	do("GET", "/me", nil, "").AssertStatus(t, http.StatusUnauthorized)

	do("POST", "/send-otp", map[string]string{"mobile_number": testMobile}, "").AssertStatus(t, http.StatusOK)
	do("POST", "/verify-otp", map[string]string{"mobile_number": testMobile, "otp": fixedCode}, "").AssertStatus(t, http.StatusOK)

	rec := do("POST", "/register", map[string]string{"name": "Asha", "mobile_number": testMobile}, "")
	rec.AssertStatus(t, http.StatusOK)
	tok := decodeToken(t, rec)

	rec = do("GET", "/me", nil, tok.AccessToken)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, testMobile)

	do("GET", "/me", nil, "not-a-token").AssertStatus(t, http.StatusUnauthorized)
}

func TestRoutes_IPLimiter(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})
	router := mobileauth.Routes(env.handler, env.sm, ratelimit.NewIPLimiter(1, 1))

	statuses := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := testutil.NewJSONRequest(t, "POST", "/send-otp", map[string]string{"mobile_number": testMobile})
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}
	if statuses[0] != http.StatusOK || statuses[1] != http.StatusTooManyRequests {
		t.Errorf("statuses: got %v, want [200 429]", statuses)
	}
}

func TestRoutes_IPLimiter_IgnoresForwardedFor(t *testing.T) {
	env := newTestEnv(t, nil, mobileauth.Options{})
	router := mobileauth.Routes(env.handler, env.sm, ratelimit.NewIPLimiter(1, 1))

	allowed := 0
	for i := 0; i < 10; i++ {
		req := testutil.NewJSONRequest(t, "POST", "/send-otp", map[string]string{
			"mobile_number": fmt.Sprintf("+91987654%04d", i),
		})
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 1 {
		t.Errorf("allowed: got %d, want 1 (one peer, one bucket)", allowed)
	}
}
