package auditlog_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/drshaadi/internal/app/features/auditlog"
	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	"github.com/dalemusser/drshaadi/internal/app/store/audit"
	"github.com/dalemusser/drshaadi/internal/domain/models"
	"github.com/dalemusser/drshaadi/internal/testutil"
	"go.uber.org/zap"
)

type listBody struct {
	Events []struct {
		EventType string `json:"event_type"`
		Category  string `json:"category"`
		IP        string `json:"ip"`
	} `json:"events"`
	Page       int   `json:"page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func setup(t *testing.T) (*auditlog.Handler, *audit.Store, models.User, models.User) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	asha := fx.CreateUser(ctx, "Asha", "9876543210")
	ravi := fx.CreateUser(ctx, "Ravi", "9876543211")

	logger := zap.NewNop()
	h := auditlog.NewHandler(db, uierrors.NewErrorLogger(logger, false), logger)
	return h, audit.New(db), asha, ravi
}

func logEvent(t *testing.T, s *audit.Store, u models.User, category, eventType string, at time.Time) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	id := u.ID
	if err := s.Log(ctx, audit.Event{
		Timestamp: at,
		Category:  category,
		EventType: eventType,
		UserID:    &id,
		IP:        "203.0.113.7",
		Success:   true,
	}); err != nil {
		t.Fatalf("log event: %v", err)
	}
}

func TestServeList_OwnEventsOnly(t *testing.T) {
	h, store, asha, ravi := setup(t)
	now := time.Now().UTC()

	logEvent(t, store, asha, audit.CategoryAuth, audit.EventLoginSuccess, now.Add(-2*time.Hour))
	logEvent(t, store, asha, audit.CategoryFamily, audit.EventFamilyCreated, now.Add(-time.Hour))
	logEvent(t, store, ravi, audit.CategoryAuth, audit.EventLoginSuccess, now)

	req := testutil.WithUser(testutil.NewJSONRequest(t, "GET", "/", nil), asha)
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body listBody
	rec.DecodeJSON(t, &body)
	if body.Total != 2 || len(body.Events) != 2 {
		t.Fatalf("events: got total=%d len=%d, want 2", body.Total, len(body.Events))
	}
	if body.Events[0].EventType != audit.EventFamilyCreated {
		t.Errorf("first event: got %q, want newest %q", body.Events[0].EventType, audit.EventFamilyCreated)
	}
	if body.Events[0].IP != "203.0.113.7" {
		t.Errorf("ip: got %q, want %q", body.Events[0].IP, "203.0.113.7")
	}
	if body.Page != 1 || body.TotalPages != 1 {
		t.Errorf("paging: got page=%d total_pages=%d, want 1/1", body.Page, body.TotalPages)
	}
}

func TestServeList_Filters(t *testing.T) {
	h, store, asha, _ := setup(t)
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	logEvent(t, store, asha, audit.CategoryAuth, audit.EventOTPSent, day.AddDate(0, 0, -5))
	logEvent(t, store, asha, audit.CategoryAuth, audit.EventLoginSuccess, day)
	logEvent(t, store, asha, audit.CategoryProfile, audit.EventProfileUpdated, day)

	tests := []struct {
		name  string
		query string
		want  int64
	}{
		{"all", "", 3},
		{"category", "?category=auth", 2},
		{"event type", "?event_type=profile_updated", 1},
		{"date range", "?start_date=2026-03-10&end_date=2026-03-10", 2},
		{"category and date", "?category=auth&start_date=2026-03-01", 1},
		{"beyond last page", "?page=3", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.NewJSONRequest(t, "GET", "/"+tt.query, nil), asha)
			rec := testutil.NewRecorder()
			h.ServeList(rec, req)
			rec.AssertStatus(t, http.StatusOK)

			var body listBody
			rec.DecodeJSON(t, &body)
			if body.Total != tt.want {
				t.Errorf("total: got %d, want %d", body.Total, tt.want)
			}
		})
	}
}

func TestServeList_HugePageIsClamped(t *testing.T) {
	h, store, asha, _ := setup(t)
	logEvent(t, store, asha, audit.CategoryAuth, audit.EventLoginSuccess, time.Now().UTC())

	for _, page := range []string{"4611686018427387904", "9223372036854775807"} {
		req := testutil.WithUser(testutil.NewJSONRequest(t, "GET", "/?page="+page, nil), asha)
		rec := testutil.NewRecorder()
		h.ServeList(rec, req)
		rec.AssertStatus(t, http.StatusOK)

		var body listBody
		rec.DecodeJSON(t, &body)
		if len(body.Events) != 0 || body.Total != 1 {
			t.Errorf("page %s: got %d events total=%d, want an empty page of 1", page, len(body.Events), body.Total)
		}
		if body.Page <= 0 || body.Page > 100000 {
			t.Errorf("page %s: echoed page %d, want it clamped", page, body.Page)
		}
	}
}

func TestServeList_BadInput(t *testing.T) {
	h, _, asha, _ := setup(t)

	for _, query := range []string{"?category=billing", "?start_date=10-03-2026", "?end_date=tomorrow"} {
		req := testutil.WithUser(testutil.NewJSONRequest(t, "GET", "/"+query, nil), asha)
		rec := testutil.NewRecorder()
		h.ServeList(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: got %d, want %d", query, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestServeList_Unauthenticated(t *testing.T) {
	h, _, _, _ := setup(t)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewJSONRequest(t, "GET", "/", nil))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
