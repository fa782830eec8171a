// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/drshaadi/internal/app/features/errors"
	"github.com/dalemusser/drshaadi/internal/app/store/audit"
	"github.com/dalemusser/drshaadi/internal/app/system/apperr"
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/app/system/timeouts"
)

const pageSize = 50

// maxPage bounds the page parameter so the skip offset cannot overflow.
const maxPage = 100000

// ServeList handles GET /activity/ - the caller's audit events, newest
// first, filtered by category, event_type and start_date/end_date
// (YYYY-MM-DD, inclusive).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.CurrentUserID(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	if !validCategory(category) {
		h.ErrLog.Write(w, r, apperr.Invalid("unknown category "+strconv.Quote(category)))
		return
	}

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = min(p, maxPage)
	}

	filter := audit.QueryFilter{
		UserID:    &uid,
		Category:  category,
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.ErrLog.Write(w, r, apperr.Invalid("start_date must be YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.ErrLog.Write(w, r, apperr.Invalid("end_date must be YYYY-MM-DD"))
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.Write(w, r, apperr.FromStore(err, "no activity"))
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.Write(w, r, apperr.FromStore(err, "no activity"))
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, toItem(e))
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	uierrors.JSON(w, http.StatusOK, listResponse{
		Events:     items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}
