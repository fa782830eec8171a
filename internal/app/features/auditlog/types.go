// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/drshaadi/internal/app/store/audit"
)

// listItem is one audit event as returned to its owner. The IP is kept so
// users can spot sign-ins they do not recognise.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	FamilyID      string            `json:"family_id,omitempty"`
	IP            string            `json:"ip"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Events     []listItem `json:"events"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"total_pages"`
}

func toItem(e audit.Event) listItem {
	return listItem{
		ID:            e.ID.Hex(),
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		FamilyID:      e.FamilyID,
		IP:            e.IP,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
}

// validCategory reports whether c is empty or a known event category.
func validCategory(c string) bool {
	switch c {
	case "", audit.CategoryAuth, audit.CategoryFamily, audit.CategoryProfile:
		return true
	}
	return false
}
