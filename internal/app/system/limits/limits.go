// internal/app/system/limits/limits.go
package limits

// Request body size limits for JSON endpoints.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxAuthBodySize covers OTP, register and login payloads.
	MaxAuthBodySize = 4 << 10 // 4 KB

	// MaxFamilyBodySize covers join and process-request payloads.
	MaxFamilyBodySize = 4 << 10 // 4 KB

	// MaxProfileBodySize covers the nested profile document.
	MaxProfileBodySize = 64 << 10 // 64 KB
)

// Field length limits for profile text.
const (
	MaxProfileFieldLen = 200
	MaxNameLen         = 200
)
