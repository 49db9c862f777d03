package fraud

import (
	"context"
	"strings"
	"time"

	"github.com/QuickRoll12/quickroll-backend/models"
)

// JoinIPs packs WebRTC IPs into the comma-joined column form.
func JoinIPs(ips []string) string {
	return strings.Join(ips, ",")
}

// SplitIPs unpacks the comma-joined column form.
func SplitIPs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Filter selects device-history records. The device fields (Fingerprint,
// AnyIP) are OR'd: a record matches the device part when its fingerprint
// equals Filter.Fingerprint or any of its IPs (originating or WebRTC)
// appears in AnyIP. UserID and the class-context fields, when set, are
// AND'd on top. Zero fields are wildcards.
type Filter struct {
	Fingerprint string
	AnyIP       []string
	UserID      string
	Department  string
	Semester    string
	Section     string
}

// Store is the external short-TTL device-history and fraud-flag store. The
// core only needs read-then-conditionally-write semantics from it; a racing
// write is a rare false-negative, not a safety violation.
type Store interface {
	FindRecent(ctx context.Context, filter Filter, window time.Duration) ([]models.DeviceHistory, error)
	Insert(ctx context.Context, record models.DeviceHistory) error
	IsSuspicious(ctx context.Context, userID string) (bool, error)
	FlagSuspicious(ctx context.Context, userID, evidence string) error
}
