package redemption

import "fmt"

// Kind names a rejection category. Kinds are stable strings so transport
// layers can map them without parsing messages.
type Kind string

const (
	InvalidInput              Kind = "INVALID_INPUT"
	SessionInactive           Kind = "SESSION_INACTIVE"
	SuspiciousUser            Kind = "SUSPICIOUS_USER"
	AlreadyMarked             Kind = "ALREADY_MARKED"
	InvalidOrUsedCode         Kind = "INVALID_OR_USED_CODE"
	DeviceRecentlyUsed        Kind = "DEVICE_RECENTLY_USED"
	MultipleAttemptsDetected  Kind = "MULTIPLE_ATTEMPTS_DETECTED"
	DeviceCooldown            Kind = "DEVICE_COOLDOWN"
	RegionRestricted          Kind = "REGION_RESTRICTED"
	DeviceDenied              Kind = "DEVICE_DENIED"
	DuplicateDeviceForSession Kind = "DUPLICATE_DEVICE_FOR_SESSION"
	PhotoVerificationFailed   Kind = "PHOTO_VERIFICATION_FAILED"
)

// Rejection is a terminal outcome of a redemption attempt with a reason
// safe to surface verbatim. Rejections are never retried automatically.
type Rejection struct {
	Kind    Kind
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(kind Kind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
