package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/QuickRoll12/quickroll-backend/models"
)

// Device is the client-derived identity of the redeeming machine.
type Device struct {
	Fingerprint string
	WebRTCIPs   []string
	IP          string
}

// Context is the class context a redemption happens in.
type Context struct {
	Department string
	Semester   string
	Section    string
}

// Denial is a policy rejection with a reason fit to show the user.
type Denial struct {
	Reason string
}

func (d *Denial) Error() string {
	return d.Reason
}

// Guard applies the device-sharing policy against the history store.
type Guard struct {
	store           Store
	cooldown        time.Duration // window for the different-user check
	multiUserWindow time.Duration // window for the distinct-users cap
	userCap         int           // max distinct other users per device
}

func NewGuard(store Store, cooldown, multiUserWindow time.Duration, userCap int) *Guard {
	return &Guard{
		store:           store,
		cooldown:        cooldown,
		multiUserWindow: multiUserWindow,
		userCap:         userCap,
	}
}

// Evaluate allows or denies a redemption for this device and user. On
// allow it records the new device-history entry before returning, so the
// next evaluation observes it. Returns nil on allow, *Denial on deny, any
// other error on store failure.
func (g *Guard) Evaluate(ctx context.Context, device Device, userID string, class Context) error {
	filter := Filter{
		Fingerprint: device.Fingerprint,
		AnyIP:       append(append([]string{}, device.WebRTCIPs...), device.IP),
	}

	recent, err := g.store.FindRecent(ctx, filter, g.cooldown)
	if err != nil {
		return fmt.Errorf("device history lookup: %w", err)
	}
	for _, rec := range recent {
		if rec.UserID == userID {
			continue
		}
		wait := g.cooldown - time.Since(rec.CreatedAt)
		if wait < 0 {
			wait = 0
		}
		return &Denial{Reason: fmt.Sprintf(
			"this device was used by %s recently, wait %s before reusing it",
			rec.UserID, wait.Round(time.Second))}
	}

	older, err := g.store.FindRecent(ctx, filter, g.multiUserWindow)
	if err != nil {
		return fmt.Errorf("device history lookup: %w", err)
	}
	others := make(map[string]struct{})
	for _, rec := range older {
		if rec.UserID != userID {
			others[rec.UserID] = struct{}{}
		}
	}
	if len(others) >= g.userCap {
		return &Denial{Reason: "device used by multiple users"}
	}

	record := models.DeviceHistory{
		Fingerprint: device.Fingerprint,
		IP:          device.IP,
		WebRTCIPs:   JoinIPs(device.WebRTCIPs),
		UserID:      userID,
		Department:  class.Department,
		Semester:    class.Semester,
		Section:     class.Section,
	}
	if err := g.store.Insert(ctx, record); err != nil {
		return fmt.Errorf("record device history: %w", err)
	}
	return nil
}
