package redemption

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/QuickRoll12/quickroll-backend/fraud"
	"github.com/QuickRoll12/quickroll-backend/grid"
	"github.com/QuickRoll12/quickroll-backend/models"
	"github.com/QuickRoll12/quickroll-backend/sessions"
)

var rollPattern = regexp.MustCompile(`^[0-9]{2}$`)

// ProfileProvider resolves a user id to the identity attached to a claimed
// slot.
type ProfileProvider interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
}

// PhotoVerifier is the verification hook. A nil error means verified.
type PhotoVerifier interface {
	Verify(ctx context.Context, photoRef, referencePhotoRef string) error
}

// AuditSink records one entry per committed redemption.
type AuditSink interface {
	RecordAudit(ctx context.Context, entry models.RedemptionAudit) error
}

// Result is a successful redemption: the claimed coordinates and the grid
// snapshot to broadcast.
type Result struct {
	Identifier string    `json:"identifier"`
	Row        int       `json:"row"`
	Col        int       `json:"col"`
	Grid       grid.View `json:"grid"`
}

// Pipeline runs a redemption attempt through validation, claim, fraud
// checks and commit. Any rejection after a successful claim releases the
// slot before returning, so a rejected attempt leaves the grid exactly as
// it found it.
type Pipeline struct {
	registry *sessions.Registry
	guard    *fraud.Guard
	store    fraud.Store
	geo      fraud.Resolver
	profiles ProfileProvider
	photos   PhotoVerifier
	audit    AuditSink
	observer sessions.Observer

	recentWindow   time.Duration // window for per-user / per-device recency checks
	allowedCountry string
	requirePhoto   bool
}

func NewPipeline(
	registry *sessions.Registry,
	guard *fraud.Guard,
	store fraud.Store,
	geo fraud.Resolver,
	profiles ProfileProvider,
	photos PhotoVerifier,
	audit AuditSink,
	observer sessions.Observer,
	recentWindow time.Duration,
	allowedCountry string,
	requirePhoto bool,
) *Pipeline {
	return &Pipeline{
		registry:       registry,
		guard:          guard,
		store:          store,
		geo:            geo,
		profiles:       profiles,
		photos:         photos,
		audit:          audit,
		observer:       observer,
		recentWindow:   recentWindow,
		allowedCountry: allowedCountry,
		requirePhoto:   requirePhoto,
	}
}

// Redeem runs one attempt. It returns *Rejection for every policy outcome
// in the taxonomy and a plain error for internal failures. The session
// mutex is held for the whole attempt, so claims, rollbacks and presence
// updates cannot interleave with rotation or other attempts on the same key.
func (p *Pipeline) Redeem(ctx context.Context, req models.RedeemRequest) (*Result, error) {
	key := sessions.Key{Department: req.Department, Semester: req.Semester, Section: req.Section}
	s, ok := p.registry.Lookup(key)
	if !ok {
		return nil, reject(SessionInactive, "no active session for %s", key.String())
	}

	s.Mu.Lock()
	result, err := p.run(ctx, s, req)
	s.Mu.Unlock()
	if err != nil {
		return nil, err
	}

	if p.observer != nil {
		p.observer.OnGridUpdated(key, result.Grid)
	}
	return result, nil
}

// run executes the attempt with s.Mu held.
func (p *Pipeline) run(ctx context.Context, s *sessions.Session, req models.RedeemRequest) (*Result, error) {
	if !s.Active {
		return nil, reject(SessionInactive, "session for %s has ended", s.Key.String())
	}

	// Validating: structural checks, no grid interaction.
	if req.Code == "" || req.DeviceFingerprint == "" || req.UserID == "" {
		return nil, reject(InvalidInput, "code, device fingerprint and user id are required")
	}
	identifier, profile, rej := p.resolveIdentifier(ctx, s, req)
	if rej != nil {
		return nil, rej
	}

	// Pre-claim rejects: suspicious flag and duplicate presence.
	flagged, err := p.store.IsSuspicious(ctx, req.UserID)
	if err != nil {
		// Store trouble here is an availability problem, not a fraud
		// signal; treat the user as unflagged.
		log.Printf("suspicious-flag lookup failed for %s: %v", req.UserID, err)
	} else if flagged {
		return nil, reject(SuspiciousUser, "attendance blocked: account flagged for suspicious activity")
	}
	if _, present := s.Present[identifier]; present {
		return nil, reject(AlreadyMarked, "%s is already marked present", identifier)
	}

	// Claiming: the single point where double redemption is prevented.
	row, col, claimed := s.Grid.Claim(req.Code)
	if !claimed {
		return nil, reject(InvalidOrUsedCode, "code is invalid or already used")
	}

	// Everything past this point must release the slot on rejection.
	if rej := p.fraudChecks(ctx, s, req); rej != nil {
		s.Grid.Release(row, col)
		return nil, rej
	}

	// Committing: attach identity, verify photo, audit, mark present.
	if profile == nil {
		resolved, err := p.profiles.GetProfile(ctx, req.UserID)
		if err != nil {
			s.Grid.Release(row, col)
			return nil, fmt.Errorf("resolve profile for %s: %w", req.UserID, err)
		}
		profile = &resolved
	}
	if p.requirePhoto && req.PhotoRef != "" && p.photos != nil {
		if err := p.photos.Verify(ctx, req.PhotoRef, profile.PhotoRef); err != nil {
			s.Grid.Release(row, col)
			return nil, reject(PhotoVerificationFailed, "photo verification failed: %v", err)
		}
	}
	s.Grid.Attach(row, col, grid.Identity{
		Name:        profile.Name,
		RollOrEmail: identifier,
		PhotoRef:    profile.PhotoRef,
	})
	if p.audit != nil {
		entry := models.RedemptionAudit{
			AuditID:     uuid.NewString(),
			UserID:      req.UserID,
			Identifier:  identifier,
			Fingerprint: req.DeviceFingerprint,
			IP:          req.IP,
			Department:  req.Department,
			Semester:    req.Semester,
			Section:     req.Section,
			RedeemedAt:  time.Now(),
		}
		if err := p.audit.RecordAudit(ctx, entry); err != nil {
			log.Printf("audit write failed for %s: %v", req.UserID, err)
		}
	}
	s.Present[identifier] = struct{}{}
	log.Println(identifier, "marked present in", s.Key.String())

	return &Result{Identifier: identifier, Row: row, Col: col, Grid: s.Grid.Snapshot()}, nil
}

// resolveIdentifier validates the identity fields for the session type. For
// Gmail sessions it may fall back to the caller's profile email, in which
// case the fetched profile is returned for reuse at commit.
func (p *Pipeline) resolveIdentifier(ctx context.Context, s *sessions.Session, req models.RedeemRequest) (string, *models.Profile, *Rejection) {
	if s.Type == sessions.Roll {
		roll := strings.TrimSpace(req.Identifier)
		if !rollPattern.MatchString(roll) {
			return "", nil, reject(InvalidInput, "roll must be a two-digit number")
		}
		n, _ := strconv.Atoi(roll)
		if n < 1 || n > s.Capacity {
			return "", nil, reject(InvalidInput, "roll %s is outside class capacity %d", roll, s.Capacity)
		}
		return roll, nil, nil
	}

	email := strings.TrimSpace(req.Identifier)
	if email == "" {
		profile, err := p.profiles.GetProfile(ctx, req.UserID)
		if err != nil {
			return "", nil, reject(InvalidInput, "no email supplied and profile lookup failed")
		}
		if profile.Email == "" {
			return "", nil, reject(InvalidInput, "no email on record for this account")
		}
		return strings.ToLower(profile.Email), &profile, nil
	}
	if !strings.Contains(email, "@") {
		return "", nil, reject(InvalidInput, "%q is not an email address", email)
	}
	return strings.ToLower(email), nil, nil
}

// fraudChecks runs the post-claim checks in their fixed order. A non-nil
// return means the caller must roll the claim back.
func (p *Pipeline) fraudChecks(ctx context.Context, s *sessions.Session, req models.RedeemRequest) *Rejection {
	class := fraud.Context{Department: req.Department, Semester: req.Semester, Section: req.Section}

	// a. Same user already redeemed in this class recently.
	records, err := p.store.FindRecent(ctx, fraud.Filter{
		UserID:     req.UserID,
		Department: class.Department,
		Semester:   class.Semester,
		Section:    class.Section,
	}, p.recentWindow)
	if err != nil {
		log.Printf("device history lookup failed: %v", err)
	} else if len(records) > 0 {
		return reject(DeviceRecentlyUsed, "you already redeemed a code for this class in the last %s", p.recentWindow)
	}

	// b. A different identity shares a WebRTC-derived IP in the window.
	if len(req.WebRTCIPs) > 0 {
		records, err = p.store.FindRecent(ctx, fraud.Filter{AnyIP: req.WebRTCIPs}, p.recentWindow)
		if err != nil {
			log.Printf("device history lookup failed: %v", err)
		} else {
			for _, rec := range records {
				if rec.UserID != req.UserID {
					return reject(MultipleAttemptsDetected, "multiple attendance attempts detected from this network identity")
				}
			}
		}
	}

	// c. Same fingerprint on cooldown from a different session context.
	records, err = p.store.FindRecent(ctx, fraud.Filter{Fingerprint: req.DeviceFingerprint}, p.recentWindow)
	if err != nil {
		log.Printf("device history lookup failed: %v", err)
	} else {
		for _, rec := range records {
			if rec.Department != class.Department || rec.Semester != class.Semester || rec.Section != class.Section {
				return reject(DeviceCooldown, "this device recently redeemed a code for another class, try later")
			}
		}
	}

	// d. Geo-IP restriction. Provider failures are non-fatal; a confirmed
	// out-of-region origin flags the user permanently.
	if req.IP != "" && p.geo != nil {
		country, err := p.geo.ResolveCountry(ctx, req.IP)
		if err != nil {
			log.Printf("geo lookup failed for %s: %v", req.IP, err)
		} else if !strings.EqualFold(country, p.allowedCountry) {
			evidence := fmt.Sprintf("redeemed from %s (ip %s) at %s", country, req.IP, time.Now().Format(time.RFC3339))
			if err := p.store.FlagSuspicious(ctx, req.UserID, evidence); err != nil {
				log.Printf("failed to flag %s: %v", req.UserID, err)
			}
			return reject(RegionRestricted, "attendance is restricted to %s", p.allowedCountry)
		}
	}

	// e. Device guard policy; records the attempt on allow.
	err = p.guard.Evaluate(ctx, fraud.Device{
		Fingerprint: req.DeviceFingerprint,
		WebRTCIPs:   req.WebRTCIPs,
		IP:          req.IP,
	}, req.UserID, class)
	if denial, ok := err.(*fraud.Denial); ok {
		return reject(DeviceDenied, "%s", denial.Reason)
	}
	if err != nil {
		log.Printf("device guard failed: %v", err)
	}

	// f. The originating IP already redeemed for this session. The guard
	// just recorded this user's own attempt, so only other users count.
	if req.IP != "" {
		window := time.Since(s.StartedAt)
		records, err = p.store.FindRecent(ctx, fraud.Filter{
			AnyIP:      []string{req.IP},
			Department: class.Department,
			Semester:   class.Semester,
			Section:    class.Section,
		}, window)
		if err != nil {
			log.Printf("device history lookup failed: %v", err)
		} else {
			for _, rec := range records {
				if rec.UserID != req.UserID {
					return reject(DuplicateDeviceForSession, "another student already redeemed from this device for this session")
				}
			}
		}
	}

	return nil
}
