package database

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/QuickRoll12/quickroll-backend/fraud"
	"github.com/QuickRoll12/quickroll-backend/models"
)

// FindRecent returns device-history records created inside the window that
// match the filter. The time bound is pushed to the database; the OR'd
// device matching stays in Go where the comma-joined WebRTC column can be
// compared properly.
func (s *Store) FindRecent(ctx context.Context, filter fraud.Filter, window time.Duration) ([]models.DeviceHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-window)
	var records []models.DeviceHistory
	if err := s.db.WithContext(ctx).Where("created_at > ?", cutoff).Find(&records).Error; err != nil {
		return nil, err
	}

	matched := records[:0]
	for _, rec := range records {
		if matches(filter, rec) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

func matches(f fraud.Filter, rec models.DeviceHistory) bool {
	if f.Fingerprint != "" || len(f.AnyIP) > 0 {
		deviceHit := f.Fingerprint != "" && rec.Fingerprint == f.Fingerprint
		if !deviceHit && len(f.AnyIP) > 0 {
			recIPs := append(fraud.SplitIPs(rec.WebRTCIPs), rec.IP)
			for _, want := range f.AnyIP {
				for _, have := range recIPs {
					if want != "" && want == have {
						deviceHit = true
					}
				}
			}
		}
		if !deviceHit {
			return false
		}
	}
	if f.UserID != "" && rec.UserID != f.UserID {
		return false
	}
	if f.Department != "" && rec.Department != f.Department {
		return false
	}
	if f.Semester != "" && rec.Semester != f.Semester {
		return false
	}
	if f.Section != "" && rec.Section != f.Section {
		return false
	}
	return true
}

// Insert appends one device-history record.
func (s *Store) Insert(ctx context.Context, record models.DeviceHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.WithContext(ctx).Create(&record).Error
}

// IsSuspicious reports whether the user carries the permanent fraud flag.
func (s *Store) IsSuspicious(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flag models.SuspiciousUser
	err := s.db.WithContext(ctx).First(&flag, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FlagSuspicious sets the permanent fraud flag. Flagging an already
// flagged user keeps the original evidence.
func (s *Store) FlagSuspicious(ctx context.Context, userID, evidence string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Println("flagging user as suspicious:", userID)
	flag := models.SuspiciousUser{UserID: userID, Evidence: evidence}
	return s.db.WithContext(ctx).Where("user_id = ?", userID).FirstOrCreate(&flag).Error
}

// RecordAudit appends one committed-redemption audit entry.
func (s *Store) RecordAudit(ctx context.Context, entry models.RedemptionAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.WithContext(ctx).Create(&entry).Error
}
