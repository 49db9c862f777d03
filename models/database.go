package models

import (
	"time"

	"gorm.io/gorm"
)

// DeviceHistory is one recorded redemption by a device. The guard matches
// on fingerprint, originating IP and WebRTC-derived IPs within time windows
// keyed off CreatedAt.
type DeviceHistory struct {
	gorm.Model
	Fingerprint string `json:"fingerprint" gorm:"index"`
	IP          string `json:"ip" gorm:"index"`
	WebRTCIPs   string `json:"webRTCIPs"` // comma-joined
	UserID      string `json:"userID" gorm:"index"`
	Department  string `json:"department"`
	Semester    string `json:"semester"`
	Section     string `json:"section"`
}

// SuspiciousUser is a permanent flag set after confirmed fraud, checked
// before any grid interaction.
type SuspiciousUser struct {
	gorm.Model
	UserID   string `json:"userID" gorm:"uniqueIndex"`
	Evidence string `json:"evidence"`
}

// RedemptionAudit is the per-commit audit trail entry.
type RedemptionAudit struct {
	gorm.Model
	AuditID     string    `json:"auditID" gorm:"uniqueIndex"`
	UserID      string    `json:"userID" gorm:"index"`
	Identifier  string    `json:"identifier"`
	Fingerprint string    `json:"fingerprint"`
	IP          string    `json:"ip"`
	Department  string    `json:"department"`
	Semester    string    `json:"semester"`
	Section     string    `json:"section"`
	RedeemedAt  time.Time `json:"redeemedAt"`
}

// SessionReport is written once per ended session. Present and Absent hold
// comma-joined identifier lists.
type SessionReport struct {
	gorm.Model
	Department string    `json:"department"`
	Semester   string    `json:"semester"`
	Section    string    `json:"section"`
	FacultyID  string    `json:"facultyID"`
	Total      int       `json:"total"`
	Present    string    `json:"present"`
	Absent     string    `json:"absent"`
	EndedAt    time.Time `json:"endedAt"`
}
