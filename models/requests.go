package models

// StartSessionRequest opens an attendance session for one class section.
type StartSessionRequest struct {
	Department  string `json:"department" binding:"required"`
	Semester    string `json:"semester" binding:"required"`
	Section     string `json:"section" binding:"required"`
	Capacity    int    `json:"capacity"`
	SessionType string `json:"sessionType" binding:"required"` // "roll" or "gmail"
	FacultyID   string `json:"facultyID"`
}

// RedeemRequest is one student's attempt to redeem a displayed code.
type RedeemRequest struct {
	Department        string   `json:"department" binding:"required"`
	Semester          string   `json:"semester" binding:"required"`
	Section           string   `json:"section" binding:"required"`
	Identifier        string   `json:"identifier"` // two-digit roll or email
	Code              string   `json:"code" binding:"required"`
	DeviceFingerprint string   `json:"deviceFingerprint" binding:"required"`
	WebRTCIPs         []string `json:"webRTCIPs"`
	UserID            string   `json:"userID" binding:"required"`
	IP                string   `json:"ip"`
	PhotoRef          string   `json:"photoRef"`
}

// SessionActionRequest addresses an existing session (end, refresh codes).
type SessionActionRequest struct {
	Department string `json:"department" binding:"required"`
	Semester   string `json:"semester" binding:"required"`
	Section    string `json:"section" binding:"required"`
}

// ViolationRequest demotes one identity from a running session.
type ViolationRequest struct {
	Department string `json:"department" binding:"required"`
	Semester   string `json:"semester" binding:"required"`
	Section    string `json:"section" binding:"required"`
	Identifier string `json:"identifier" binding:"required"`
}
