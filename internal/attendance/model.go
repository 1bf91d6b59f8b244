package attendance

import "time"

type Status string

// Only CHECKED_IN and CHECKED_OUT are reached by transitions. REGISTERED and
// NO_SHOW are reserved for reporting.
const (
	StatusRegistered Status = "REGISTERED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusNoShow     Status = "NO_SHOW"
)

// Method records which path produced the check-in.
type Method string

const (
	MethodStaff Method = "staff"
	MethodSelf  Method = "self"
	MethodQR    Method = "qr"
)

// Attendance is the check-in record of one user at one event. It is never
// deleted, and CHECKED_OUT is terminal.
type Attendance struct {
	EventID      uint       `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	UserID       uint       `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Status       Status     `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`
	Method       Method     `gorm:"type:varchar(10)" json:"method,omitempty"`
	CheckedInBy  *uint      `json:"checked_in_by,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CheckInInput describes one check-in attempt.
type CheckInInput struct {
	EventID uint
	UserID  uint
	ActorID uint
	Notes   string
	Method  Method
}

type CheckInRequest struct {
	EventID uint   `json:"event_id" binding:"required"`
	UserID  *uint  `json:"user_id,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type CheckOutRequest struct {
	EventID uint    `json:"event_id" binding:"required"`
	UserID  *uint   `json:"user_id,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

type Summary struct {
	EventID    uint  `json:"event_id"`
	Registered int64 `json:"registered"`
	CheckedIn  int64 `json:"checked_in"`
	CheckedOut int64 `json:"checked_out"`
	Attended   int64 `json:"attended"`
}
