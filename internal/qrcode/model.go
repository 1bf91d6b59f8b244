package qrcode

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Type string

const (
	TypeBasic  Type = "basic"
	TypeSecure Type = "secure"
)

func (t Type) Valid() bool {
	return t == TypeBasic || t == TypeSecure
}

// QRCode is an issued check-in token. At most one row per event is active.
type QRCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   uint      `gorm:"not null;index" json:"event_id"`
	QRData    string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"qr_data"`
	Type      Type      `gorm:"type:varchar(10);not null" json:"type"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	IsActive  bool      `gorm:"not null;index" json:"is_active"`
	CreatedBy *uint     `json:"created_by,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (QRCode) TableName() string {
	return "qr_codes"
}

func (q *QRCode) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// IssueRequest is the body of POST /events/:id/generate-qr.
type IssueRequest struct {
	TTLHours int  `json:"ttl_hours,omitempty"`
	Type     Type `json:"type,omitempty"`
}

// IssuedToken is returned to staff after issuing a token.
type IssuedToken struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	QRCode    *QRCode   `json:"qr_code"`
}

type CheckInWithTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// CheckInResult is the outcome of a token check-in.
type CheckInResult struct {
	EventID        uint      `json:"event_id"`
	UserID         uint      `json:"user_id"`
	CheckInTime    time.Time `json:"check_in_time"`
	AutoRegistered bool      `json:"auto_registered"`
}

// Validation is the outcome of a successful token validation.
type Validation struct {
	EventID    uint      `json:"event_id"`
	EventTitle string    `json:"event_title"`
	ExpiresAt  time.Time `json:"expires_at"`
	IssuedAt   time.Time `json:"issued_at"`
}
