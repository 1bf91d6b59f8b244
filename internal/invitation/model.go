package invitation

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusExpired  = "expired"
)

// Invitation is a pending onboarding offer for a contact that has no
// account yet. A contact holds at most one pending invitation; the partial
// unique indexes on email and phone enforce it.
type Invitation struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Token      string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Email      *string        `gorm:"type:varchar(255);uniqueIndex:uq_invitations_pending_email,where:status = 'pending'" json:"email,omitempty"`
	Phone      *string        `gorm:"type:varchar(32);uniqueIndex:uq_invitations_pending_phone,where:status = 'pending'" json:"phone,omitempty"`
	Role       string         `gorm:"type:varchar(20);not null" json:"role"`
	Status     string         `gorm:"type:varchar(20);not null;index" json:"status"`
	InvitedBy  uint           `gorm:"not null" json:"invited_by"`
	UserID     *uint          `json:"user_id,omitempty"`
	ExpiresAt  time.Time      `gorm:"not null" json:"expires_at"`
	AcceptedAt *time.Time     `json:"accepted_at,omitempty"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// RequiresOTP is true when the invitation went out by SMS.
func (i *Invitation) RequiresOTP() bool {
	return i.Phone != nil && *i.Phone != ""
}

type InviteRequest struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

type AcceptRequest struct {
	Token    string `json:"token" binding:"required"`
	OTP      string `json:"otp"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}
