package registration

import "time"

type Status string

// StatusConfirmed is the only status: there is no waitlist.
const StatusConfirmed Status = "CONFIRMED"

// Registration holds one capacity slot of an event for one user.
type Registration struct {
	EventID          uint      `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	UserID           uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	Status           Status    `gorm:"type:varchar(20);not null" json:"status"`
	RegistrationDate time.Time `gorm:"not null" json:"registration_date"`
}

func (r *Registration) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

// RegistrationRequest lets staff act on behalf of another user. Members omit it.
type RegistrationRequest struct {
	UserID *uint `json:"user_id,omitempty"`
}
