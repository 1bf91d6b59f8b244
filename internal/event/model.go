package event

import (
	"time"

	"github.com/ummahconnect/community-backend/internal/apperr"
)

type Category string

const (
	CategoryPrayer    Category = "PRAYER"
	CategoryLecture   Category = "LECTURE"
	CategoryCommunity Category = "COMMUNITY"
	CategoryEducation Category = "EDUCATION"
	CategoryCharity   Category = "CHARITY"
	CategorySocial    Category = "SOCIAL"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPrayer, CategoryLecture, CategoryCommunity, CategoryEducation, CategoryCharity, CategorySocial:
		return true
	}
	return false
}

// ============================
// 🔷 GORM Event Model
//
// CurrentAttendees counts confirmed registrations. It is only changed through
// Repository.IncrementAttendees and Repository.DecrementAttendees.
type Event struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Title                string     `gorm:"type:varchar(255);not null" json:"title"`
	Description          string     `gorm:"type:text" json:"description"`
	Location             string     `gorm:"type:text" json:"location"`
	Category             Category   `gorm:"type:varchar(20);not null;index" json:"category"`
	StartDate            time.Time  `gorm:"not null;index" json:"start_date"`
	EndDate              time.Time  `gorm:"not null" json:"end_date"`
	MaxAttendees         *int       `json:"max_attendees,omitempty"`
	CurrentAttendees     int        `gorm:"not null;default:0" json:"current_attendees"`
	RegistrationRequired bool       `gorm:"not null" json:"registration_required"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	IsActive             bool       `gorm:"not null;index" json:"is_active"`
	CreatedBy            uint       `gorm:"not null;index" json:"created_by"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CheckOpenForRegistration reports why a new registration would be refused,
// ignoring capacity and duplicates. Walk-in registrations happen at check-in
// time, so the event having started does not block them.
func (e *Event) CheckOpenForRegistration(now time.Time, walkIn bool) error {
	if !e.IsActive {
		return apperr.ErrEventInactive
	}
	if !e.RegistrationRequired {
		return apperr.ErrRegistrationNotRequired
	}
	if !walkIn && !now.Before(e.StartDate) {
		return apperr.ErrEventAlreadyStarted
	}
	if e.RegistrationDeadline != nil && now.After(*e.RegistrationDeadline) {
		return apperr.ErrDeadlinePassed
	}
	return nil
}

// CheckOpenForCheckIn requires an active event with now inside [StartDate, EndDate].
func (e *Event) CheckOpenForCheckIn(now time.Time) error {
	if !e.IsActive {
		return apperr.ErrEventInactive
	}
	if now.Before(e.StartDate) {
		return apperr.ErrEventNotStarted
	}
	if now.After(e.EndDate) {
		return apperr.ErrEventEnded
	}
	return nil
}

// IsFull reports whether every capacity slot is taken.
func (e *Event) IsFull() bool {
	return e.MaxAttendees != nil && e.CurrentAttendees >= *e.MaxAttendees
}

// Validate checks the fields a client controls.
func (e *Event) Validate() error {
	switch {
	case e.Title == "":
		return apperr.WithMessage(apperr.ErrInvalidInput, "title is required")
	case !e.Category.Valid():
		return apperr.WithMessage(apperr.ErrInvalidInput, "unknown category "+string(e.Category))
	case !e.EndDate.After(e.StartDate):
		return apperr.WithMessage(apperr.ErrInvalidInput, "end date must be after start date")
	case e.MaxAttendees != nil && *e.MaxAttendees < 1:
		return apperr.WithMessage(apperr.ErrInvalidInput, "max attendees must be at least 1")
	case e.MaxAttendees != nil && *e.MaxAttendees < e.CurrentAttendees:
		return apperr.WithMessage(apperr.ErrInvalidInput, "max attendees cannot be lower than current attendees")
	case e.RegistrationDeadline != nil && e.RegistrationDeadline.After(e.StartDate):
		return apperr.WithMessage(apperr.ErrInvalidInput, "registration deadline must not be after the start date")
	}
	return nil
}

// ============================
// 🟡 Create Event Request
type CreateEventRequest struct {
	Title                string     `json:"title" binding:"required"`
	Description          string     `json:"description"`
	Location             string     `json:"location" binding:"required"`
	Category             Category   `json:"category" binding:"required"`
	StartDate            time.Time  `json:"start_date" binding:"required"`
	EndDate              time.Time  `json:"end_date" binding:"required"`
	MaxAttendees         *int       `json:"max_attendees,omitempty"`
	RegistrationRequired bool       `json:"registration_required"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	IsActive             *bool      `json:"is_active,omitempty"`
}

// ============================
// 🟠 Update Event Request
//
// Nil fields are left unchanged. ClearMaxAttendees and ClearDeadline remove
// the capacity limit and the deadline.
type UpdateEventRequest struct {
	Title                *string    `json:"title,omitempty"`
	Description          *string    `json:"description,omitempty"`
	Location             *string    `json:"location,omitempty"`
	Category             *Category  `json:"category,omitempty"`
	StartDate            *time.Time `json:"start_date,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	MaxAttendees         *int       `json:"max_attendees,omitempty"`
	ClearMaxAttendees    bool       `json:"clear_max_attendees,omitempty"`
	RegistrationRequired *bool      `json:"registration_required,omitempty"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	ClearDeadline        bool       `json:"clear_deadline,omitempty"`
	IsActive             *bool      `json:"is_active,omitempty"`
}

func (r *UpdateEventRequest) apply(e *Event) {
	if r.Title != nil {
		e.Title = *r.Title
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Location != nil {
		e.Location = *r.Location
	}
	if r.Category != nil {
		e.Category = *r.Category
	}
	if r.StartDate != nil {
		e.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		e.EndDate = *r.EndDate
	}
	if r.ClearMaxAttendees {
		e.MaxAttendees = nil
	} else if r.MaxAttendees != nil {
		e.MaxAttendees = r.MaxAttendees
	}
	if r.RegistrationRequired != nil {
		e.RegistrationRequired = *r.RegistrationRequired
	}
	if r.ClearDeadline {
		e.RegistrationDeadline = nil
	} else if r.RegistrationDeadline != nil {
		e.RegistrationDeadline = r.RegistrationDeadline
	}
	if r.IsActive != nil {
		e.IsActive = *r.IsActive
	}
}

type ListFilter struct {
	Category     Category
	ActiveOnly   bool
	UpcomingOnly bool
	Search       string
	Limit        int
	Offset       int
}

type EventStats struct {
	TotalEvents        int64 `json:"total_events"`
	ActiveEvents       int64 `json:"active_events"`
	UpcomingEvents     int64 `json:"upcoming_events"`
	TotalRegistrations int64 `json:"total_registrations"`
}
