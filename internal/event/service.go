package event

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/auditlog"
)

// Service wraps business logic for community events
type Service struct {
	Repo     *Repository
	AuditSvc auditlog.Service
	Clock    func() time.Time
}

func NewService(r *Repository, auditSvc auditlog.Service) *Service {
	return &Service{
		Repo:     r,
		AuditSvc: auditSvc,
		Clock:    time.Now,
	}
}

func (s *Service) now() time.Time {
	return s.Clock().UTC()
}

// ===========================
// 🎯 Create Event
func (s *Service) Create(ctx context.Context, actorID uint, req *CreateEventRequest) (*Event, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	e := &Event{
		Title:                req.Title,
		Description:          req.Description,
		Location:             req.Location,
		Category:             req.Category,
		StartDate:            req.StartDate.UTC(),
		EndDate:              req.EndDate.UTC(),
		MaxAttendees:         req.MaxAttendees,
		RegistrationRequired: req.RegistrationRequired,
		RegistrationDeadline: utcPtr(req.RegistrationDeadline),
		IsActive:             isActive,
		CreatedBy:            actorID,
	}

	if err := e.Validate(); err != nil {
		s.audit(ctx, actorID, nil, "EVENT_CREATED", map[string]interface{}{
			"title": req.Title,
			"error": err.Error(),
		}, auditlog.StatusFailure)
		return nil, err
	}

	if err := s.Repo.Create(ctx, e); err != nil {
		return nil, apperr.Internal("create event", err)
	}

	s.audit(ctx, actorID, &e.ID, "EVENT_CREATED", map[string]interface{}{
		"title":                 e.Title,
		"category":              e.Category,
		"start_date":            e.StartDate,
		"max_attendees":         e.MaxAttendees,
		"registration_required": e.RegistrationRequired,
	}, auditlog.StatusSuccess)
	return e, nil
}

// ===========================
// 🔍 Get Event by ID
func (s *Service) Get(ctx context.Context, id uint) (*Event, error) {
	e, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.From(err)
	}
	return e, nil
}

// ===========================
// 📄 List Events
func (s *Service) List(ctx context.Context, f ListFilter) ([]Event, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, 0, apperr.WithMessage(apperr.ErrInvalidInput, "unknown category "+string(f.Category))
	}

	events, total, err := s.Repo.List(ctx, f, s.now())
	if err != nil {
		return nil, 0, apperr.Internal("list events", err)
	}
	return events, total, nil
}

// ===========================
// 🛠 Update Event
//
// The row is locked so the capacity check sees the same attendee count that
// concurrent registrations do.
func (s *Service) Update(ctx context.Context, actorID, id uint, req *UpdateEventRequest) (*Event, error) {
	var updated *Event
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)
		e, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		req.apply(e)
		e.StartDate = e.StartDate.UTC()
		e.EndDate = e.EndDate.UTC()
		e.RegistrationDeadline = utcPtr(e.RegistrationDeadline)
		if err := e.Validate(); err != nil {
			return err
		}
		if err := repo.Update(ctx, e); err != nil {
			return apperr.Internal("update event", err)
		}
		updated = e
		return nil
	})

	if err != nil {
		s.audit(ctx, actorID, &id, "EVENT_UPDATED", map[string]interface{}{"error": err.Error()}, auditlog.StatusFailure)
		return nil, apperr.From(err)
	}

	s.audit(ctx, actorID, &id, "EVENT_UPDATED", map[string]interface{}{
		"title":     updated.Title,
		"is_active": updated.IsActive,
	}, auditlog.StatusSuccess)
	return updated, nil
}

// ===========================
// ❌ Delete Event
//
// Events that anyone registered for or attended can only be deactivated.
func (s *Service) Delete(ctx context.Context, actorID, id uint) error {
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)
		if _, err := repo.GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		busy, err := repo.HasActivity(ctx, id)
		if err != nil {
			return apperr.Internal("check event activity", err)
		}
		if busy {
			return apperr.ErrEventInUse
		}
		return repo.Delete(ctx, id)
	})

	if err != nil {
		s.audit(ctx, actorID, &id, "EVENT_DELETED", map[string]interface{}{"error": err.Error()}, auditlog.StatusFailure)
		return apperr.From(err)
	}
	s.audit(ctx, actorID, &id, "EVENT_DELETED", nil, auditlog.StatusSuccess)
	return nil
}

// ===========================
// 📊 Stats
func (s *Service) Stats(ctx context.Context) (*EventStats, error) {
	stats, err := s.Repo.Stats(ctx, s.now())
	if err != nil {
		return nil, apperr.Internal("event stats", err)
	}
	return stats, nil
}

func (s *Service) audit(ctx context.Context, actorID uint, eventID *uint, action string, details map[string]interface{}, status string) {
	if s.AuditSvc == nil {
		return
	}
	_ = s.AuditSvc.LogAction(ctx, &actorID, eventID, action, details, status)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
