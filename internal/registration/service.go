package registration

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ummahconnect/community-backend/internal/activity"
	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/auditlog"
	"github.com/ummahconnect/community-backend/internal/event"
)

// Service is the registration ledger. It owns every change to an event's
// attendee counter.
type Service struct {
	DB       *gorm.DB
	Events   *event.Repository
	Repo     *Repository
	AuditSvc auditlog.Service
	Activity activity.Publisher
	Log      zerolog.Logger
	Clock    func() time.Time
}

func NewService(db *gorm.DB, events *event.Repository, repo *Repository, auditSvc auditlog.Service, pub activity.Publisher, log zerolog.Logger) *Service {
	return &Service{
		DB:       db,
		Events:   events,
		Repo:     repo,
		AuditSvc: auditSvc,
		Activity: pub,
		Log:      log,
		Clock:    time.Now,
	}
}

func (s *Service) Now() time.Time {
	return s.Clock().UTC()
}

// Register confirms a registration and takes one capacity slot in the same
// transaction.
func (s *Service) Register(ctx context.Context, actorID, eventID, userID uint) (*Registration, error) {
	var reg *Registration
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		reg, err = s.ReserveTx(ctx, tx, eventID, userID, false)
		return err
	})

	details := map[string]interface{}{"user_id": userID}
	if err != nil {
		details["error"] = err.Error()
		s.audit(ctx, actorID, eventID, "EVENT_REGISTERED", details, auditlog.StatusFailure)
		return nil, apperr.From(err)
	}

	s.audit(ctx, actorID, eventID, "EVENT_REGISTERED", details, auditlog.StatusSuccess)
	activity.Emit(ctx, s.Activity, s.Log, activity.Event{
		Type:    activity.TypeRegistered,
		EventID: eventID,
		UserID:  userID,
		At:      reg.RegistrationDate,
	})
	return reg, nil
}

// ReserveTx runs the registration checks and takes a capacity slot inside tx.
// The event row is locked first, so concurrent reservations for one event
// queue behind each other and the conditional increment never overshoots.
//
// walkIn marks registrations made while checking in to a running event: the
// start date is not enforced for them, the deadline and capacity still are.
func (s *Service) ReserveTx(ctx context.Context, tx *gorm.DB, eventID, userID uint, walkIn bool) (*Registration, error) {
	now := s.Now()
	events := s.Events.WithTx(tx)
	regs := s.Repo.WithTx(tx)

	ev, err := events.GetByIDForUpdate(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := ev.CheckOpenForRegistration(now, walkIn); err != nil {
		return nil, err
	}

	if _, err := regs.Get(ctx, eventID, userID); err == nil {
		return nil, apperr.ErrAlreadyRegistered
	} else if !errors.Is(err, apperr.ErrRegistrationNotFound) {
		return nil, err
	}
	if ev.IsFull() {
		return nil, apperr.ErrCapacityExceeded
	}

	ok, err := events.IncrementAttendees(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("reserve capacity", err)
	}
	if !ok {
		return nil, apperr.ErrCapacityExceeded
	}

	reg := &Registration{
		EventID:          eventID,
		UserID:           userID,
		Status:           StatusConfirmed,
		RegistrationDate: now,
	}
	if err := regs.Create(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Cancel deletes the registration and releases its slot. Registrations are
// frozen once the event starts.
func (s *Service) Cancel(ctx context.Context, actorID, eventID, userID uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := s.Events.WithTx(tx)
		regs := s.Repo.WithTx(tx)

		ev, err := events.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if _, err := regs.Get(ctx, eventID, userID); err != nil {
			return err
		}
		if !s.Now().Before(ev.StartDate) {
			return apperr.ErrEventAlreadyStarted
		}
		if err := regs.Delete(ctx, eventID, userID); err != nil {
			return err
		}
		if err := events.DecrementAttendees(ctx, eventID); err != nil {
			return apperr.Internal("release capacity", err)
		}
		return nil
	})

	details := map[string]interface{}{"user_id": userID}
	if err != nil {
		details["error"] = err.Error()
		s.audit(ctx, actorID, eventID, "EVENT_REGISTRATION_CANCELLED", details, auditlog.StatusFailure)
		return apperr.From(err)
	}

	s.audit(ctx, actorID, eventID, "EVENT_REGISTRATION_CANCELLED", details, auditlog.StatusSuccess)
	activity.Emit(ctx, s.Activity, s.Log, activity.Event{
		Type:    activity.TypeRegistrationCancelled,
		EventID: eventID,
		UserID:  userID,
		At:      s.Now(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, eventID, userID uint) (*Registration, error) {
	reg, err := s.Repo.Get(ctx, eventID, userID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return reg, nil
}

func (s *Service) ListForEvent(ctx context.Context, eventID uint) ([]Registration, error) {
	if _, err := s.Events.GetByID(ctx, eventID); err != nil {
		return nil, apperr.From(err)
	}
	regs, err := s.Repo.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("list registrations", err)
	}
	return regs, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uint) ([]Registration, error) {
	regs, err := s.Repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list registrations", err)
	}
	return regs, nil
}

func (s *Service) audit(ctx context.Context, actorID, eventID uint, action string, details map[string]interface{}, status string) {
	if s.AuditSvc == nil {
		return
	}
	_ = s.AuditSvc.LogAction(ctx, &actorID, &eventID, action, details, status)
}
