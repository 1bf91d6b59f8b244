package attendance

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
	"github.com/ummahconnect/community-backend/internal/registration"
)

// Service is the attendance tracker: none -> CHECKED_IN -> CHECKED_OUT.
//
// Check-ins without a registration (events that do not require one) do not
// touch the event's attendee counter.
type Service struct {
	DB            *gorm.DB
	Events        *event.Repository
	Registrations *registration.Repository
	Repo          *Repository
	AuditSvc      auditlog.Service
	Activity      activity.Publisher
	Log           zerolog.Logger
	Clock         func() time.Time
}

func NewService(db *gorm.DB, events *event.Repository, regs *registration.Repository, repo *Repository, auditSvc auditlog.Service, pub activity.Publisher, log zerolog.Logger) *Service {
	return &Service{
		DB:            db,
		Events:        events,
		Registrations: regs,
		Repo:          repo,
		AuditSvc:      auditSvc,
		Activity:      pub,
		Log:           log,
		Clock:         time.Now,
	}
}

func (s *Service) Now() time.Time {
	return s.Clock().UTC()
}

// CheckIn is the staff-assisted path, also used by members checking
// themselves in through the same endpoint.
func (s *Service) CheckIn(ctx context.Context, actorID, eventID, userID uint, notes string) (*Attendance, error) {
	method := MethodStaff
	if actorID == userID {
		method = MethodSelf
	}
	return s.checkIn(ctx, CheckInInput{
		EventID: eventID,
		UserID:  userID,
		ActorID: actorID,
		Notes:   notes,
		Method:  method,
	})
}

// MarkAttendance is the self-service check-in. Same transition as CheckIn.
func (s *Service) MarkAttendance(ctx context.Context, eventID, userID uint) (*Attendance, error) {
	return s.checkIn(ctx, CheckInInput{
		EventID: eventID,
		UserID:  userID,
		ActorID: userID,
		Method:  MethodSelf,
	})
}

func (s *Service) checkIn(ctx context.Context, in CheckInInput) (*Attendance, error) {
	var a *Attendance
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		a, err = s.CheckInTx(ctx, tx, in)
		return err
	})
	if err != nil {
		s.audit(ctx, in.ActorID, in.EventID, "ATTENDANCE_CHECK_IN", map[string]interface{}{
			"user_id": in.UserID,
			"method":  in.Method,
			"error":   err.Error(),
		}, auditlog.StatusFailure)
		return nil, apperr.From(err)
	}

	s.AfterCheckIn(ctx, in, a)
	return a, nil
}

// AfterCheckIn records the audit entry and activity event for a committed
// check-in.
func (s *Service) AfterCheckIn(ctx context.Context, in CheckInInput, a *Attendance) {
	s.audit(ctx, in.ActorID, in.EventID, "ATTENDANCE_CHECK_IN", map[string]interface{}{
		"user_id": in.UserID,
		"method":  in.Method,
	}, auditlog.StatusSuccess)
	activity.Emit(ctx, s.Activity, s.Log, activity.Event{
		Type:    activity.TypeCheckedIn,
		EventID: in.EventID,
		UserID:  in.UserID,
		At:      *a.CheckInTime,
		Attrs:   map[string]string{"method": string(in.Method)},
	})
}

// CheckInTx applies the none -> CHECKED_IN transition inside tx.
func (s *Service) CheckInTx(ctx context.Context, tx *gorm.DB, in CheckInInput) (*Attendance, error) {
	now := s.Now()

	ev, err := s.Events.WithTx(tx).GetByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if err := ev.CheckOpenForCheckIn(now); err != nil {
		return nil, err
	}

	if ev.RegistrationRequired {
		reg, err := s.Registrations.WithTx(tx).Get(ctx, in.EventID, in.UserID)
		if errors.Is(err, apperr.ErrRegistrationNotFound) {
			return nil, apperr.ErrUserNotRegistered
		}
		if err != nil {
			return nil, err
		}
		if !reg.IsConfirmed() {
			return nil, apperr.ErrRegistrationNotConfirmed
		}
	}

	repo := s.Repo.WithTx(tx)
	existing, err := repo.Get(ctx, in.EventID, in.UserID)
	if err != nil && !errors.Is(err, apperr.ErrAttendanceNotFound) {
		return nil, err
	}
	if existing != nil && existing.CheckInTime != nil {
		return nil, apperr.ErrAlreadyCheckedIn
	}

	a := &Attendance{
		EventID:     in.EventID,
		UserID:      in.UserID,
		CheckInTime: &now,
		Status:      StatusCheckedIn,
		Notes:       in.Notes,
		Method:      in.Method,
	}
	if in.ActorID != 0 {
		actor := in.ActorID
		a.CheckedInBy = &actor
	}

	if existing == nil {
		if err := repo.Create(ctx, a); err != nil {
			return nil, err
		}
		return a, nil
	}

	ok, err := repo.MarkCheckedIn(ctx, a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrAlreadyCheckedIn
	}
	a.CreatedAt = existing.CreatedAt
	return a, nil
}

// CheckOut applies CHECKED_IN -> CHECKED_OUT. A nil notes keeps the notes
// written at check-in.
func (s *Service) CheckOut(ctx context.Context, actorID, eventID, userID uint, notes *string) (*Attendance, error) {
	a, err := s.checkOut(ctx, eventID, userID, notes)

	details := map[string]interface{}{"user_id": userID}
	if err != nil {
		details["error"] = err.Error()
		s.audit(ctx, actorID, eventID, "ATTENDANCE_CHECK_OUT", details, auditlog.StatusFailure)
		return nil, apperr.From(err)
	}

	s.audit(ctx, actorID, eventID, "ATTENDANCE_CHECK_OUT", details, auditlog.StatusSuccess)
	activity.Emit(ctx, s.Activity, s.Log, activity.Event{
		Type:    activity.TypeCheckedOut,
		EventID: eventID,
		UserID:  userID,
		At:      *a.CheckOutTime,
	})
	return a, nil
}

func (s *Service) checkOut(ctx context.Context, eventID, userID uint, notes *string) (*Attendance, error) {
	a, err := s.Repo.Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if a.CheckInTime == nil {
		return nil, apperr.ErrNotCheckedIn
	}
	if a.CheckOutTime != nil {
		return nil, apperr.ErrAlreadyCheckedOut
	}

	now := s.Now()
	ok, err := s.Repo.MarkCheckedOut(ctx, eventID, userID, now, notes)
	if err != nil {
		return nil, apperr.Internal("check out", err)
	}
	if !ok {
		// Lost the race to a concurrent check-out.
		return nil, apperr.ErrAlreadyCheckedOut
	}

	a.CheckOutTime = &now
	a.Status = StatusCheckedOut
	if notes != nil {
		a.Notes = *notes
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, eventID, userID uint) (*Attendance, error) {
	a, err := s.Repo.Get(ctx, eventID, userID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return a, nil
}

func (s *Service) ListForEvent(ctx context.Context, eventID uint) ([]Attendance, error) {
	if _, err := s.Events.GetByID(ctx, eventID); err != nil {
		return nil, apperr.From(err)
	}
	rows, err := s.Repo.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("list attendance", err)
	}
	return rows, nil
}

// Summary counts registrations and check-ins for one event.
func (s *Service) Summary(ctx context.Context, eventID uint) (*Summary, error) {
	if _, err := s.Events.GetByID(ctx, eventID); err != nil {
		return nil, apperr.From(err)
	}
	counts, err := s.Repo.CountByStatus(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("count attendance", err)
	}
	registered, err := s.Registrations.CountForEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("count registrations", err)
	}

	return &Summary{
		EventID:    eventID,
		Registered: registered,
		CheckedIn:  counts[StatusCheckedIn],
		CheckedOut: counts[StatusCheckedOut],
		Attended:   counts[StatusCheckedIn] + counts[StatusCheckedOut],
	}, nil
}

func (s *Service) audit(ctx context.Context, actorID, eventID uint, action string, details map[string]interface{}, status string) {
	if s.AuditSvc == nil {
		return
	}
	_ = s.AuditSvc.LogAction(ctx, &actorID, &eventID, action, details, status)
}
