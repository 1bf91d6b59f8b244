package qrcode

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	goqrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/ummahconnect/community-backend/internal/activity"
	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/attendance"
	"github.com/ummahconnect/community-backend/internal/auditlog"
	"github.com/ummahconnect/community-backend/internal/event"
	"github.com/ummahconnect/community-backend/internal/registration"
)

// Service issues and redeems event check-in tokens.
type Service struct {
	DB            *gorm.DB
	Events        *event.Repository
	Repo          *Repository
	Registrations *registration.Service
	Attendance    *attendance.Service
	Signer        *Signer
	BaseURL       string
	DefaultTTL    time.Duration
	AuditSvc      auditlog.Service
	Activity      activity.Publisher
	Log           zerolog.Logger
	Clock         func() time.Time
}

// Options carries the token settings from configuration.
type Options struct {
	Secret     string
	BaseURL    string
	DefaultTTL time.Duration
}

func NewService(db *gorm.DB, events *event.Repository, repo *Repository, regs *registration.Service, att *attendance.Service, opts Options, auditSvc auditlog.Service, pub activity.Publisher, log zerolog.Logger) *Service {
	return &Service{
		DB:            db,
		Events:        events,
		Repo:          repo,
		Registrations: regs,
		Attendance:    att,
		Signer:        NewSigner(opts.Secret),
		BaseURL:       opts.BaseURL,
		DefaultTTL:    opts.DefaultTTL,
		AuditSvc:      auditSvc,
		Activity:      pub,
		Log:           log,
		Clock:         time.Now,
	}
}

func (s *Service) Now() time.Time {
	return s.Clock().UTC()
}

// IssueToken replaces the event's active token with a new one valid for
// ttlHours (the configured default when ttlHours <= 0). Deactivation and
// creation share a transaction holding the event row lock.
func (s *Service) IssueToken(ctx context.Context, actorID, eventID uint, ttlHours int, typ Type) (*IssuedToken, error) {
	if typ == "" {
		typ = TypeBasic
	}
	if !typ.Valid() {
		return nil, apperr.WithMessage(apperr.ErrInvalidInput, "type must be basic or secure")
	}
	ttl := s.DefaultTTL
	if ttlHours > 0 {
		ttl = time.Duration(ttlHours) * time.Hour
	}

	var code *QRCode
	var replaced int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)

		ev, err := s.Events.WithTx(tx).GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !ev.IsActive {
			return apperr.ErrEventInactive
		}

		replaced, err = repo.DeactivateForEvent(ctx, eventID)
		if err != nil {
			return apperr.Internal("deactivate tokens", err)
		}

		now := s.Now()
		tok, err := s.uniqueToken(ctx, repo, eventID, now)
		if err != nil {
			return err
		}

		actor := actorID
		code = &QRCode{
			EventID:   eventID,
			QRData:    tok.String(),
			Type:      typ,
			ExpiresAt: now.Add(ttl),
			IsActive:  true,
			CreatedBy: &actor,
		}
		return repo.Create(ctx, code)
	})

	if err != nil {
		s.audit(ctx, actorID, eventID, "CHECKIN_TOKEN_ISSUED", map[string]interface{}{"error": err.Error()}, auditlog.StatusFailure)
		return nil, apperr.From(err)
	}

	s.audit(ctx, actorID, eventID, "CHECKIN_TOKEN_ISSUED", map[string]interface{}{
		"qr_code_id": code.ID.String(),
		"expires_at": code.ExpiresAt,
		"replaced":   replaced,
		"type":       code.Type,
	}, auditlog.StatusSuccess)
	activity.Emit(ctx, s.Activity, s.Log, activity.Event{
		Type:    activity.TypeTokenIssued,
		EventID: eventID,
		UserID:  actorID,
		At:      code.CreatedAt,
		Attrs:   map[string]string{"expires_at": code.ExpiresAt.Format(time.RFC3339)},
	})

	return &IssuedToken{
		Token:     code.QRData,
		URL:       s.CheckInURL(eventID, code.QRData),
		ExpiresAt: code.ExpiresAt,
		QRCode:    code,
	}, nil
}

// uniqueToken signs a token for now, moving the issue time forward by a
// millisecond while an identical token already exists.
func (s *Service) uniqueToken(ctx context.Context, repo *Repository, eventID uint, now time.Time) (Token, error) {
	at := now
	for i := 0; i < 5; i++ {
		tok := s.Signer.Sign(eventID, at)
		exists, err := repo.DataExists(ctx, tok.String())
		if err != nil {
			return Token{}, apperr.Internal("check token", err)
		}
		if !exists {
			return tok, nil
		}
		at = at.Add(time.Millisecond)
	}
	return Token{}, apperr.ErrDuplicateActiveToken
}

// CheckInURL is the link encoded in the QR image.
func (s *Service) CheckInURL(eventID uint, token string) string {
	q := url.Values{}
	q.Set("event", strconv.FormatUint(uint64(eventID), 10))
	q.Set("token", token)
	return s.BaseURL + "?" + q.Encode()
}

// ValidateToken checks a token presented for eventID without consuming it.
func (s *Service) ValidateToken(ctx context.Context, eventID uint, raw string) (*Validation, error) {
	code, ev, err := s.validate(ctx, s.DB, eventID, raw)
	if err != nil {
		return nil, apperr.From(err)
	}
	tok, _ := ParseToken(code.QRData)
	return &Validation{
		EventID:    ev.ID,
		EventTitle: ev.Title,
		ExpiresAt:  code.ExpiresAt,
		IssuedAt:   tok.IssuedAt(),
	}, nil
}

func (s *Service) validate(ctx context.Context, db *gorm.DB, eventID uint, raw string) (*QRCode, *event.Event, error) {
	tok, err := ParseToken(raw)
	if err != nil {
		return nil, nil, err
	}
	if tok.EventID != eventID {
		return nil, nil, apperr.ErrEventMismatch
	}
	if !s.Signer.Verify(tok) {
		return nil, nil, invalidFormat("signature invalid")
	}

	now := s.Now()
	code, err := s.Repo.WithTx(db).FindByData(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	// Expiry wins over the active flag so the answer does not depend on
	// whether the sweeper has run yet.
	if now.After(code.ExpiresAt) {
		return nil, nil, apperr.ErrTokenExpired
	}
	if !code.IsActive {
		return nil, nil, apperr.ErrTokenNotFound
	}

	ev, err := s.Events.WithTx(db).GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if err := ev.CheckOpenForCheckIn(now); err != nil {
		return nil, nil, err
	}
	return code, ev, nil
}

// CheckInWithToken validates the token, registers the user first when the
// event requires it and they have no registration yet, then checks them in.
// All of it commits or rolls back together.
func (s *Service) CheckInWithToken(ctx context.Context, eventID uint, raw string, userID uint) (*CheckInResult, error) {
	in := attendance.CheckInInput{
		EventID: eventID,
		UserID:  userID,
		ActorID: userID,
		Method:  attendance.MethodQR,
	}

	var (
		rec            *attendance.Attendance
		autoRegistered bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, ev, err := s.validate(ctx, tx, eventID, raw)
		if err != nil {
			return err
		}

		if ev.RegistrationRequired {
			_, err := s.Registrations.Repo.WithTx(tx).Get(ctx, eventID, userID)
			switch {
			case errors.Is(err, apperr.ErrRegistrationNotFound):
				if _, err := s.Registrations.ReserveTx(ctx, tx, eventID, userID, true); err != nil {
					return err
				}
				autoRegistered = true
			case err != nil:
				return err
			}
		}

		rec, err = s.Attendance.CheckInTx(ctx, tx, in)
		return err
	})

	if err != nil {
		s.audit(ctx, userID, eventID, "CHECKIN_WITH_TOKEN", map[string]interface{}{"error": err.Error()}, auditlog.StatusFailure)
		return nil, apperr.From(err)
	}

	if autoRegistered {
		s.audit(ctx, userID, eventID, "EVENT_REGISTERED", map[string]interface{}{
			"user_id": userID,
			"via":     "checkin_token",
		}, auditlog.StatusSuccess)
		activity.Emit(ctx, s.Activity, s.Log, activity.Event{
			Type:    activity.TypeRegistered,
			EventID: eventID,
			UserID:  userID,
			At:      *rec.CheckInTime,
			Attrs:   map[string]string{"via": "checkin_token"},
		})
	}
	s.Attendance.AfterCheckIn(ctx, in, rec)

	return &CheckInResult{
		EventID:        eventID,
		UserID:         userID,
		CheckInTime:    *rec.CheckInTime,
		AutoRegistered: autoRegistered,
	}, nil
}

// RevokeToken deactivates the event's active token.
func (s *Service) RevokeToken(ctx context.Context, actorID, eventID uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Events.WithTx(tx).GetByIDForUpdate(ctx, eventID); err != nil {
			return err
		}
		n, err := s.Repo.WithTx(tx).DeactivateForEvent(ctx, eventID)
		if err != nil {
			return apperr.Internal("revoke token", err)
		}
		if n == 0 {
			return apperr.ErrNoActiveToken
		}
		return nil
	})

	if err != nil {
		s.audit(ctx, actorID, eventID, "CHECKIN_TOKEN_REVOKED", map[string]interface{}{"error": err.Error()}, auditlog.StatusFailure)
		return apperr.From(err)
	}

	s.audit(ctx, actorID, eventID, "CHECKIN_TOKEN_REVOKED", nil, auditlog.StatusSuccess)
	activity.Emit(ctx, s.Activity, s.Log, activity.Event{
		Type:    activity.TypeTokenRevoked,
		EventID: eventID,
		UserID:  actorID,
		At:      s.Now(),
	})
	return nil
}

// SweepExpired deactivates every active token past its expiry. It only
// turns rows off and a freshly issued token is never already expired, so it
// may run concurrently with IssueToken.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.Repo.DeactivateExpired(ctx, s.Now())
	if err != nil {
		return 0, apperr.Internal("sweep expired tokens", err)
	}
	if n > 0 {
		activity.Emit(ctx, s.Activity, s.Log, activity.Event{
			Type:  activity.TypeTokensExpired,
			At:    s.Now(),
			Attrs: map[string]string{"count": strconv.FormatInt(n, 10)},
		})
	}
	return n, nil
}

// ActiveToken returns the event's active token row.
func (s *Service) ActiveToken(ctx context.Context, eventID uint) (*QRCode, error) {
	if _, err := s.Events.GetByID(ctx, eventID); err != nil {
		return nil, apperr.From(err)
	}
	code, err := s.Repo.ActiveForEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return code, nil
}

// RenderPNG draws the check-in URL of the active token as a QR image.
func (s *Service) RenderPNG(ctx context.Context, eventID uint, size int) ([]byte, error) {
	code, err := s.ActiveToken(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if size < 128 || size > 1024 {
		size = 256
	}
	png, err := goqrcode.Encode(s.CheckInURL(eventID, code.QRData), goqrcode.Medium, size)
	if err != nil {
		return nil, apperr.Internal("render qr image", err)
	}
	return png, nil
}

func (s *Service) audit(ctx context.Context, actorID, eventID uint, action string, details map[string]interface{}, status string) {
	if s.AuditSvc == nil {
		return
	}
	_ = s.AuditSvc.LogAction(ctx, &actorID, &eventID, action, details, status)
}
