package invitation

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/auditlog"
	"github.com/ummahconnect/community-backend/internal/auth"
	"github.com/ummahconnect/community-backend/internal/notification"
)

type Service struct {
	DB          *gorm.DB
	Repo        *Repository
	Users       auth.Repository
	Auth        auth.Service
	OTP         OTPStore
	Sender      notification.Sender
	AuditSvc    auditlog.Service
	Log         zerolog.Logger
	FrontendURL string
	TTL         time.Duration
	Clock       func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, users auth.Repository, authSvc auth.Service, otp OTPStore, sender notification.Sender, auditSvc auditlog.Service, log zerolog.Logger, frontendURL string, ttl time.Duration) *Service {
	return &Service{
		DB:          db,
		Repo:        repo,
		Users:       users,
		Auth:        authSvc,
		OTP:         otp,
		Sender:      sender,
		AuditSvc:    auditSvc,
		Log:         log,
		FrontendURL: strings.TrimRight(frontendURL, "/"),
		TTL:         ttl,
		Clock:       time.Now,
	}
}

func (s *Service) Now() time.Time {
	return s.Clock().UTC()
}

// ===========================
// 📨 Invite
// ===========================

// Invite creates a pending invitation and delivers it. If delivery fails the
// invitation and its code are removed before the error is returned.
func (s *Service) Invite(ctx context.Context, inviterID uint, contact Contact, role, message string) (*Invitation, error) {
	if role == "" {
		role = auth.RoleMember
	}
	if !auth.ValidRole(role) {
		return nil, apperr.WithMessage(apperr.ErrInvalidInput, "invalid role")
	}

	_, err := s.Users.FindUserByEmailOrPhone(ctx, contact.Email(), contact.Phone())
	if err == nil {
		return nil, apperr.ErrUserExists
	}
	if !auth.IsNotFound(err) {
		return nil, apperr.Internal("lookup user", err)
	}

	now := s.Now()
	if _, err := s.Repo.ExpireStale(ctx, contact.Email(), contact.Phone(), now); err != nil {
		return nil, apperr.Internal("expire stale invitations", err)
	}
	pending, err := s.Repo.FindPending(ctx, contact.Email(), contact.Phone(), now)
	if err != nil {
		return nil, apperr.Internal("lookup invitation", err)
	}
	if pending != nil {
		return nil, apperr.ErrInvitationPending
	}

	token, err := generateToken()
	if err != nil {
		return nil, apperr.Internal("generate invitation token", err)
	}

	inv := &Invitation{
		Token:     token,
		Role:      role,
		Status:    StatusPending,
		InvitedBy: inviterID,
		ExpiresAt: now.Add(s.TTL),
	}
	if e := contact.Email(); e != "" {
		inv.Email = &e
	}
	if p := contact.Phone(); p != "" {
		inv.Phone = &p
	}
	if message != "" {
		meta, _ := json.Marshal(map[string]string{"message": message})
		inv.Metadata = datatypes.JSON(meta)
	}

	if err := s.Repo.Create(ctx, inv); err != nil {
		if errors.Is(err, apperr.ErrInvitationPending) {
			return nil, apperr.ErrInvitationPending
		}
		return nil, apperr.Internal("create invitation", err)
	}

	var code string
	if inv.RequiresOTP() {
		code, err = generateOTP()
		if err == nil {
			err = s.OTP.Save(ctx, token, code, s.TTL)
		}
		if err != nil {
			s.discard(ctx, inv)
			return nil, apperr.Internal("store invitation code", err)
		}
	}

	if err := s.deliver(ctx, inv, contact, code, message); err != nil {
		s.discard(ctx, inv)
		s.audit(ctx, inviterID, "INVITATION_SENT", map[string]interface{}{
			"invitation_id": inv.ID,
			"error":         err.Error(),
		}, auditlog.StatusFailure)
		return nil, apperr.Wrap(apperr.ErrNotificationFailed, err)
	}

	s.audit(ctx, inviterID, "INVITATION_SENT", map[string]interface{}{
		"invitation_id": inv.ID,
		"role":          role,
	}, auditlog.StatusSuccess)
	return inv, nil
}

func (s *Service) deliver(ctx context.Context, inv *Invitation, contact Contact, code, message string) error {
	link := s.acceptURL(inv.Token)

	if email := contact.Email(); email != "" {
		body := "You have been invited to join the community. Accept your invitation here: " + link
		if message != "" {
			body = message + "\n\n" + body
		}
		if err := s.Sender.SendEmail(ctx, email, "You're invited", body); err != nil {
			return fmt.Errorf("send invitation email: %w", err)
		}
	}

	if phone := contact.Phone(); phone != "" {
		text := fmt.Sprintf("Your community invitation code is %s. Accept at %s", code, link)
		if err := s.Sender.SendSMS(ctx, phone, text); err != nil {
			return fmt.Errorf("send invitation sms: %w", err)
		}
	}
	return nil
}

// discard undoes a half-created invitation.
func (s *Service) discard(ctx context.Context, inv *Invitation) {
	if err := s.Repo.Delete(ctx, inv.ID); err != nil {
		s.Log.Error().Err(err).Uint("invitation_id", inv.ID).Msg("failed to delete undelivered invitation")
	}
	if inv.RequiresOTP() {
		if err := s.OTP.Delete(ctx, inv.Token); err != nil {
			s.Log.Warn().Err(err).Uint("invitation_id", inv.ID).Msg("failed to delete invitation code")
		}
	}
}

func (s *Service) acceptURL(token string) string {
	return s.FrontendURL + "/accept-invite?token=" + url.QueryEscape(token)
}

// ===========================
// ✅ Accept
// ===========================

// Accept turns a pending invitation into an active user account.
func (s *Service) Accept(ctx context.Context, token, otp, fullName, password string) (*auth.User, error) {
	inv, err := s.Repo.GetOpenByToken(ctx, token)
	if err != nil {
		return nil, apperr.From(err)
	}
	now := s.Now()
	if inv.Status == StatusExpired || inv.IsExpired(now) {
		return nil, apperr.ErrInvitationExpired
	}

	if inv.RequiresOTP() {
		stored, err := s.OTP.Get(ctx, token)
		if errors.Is(err, ErrOTPNotFound) {
			return nil, apperr.ErrInvalidOTP
		}
		if err != nil {
			return nil, apperr.Internal("read invitation code", err)
		}
		if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(otp))) != 1 {
			return nil, apperr.ErrInvalidOTP
		}
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apperr.WithMessage(apperr.ErrInvalidInput, "full name is required")
	}
	hash, err := s.Auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &auth.User{
		FullName:     fullName,
		Email:        inv.Email,
		Phone:        inv.Phone,
		PasswordHash: hash,
		Role:         inv.Role,
		Status:       auth.StatusActive,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := auth.NewRepository(tx).CreateUser(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrUserExists
			}
			return err
		}
		return s.Repo.WithTx(tx).MarkAccepted(ctx, inv.ID, user.ID, now)
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	if inv.RequiresOTP() {
		if err := s.OTP.Delete(ctx, token); err != nil {
			s.Log.Warn().Err(err).Uint("invitation_id", inv.ID).Msg("failed to delete invitation code")
		}
	}

	s.audit(ctx, user.ID, "INVITATION_ACCEPTED", map[string]interface{}{
		"invitation_id": inv.ID,
		"role":          user.Role,
	}, auditlog.StatusSuccess)
	return user, nil
}

// ===========================
// 🗑 Revoke / List
// ===========================

func (s *Service) Revoke(ctx context.Context, actorID, id uint) error {
	inv, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return apperr.From(err)
	}
	if err := s.Repo.DeleteOpen(ctx, id); err != nil {
		return apperr.From(err)
	}
	if inv.RequiresOTP() {
		if err := s.OTP.Delete(ctx, inv.Token); err != nil {
			s.Log.Warn().Err(err).Uint("invitation_id", id).Msg("failed to delete invitation code")
		}
	}

	s.audit(ctx, actorID, "INVITATION_REVOKED", map[string]interface{}{"invitation_id": id}, auditlog.StatusSuccess)
	return nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]Invitation, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, total, err := s.Repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal("list invitations", err)
	}
	return list, total, nil
}

func (s *Service) audit(ctx context.Context, userID uint, action string, details map[string]interface{}, status string) {
	_ = s.AuditSvc.LogAction(ctx, &userID, nil, action, details, status)
}
