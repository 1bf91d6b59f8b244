package invitation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ummahconnect/community-backend/internal/apperr"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{DB: tx}
}

// Create maps a collision with the pending-contact indexes to
// apperr.ErrInvitationPending.
func (r *Repository) Create(ctx context.Context, inv *Invitation) error {
	err := r.DB.WithContext(ctx).Create(inv).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrInvitationPending
	}
	return err
}

// GetOpenByToken finds a pending or expired invitation. Accepted ones are
// reported as not found.
func (r *Repository) GetOpenByToken(ctx context.Context, token string) (*Invitation, error) {
	var inv Invitation
	err := r.DB.WithContext(ctx).
		Where("token = ? AND status IN ?", token, []string{StatusPending, StatusExpired}).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*Invitation, error) {
	var inv Invitation
	err := r.DB.WithContext(ctx).First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindPending returns an unexpired pending invitation matching either contact.
func (r *Repository) FindPending(ctx context.Context, email, phone string, now time.Time) (*Invitation, error) {
	query := r.DB.WithContext(ctx).
		Where("status = ? AND expires_at > ?", StatusPending, now)
	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		query = query.Where("phone = ?", phone)
	}

	var inv Invitation
	err := query.Order("id ASC").First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ExpireStale moves lapsed pending invitations for either contact to
// StatusExpired, freeing the contact for a new invitation.
func (r *Repository) ExpireStale(ctx context.Context, email, phone string, now time.Time) (int64, error) {
	query := r.DB.WithContext(ctx).
		Model(&Invitation{}).
		Where("status = ? AND expires_at <= ?", StatusPending, now)
	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		query = query.Where("phone = ?", phone)
	}
	res := query.Update("status", StatusExpired)
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&Invitation{}, id).Error
}

// DeleteOpen removes a pending or expired invitation. Accepted ones are kept.
func (r *Repository) DeleteOpen(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND status IN ?", id, []string{StatusPending, StatusExpired}).
		Delete(&Invitation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrInvitationNotFound
	}
	return nil
}

// MarkAccepted flips a pending invitation. Returns ErrInvitationNotFound if
// another request accepted or revoked it first.
func (r *Repository) MarkAccepted(ctx context.Context, id, userID uint, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&Invitation{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]interface{}{
			"status":      StatusAccepted,
			"user_id":     userID,
			"accepted_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrInvitationNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]Invitation, int64, error) {
	query := r.DB.WithContext(ctx).Model(&Invitation{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []Invitation
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
