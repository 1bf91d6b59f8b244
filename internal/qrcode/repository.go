package qrcode

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

// Create maps a collision with the one-active-token index to
// apperr.ErrDuplicateActiveToken.
func (r *Repository) Create(ctx context.Context, q *QRCode) error {
	err := r.DB.WithContext(ctx).Create(q).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrDuplicateActiveToken
	}
	return err
}

// DeactivateForEvent turns off every active token of the event.
func (r *Repository) DeactivateForEvent(ctx context.Context, eventID uint) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&QRCode{}).
		Where("event_id = ? AND is_active = ?", eventID, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// FindByData returns the row holding data, active or not, and
// apperr.ErrTokenNotFound when there is none.
func (r *Repository) FindByData(ctx context.Context, data string) (*QRCode, error) {
	var q QRCode
	err := r.DB.WithContext(ctx).
		Where("qr_data = ?", data).
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ActiveForEvent returns apperr.ErrNoActiveToken when the event has none.
func (r *Repository) ActiveForEvent(ctx context.Context, eventID uint) (*QRCode, error) {
	var q QRCode
	err := r.DB.WithContext(ctx).
		Where("event_id = ? AND is_active = ?", eventID, true).
		Order("created_at DESC").
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNoActiveToken
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// DeactivateExpired turns off active tokens whose expiry is before now.
func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&QRCode{}).
		Where("is_active = ? AND expires_at < ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// DataExists reports whether any row, active or not, holds data.
func (r *Repository) DataExists(ctx context.Context, data string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&QRCode{}).
		Where("qr_data = ?", data).
		Count(&n).Error
	return n > 0, err
}
