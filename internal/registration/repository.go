package registration

import (
	"context"
	"errors"

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

// Get returns apperr.ErrRegistrationNotFound when the pair has no registration.
func (r *Repository) Get(ctx context.Context, eventID, userID uint) (*Registration, error) {
	var reg Registration
	err := r.DB.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Create maps a primary key collision to apperr.ErrAlreadyRegistered.
func (r *Repository) Create(ctx context.Context, reg *Registration) error {
	err := r.DB.WithContext(ctx).Create(reg).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrAlreadyRegistered
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, eventID, userID uint) error {
	res := r.DB.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&Registration{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrRegistrationNotFound
	}
	return nil
}

func (r *Repository) ListForEvent(ctx context.Context, eventID uint) ([]Registration, error) {
	var regs []Registration
	err := r.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("registration_date ASC, user_id ASC").
		Find(&regs).Error
	return regs, err
}

func (r *Repository) ListForUser(ctx context.Context, userID uint) ([]Registration, error) {
	var regs []Registration
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("registration_date DESC").
		Find(&regs).Error
	return regs, err
}

// CountForEvent counts confirmed registrations.
func (r *Repository) CountForEvent(ctx context.Context, eventID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&Registration{}).
		Where("event_id = ? AND status = ?", eventID, StatusConfirmed).
		Count(&n).Error
	return n, err
}
