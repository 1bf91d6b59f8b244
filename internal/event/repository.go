package event

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ummahconnect/community-backend/internal/apperr"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{DB: tx}
}

// ===========================
// 🎯 Create Event
func (r *Repository) Create(ctx context.Context, e *Event) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

// ===========================
// 🔍 Get Event By ID
func (r *Repository) GetByID(ctx context.Context, id uint) (*Event, error) {
	var e Event
	if err := r.DB.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// GetByIDForUpdate loads the event and locks its row until the surrounding
// transaction ends. Every capacity check goes through this lock.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id uint) (*Event, error) {
	var e Event
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&e, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// ===========================
// 📄 List Events With Pagination & Search
func (r *Repository) List(ctx context.Context, f ListFilter, now time.Time) ([]Event, int64, error) {
	query := r.DB.WithContext(ctx).Model(&Event{})

	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if f.UpcomingOnly {
		query = query.Where("end_date >= ?", now)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []Event
	err := query.
		Order("start_date ASC, id ASC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ===========================
// 🛠 Update Event
//
// CurrentAttendees is not written here.
func (r *Repository) Update(ctx context.Context, e *Event) error {
	return r.DB.WithContext(ctx).
		Model(e).
		Select("title", "description", "location", "category", "start_date", "end_date",
			"max_attendees", "registration_required", "registration_deadline", "is_active").
		Updates(e).Error
}

// ===========================
// ❌ Delete Event
func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&Event{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrEventNotFound
	}
	return nil
}

// HasActivity reports whether any registration or attendance references the event.
func (r *Repository) HasActivity(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Raw(`
		SELECT (SELECT COUNT(*) FROM registrations WHERE event_id = ?)
		     + (SELECT COUNT(*) FROM attendances WHERE event_id = ?)`, id, id).
		Scan(&n).Error
	return n > 0, err
}

// IncrementAttendees takes one capacity slot. It reports false, without
// changing anything, when the event is already full.
func (r *Repository) IncrementAttendees(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&Event{}).
		Where("id = ? AND (max_attendees IS NULL OR current_attendees < max_attendees)", id).
		UpdateColumn("current_attendees", gorm.Expr("current_attendees + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecrementAttendees releases one capacity slot, never going below zero.
func (r *Repository) DecrementAttendees(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).
		Model(&Event{}).
		Where("id = ? AND current_attendees > 0", id).
		UpdateColumn("current_attendees", gorm.Expr("current_attendees - 1")).Error
}

// ===========================
// 📊 Event Dashboard Stats
func (r *Repository) Stats(ctx context.Context, now time.Time) (*EventStats, error) {
	var stats EventStats
	db := r.DB.WithContext(ctx)

	if err := db.Model(&Event{}).Count(&stats.TotalEvents).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Event{}).Where("is_active = ?", true).Count(&stats.ActiveEvents).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Event{}).Where("is_active = ? AND start_date > ?", true, now).Count(&stats.UpcomingEvents).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Event{}).Select("COALESCE(SUM(current_attendees), 0)").Scan(&stats.TotalRegistrations).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrEventNotFound
	}
	return err
}
