package attendance

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

func (r *Repository) Get(ctx context.Context, eventID, userID uint) (*Attendance, error) {
	var a Attendance
	err := r.DB.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrAttendanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new record. A concurrent insert for the same pair
// surfaces as apperr.ErrAlreadyCheckedIn.
func (r *Repository) Create(ctx context.Context, a *Attendance) error {
	err := r.DB.WithContext(ctx).Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrAlreadyCheckedIn
	}
	return err
}

// MarkCheckedIn fills in a record that exists without a check-in time.
func (r *Repository) MarkCheckedIn(ctx context.Context, a *Attendance) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&Attendance{}).
		Where("event_id = ? AND user_id = ? AND check_in_time IS NULL", a.EventID, a.UserID).
		Updates(map[string]interface{}{
			"check_in_time": a.CheckInTime,
			"status":        a.Status,
			"notes":         a.Notes,
			"method":        a.Method,
			"checked_in_by": a.CheckedInBy,
		})
	return res.RowsAffected == 1, res.Error
}

// MarkCheckedOut moves a checked-in record to CHECKED_OUT. It reports false
// when the record is not in the CHECKED_IN state anymore.
func (r *Repository) MarkCheckedOut(ctx context.Context, eventID, userID uint, at time.Time, notes *string) (bool, error) {
	updates := map[string]interface{}{
		"check_out_time": at,
		"status":         StatusCheckedOut,
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	res := r.DB.WithContext(ctx).
		Model(&Attendance{}).
		Where("event_id = ? AND user_id = ? AND check_in_time IS NOT NULL AND check_out_time IS NULL", eventID, userID).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) ListForEvent(ctx context.Context, eventID uint) ([]Attendance, error) {
	var rows []Attendance
	err := r.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("check_in_time ASC, user_id ASC").
		Find(&rows).Error
	return rows, err
}

// CountByStatus returns the number of records per status for one event.
func (r *Repository) CountByStatus(ctx context.Context, eventID uint) (map[Status]int64, error) {
	var rows []struct {
		Status Status
		N      int64
	}
	err := r.DB.WithContext(ctx).
		Model(&Attendance{}).
		Select("status, COUNT(*) AS n").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}
