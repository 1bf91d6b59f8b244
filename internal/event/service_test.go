package event_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/attendance"
	"github.com/ummahconnect/community-backend/internal/auditlog"
	"github.com/ummahconnect/community-backend/internal/auth"
	"github.com/ummahconnect/community-backend/internal/event"
	"github.com/ummahconnect/community-backend/internal/registration"
	"github.com/ummahconnect/community-backend/internal/testutil"
)

var t0 = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

func newService(t *testing.T) (*event.Service, *gorm.DB, auditlog.Service) {
	t.Helper()
	db := testutil.NewDB(t, &auth.User{}, &event.Event{}, &registration.Registration{}, &attendance.Attendance{}, &auditlog.AuditLog{})
	audit := auditlog.NewService(auditlog.NewRepository(db), zerolog.Nop())
	svc := event.NewService(event.NewRepository(db), audit)
	svc.Clock = testutil.NewClock(t0).Now
	return svc, db, audit
}

func lecture(start time.Time) *event.CreateEventRequest {
	return &event.CreateEventRequest{
		Title:                "Tafsir circle",
		Location:             "Room 2",
		Category:             event.CategoryLecture,
		StartDate:            start,
		EndDate:              start.Add(2 * time.Hour),
		MaxAttendees:         intPtr(30),
		RegistrationRequired: true,
	}
}

func TestCreateValidates(t *testing.T) {
	svc, _, audit := newService(t)
	ctx := context.Background()
	start := t0.Add(24 * time.Hour)

	tests := []struct {
		name   string
		mutate func(r *event.CreateEventRequest)
	}{
		{"end before start", func(r *event.CreateEventRequest) { r.EndDate = r.StartDate.Add(-time.Hour) }},
		{"zero capacity", func(r *event.CreateEventRequest) { r.MaxAttendees = intPtr(0) }},
		{"unknown category", func(r *event.CreateEventRequest) { r.Category = "PARTY" }},
		{"deadline after start", func(r *event.CreateEventRequest) {
			d := r.StartDate.Add(time.Minute)
			r.RegistrationDeadline = &d
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := lecture(start)
			tt.mutate(req)
			if _, err := svc.Create(ctx, 1, req); !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	e, err := svc.Create(ctx, 1, lecture(start.In(time.FixedZone("AST", 3*3600))))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !e.IsActive || e.CurrentAttendees != 0 || e.StartDate.Location() != time.UTC {
		t.Fatalf("unexpected event %+v", e)
	}

	logs, err := audit.GetAuditLogs(ctx, auditlog.AuditLogFilter{Action: "EVENT_CREATED"})
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if logs.Total != 5 {
		t.Fatalf("expected 4 failed and 1 successful audit entries, got %d", logs.Total)
	}
}

func TestUpdate(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, 1, lecture(t0.Add(24*time.Hour)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(&event.Event{}).Where("id = ?", e.ID).Update("current_attendees", 10).Error; err != nil {
		t.Fatalf("seed attendees: %v", err)
	}

	if _, err := svc.Update(ctx, 1, e.ID, &event.UpdateEventRequest{MaxAttendees: intPtr(5)}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput when shrinking below attendees, got %v", err)
	}

	title := "Tafsir circle (moved)"
	updated, err := svc.Update(ctx, 1, e.ID, &event.UpdateEventRequest{Title: &title, ClearMaxAttendees: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || updated.MaxAttendees != nil || updated.CurrentAttendees != 10 {
		t.Fatalf("unexpected update result %+v", updated)
	}

	stored, err := svc.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.MaxAttendees != nil || stored.CurrentAttendees != 10 {
		t.Fatalf("expected unlimited capacity and untouched counter, got %+v", stored)
	}

	if _, err := svc.Update(ctx, 1, 999, &event.UpdateEventRequest{Title: &title}); !errors.Is(err, apperr.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestDeleteRefusesEventsInUse(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	unused, err := svc.Create(ctx, 1, lecture(t0.Add(24*time.Hour)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	used, err := svc.Create(ctx, 1, lecture(t0.Add(48*time.Hour)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	reg := &registration.Registration{EventID: used.ID, UserID: 9, Status: registration.StatusConfirmed, RegistrationDate: t0}
	if err := db.Create(reg).Error; err != nil {
		t.Fatalf("seed registration: %v", err)
	}

	if err := svc.Delete(ctx, 1, used.ID); !errors.Is(err, apperr.ErrEventInUse) {
		t.Fatalf("expected ErrEventInUse, got %v", err)
	}
	if err := svc.Delete(ctx, 1, unused.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, unused.ID); !errors.Is(err, apperr.ErrEventNotFound) {
		t.Fatalf("expected deleted event to be gone, got %v", err)
	}
	if err := svc.Delete(ctx, 1, unused.ID); !errors.Is(err, apperr.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound on second delete, got %v", err)
	}
}

func TestListAndStats(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	past := lecture(t0.Add(-48 * time.Hour))
	past.Title = "Last week's lecture"
	inactive := lecture(t0.Add(72 * time.Hour))
	inactive.IsActive = new(bool)
	charity := lecture(t0.Add(24 * time.Hour))
	charity.Title = "Food drive"
	charity.Category = event.CategoryCharity
	upcoming := lecture(t0.Add(48 * time.Hour))

	for _, r := range []*event.CreateEventRequest{past, inactive, charity, upcoming} {
		if _, err := svc.Create(ctx, 1, r); err != nil {
			t.Fatalf("create %s: %v", r.Title, err)
		}
	}

	tests := []struct {
		name   string
		filter event.ListFilter
		want   int64
	}{
		{"everything", event.ListFilter{}, 4},
		{"active", event.ListFilter{ActiveOnly: true}, 3},
		{"active upcoming", event.ListFilter{ActiveOnly: true, UpcomingOnly: true}, 2},
		{"category", event.ListFilter{Category: event.CategoryCharity}, 1},
		{"search", event.ListFilter{Search: "FOOD"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := svc.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != tt.want {
				t.Fatalf("expected %d events, got %d", tt.want, total)
			}
		})
	}

	page, total, err := svc.List(ctx, event.ListFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if total != 4 || len(page) != 2 || page[0].Title != "Tafsir circle" {
		t.Fatalf("unexpected second page %d/%d %+v", len(page), total, page)
	}

	if _, _, err := svc.List(ctx, event.ListFilter{Category: "PARTY"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown category, got %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalEvents != 4 || stats.ActiveEvents != 3 || stats.UpcomingEvents != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
