package qrcode

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ummahconnect/community-backend/internal/activity"
	"github.com/ummahconnect/community-backend/internal/activity/activitytest"
	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/internal/attendance"
	"github.com/ummahconnect/community-backend/internal/auditlog"
	"github.com/ummahconnect/community-backend/internal/event"
	"github.com/ummahconnect/community-backend/internal/registration"
	"github.com/ummahconnect/community-backend/internal/testutil"
)

var t0 = time.Date(2026, 4, 10, 17, 0, 0, 0, time.UTC)

type fixture struct {
	db    *gorm.DB
	svc   *Service
	regs  *registration.Service
	att   *attendance.Service
	clock *testutil.Clock
	rec   *activitytest.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t, &event.Event{}, &registration.Registration{}, &attendance.Attendance{}, &QRCode{}, &auditlog.AuditLog{})
	clock := testutil.NewClock(t0)
	rec := &activitytest.Recorder{}
	log := zerolog.Nop()

	events := event.NewRepository(db)
	regRepo := registration.NewRepository(db)
	regs := registration.NewService(db, events, regRepo, auditlog.Nop{}, rec, log)
	regs.Clock = clock.Now
	att := attendance.NewService(db, events, regRepo, attendance.NewRepository(db), auditlog.Nop{}, rec, log)
	att.Clock = clock.Now

	svc := NewService(db, events, NewRepository(db), regs, att, Options{
		Secret:     "test-secret",
		BaseURL:    "https://example.org/checkin",
		DefaultTTL: 24 * time.Hour,
	}, auditlog.Nop{}, rec, log)
	svc.Clock = clock.Now

	return &fixture{db: db, svc: svc, regs: regs, att: att, clock: clock, rec: rec}
}

// seedEvent creates an active event that started at t0 and runs for 4 hours.
func (f *fixture) seedEvent(t *testing.T, mutate func(e *event.Event)) *event.Event {
	t.Helper()
	e := &event.Event{
		Title:     "Eid prayer",
		Location:  "Park",
		Category:  event.CategoryPrayer,
		StartDate: t0,
		EndDate:   t0.Add(4 * time.Hour),
		IsActive:  true,
		CreatedBy: 1,
	}
	if mutate != nil {
		mutate(e)
	}
	if err := event.NewRepository(f.db).Create(context.Background(), e); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return e
}

func TestIssueThenValidateUntilExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, nil)

	issued, err := f.svc.IssueToken(ctx, 1, e.ID, 1, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !issued.ExpiresAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("expected expiry %s, got %s", t0.Add(time.Hour), issued.ExpiresAt)
	}
	if issued.QRCode.Type != TypeBasic || !issued.QRCode.IsActive {
		t.Fatalf("unexpected code %+v", issued.QRCode)
	}

	u, err := url.Parse(issued.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Query().Get("token") != issued.Token {
		t.Fatalf("expected url to embed token, got %s", issued.URL)
	}

	if _, err := f.svc.ValidateToken(ctx, e.ID, issued.Token); err != nil {
		t.Fatalf("validate now: %v", err)
	}

	f.clock.Advance(30 * time.Minute)
	v, err := f.svc.ValidateToken(ctx, e.ID, issued.Token)
	if err != nil {
		t.Fatalf("validate at +30m: %v", err)
	}
	if v.EventID != e.ID || !v.IssuedAt.Equal(t0) {
		t.Fatalf("unexpected validation %+v", v)
	}

	f.clock.Set(t0.Add(61 * time.Minute))
	if _, err := f.svc.ValidateToken(ctx, e.ID, issued.Token); !errors.Is(err, apperr.ErrTokenExpired) {
		t.Fatalf("expected token expired, got %v", err)
	}

	// same answer once the sweeper has deactivated the row
	if n, err := f.svc.SweepExpired(ctx); err != nil || n != 1 {
		t.Fatalf("sweep: n=%d err=%v", n, err)
	}
	if _, err := f.svc.ValidateToken(ctx, e.ID, issued.Token); !errors.Is(err, apperr.ErrTokenExpired) {
		t.Fatalf("expected token expired after sweep, got %v", err)
	}
	if _, err := f.svc.CheckInWithToken(ctx, e.ID, issued.Token, 42); !errors.Is(err, apperr.ErrTokenExpired) {
		t.Fatalf("expected check-in refused as expired after sweep, got %v", err)
	}
}

func TestValidateRejectsForgedAndMismatched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, nil)
	other := f.seedEvent(t, nil)

	issued, err := f.svc.IssueToken(ctx, 1, e.ID, 0, TypeSecure)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	last := issued.Token[len(issued.Token)-1]
	swap := byte('0')
	if last == '0' {
		swap = '1'
	}
	forged := issued.Token[:len(issued.Token)-1] + string(swap)
	if _, err := f.svc.ValidateToken(ctx, e.ID, forged); !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Fatalf("expected invalid format for forged token, got %v", err)
	}

	if _, err := f.svc.ValidateToken(ctx, other.ID, issued.Token); !errors.Is(err, apperr.ErrEventMismatch) {
		t.Fatalf("expected event mismatch, got %v", err)
	}

	if _, err := f.svc.ValidateToken(ctx, e.ID, "not-a-token"); !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Fatalf("expected invalid format, got %v", err)
	}

	unknown := f.svc.Signer.Sign(e.ID, t0.Add(-time.Hour)).String()
	if _, err := f.svc.ValidateToken(ctx, e.ID, unknown); !errors.Is(err, apperr.ErrTokenNotFound) {
		t.Fatalf("expected token not found for unissued token, got %v", err)
	}
}

func TestValidateChecksEventWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, func(e *event.Event) {
		e.StartDate = t0.Add(2 * time.Hour)
		e.EndDate = t0.Add(3 * time.Hour)
	})

	issued, err := f.svc.IssueToken(ctx, 1, e.ID, 48, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := f.svc.ValidateToken(ctx, e.ID, issued.Token); !errors.Is(err, apperr.ErrEventNotStarted) {
		t.Fatalf("expected event not started, got %v", err)
	}

	f.clock.Set(e.EndDate.Add(time.Minute))
	if _, err := f.svc.ValidateToken(ctx, e.ID, issued.Token); !errors.Is(err, apperr.ErrEventEnded) {
		t.Fatalf("expected event ended, got %v", err)
	}

	f.clock.Set(e.StartDate)
	if err := f.db.Model(&event.Event{}).Where("id = ?", e.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.svc.ValidateToken(ctx, e.ID, issued.Token); !errors.Is(err, apperr.ErrEventInactive) {
		t.Fatalf("expected event inactive, got %v", err)
	}
}

func TestReissueDeactivatesPreviousToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, nil)

	first, err := f.svc.IssueToken(ctx, 1, e.ID, 2, "")
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	f.clock.Advance(time.Second)
	second, err := f.svc.IssueToken(ctx, 1, e.ID, 2, "")
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if _, err := f.svc.ValidateToken(ctx, e.ID, first.Token); !errors.Is(err, apperr.ErrTokenNotFound) {
		t.Fatalf("expected first token not found, got %v", err)
	}
	if _, err := f.svc.ValidateToken(ctx, e.ID, second.Token); err != nil {
		t.Fatalf("second token: %v", err)
	}

	var active int64
	f.db.Model(&QRCode{}).Where("event_id = ? AND is_active = ?", e.ID, true).Count(&active)
	if active != 1 {
		t.Fatalf("expected exactly one active code, got %d", active)
	}
}

func TestIssueSameInstantGetsDistinctToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, nil)

	first, err := f.svc.IssueToken(ctx, 1, e.ID, 1, "")
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := f.svc.IssueToken(ctx, 1, e.ID, 1, "")
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("expected distinct tokens")
	}
}

func TestIssuePreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := f.seedEvent(t, func(e *event.Event) { e.IsActive = false })

	if _, err := f.svc.IssueToken(ctx, 1, 9999, 1, ""); !errors.Is(err, apperr.ErrEventNotFound) {
		t.Fatalf("expected event not found, got %v", err)
	}
	if _, err := f.svc.IssueToken(ctx, 1, inactive.ID, 1, ""); !errors.Is(err, apperr.ErrEventInactive) {
		t.Fatalf("expected event inactive, got %v", err)
	}
	if _, err := f.svc.IssueToken(ctx, 1, inactive.ID, 1, "dynamic"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown type, got %v", err)
	}
}

func TestRevokeTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, nil)

	issued, err := f.svc.IssueToken(ctx, 1, e.ID, 1, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := f.svc.RevokeToken(ctx, 1, e.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := f.svc.RevokeToken(ctx, 1, e.ID); !errors.Is(err, apperr.ErrNoActiveToken) {
		t.Fatalf("expected no active token, got %v", err)
	}

	var code QRCode
	if err := f.db.Where("qr_data = ?", issued.Token).First(&code).Error; err != nil {
		t.Fatalf("load code: %v", err)
	}
	if code.IsActive {
		t.Fatal("expected code to stay inactive")
	}
	if _, err := f.svc.ValidateToken(ctx, e.ID, issued.Token); !errors.Is(err, apperr.ErrTokenNotFound) {
		t.Fatalf("expected revoked token not found, got %v", err)
	}
	if _, err := f.svc.ActiveToken(ctx, e.ID); !errors.Is(err, apperr.ErrNoActiveToken) {
		t.Fatalf("expected no active token, got %v", err)
	}
}

func TestCheckInWithTokenAutoRegisters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, func(e *event.Event) {
		e.RegistrationRequired = true
		max := 1
		e.MaxAttendees = &max
	})

	issued, err := f.svc.IssueToken(ctx, 1, e.ID, 1, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	f.clock.Advance(5 * time.Minute)

	res, err := f.svc.CheckInWithToken(ctx, e.ID, issued.Token, 50)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if !res.AutoRegistered {
		t.Fatal("expected auto registration")
	}

	stored, _ := event.NewRepository(f.db).GetByID(ctx, e.ID)
	if stored.CurrentAttendees != 1 {
		t.Fatalf("expected counter 1, got %d", stored.CurrentAttendees)
	}
	a, err := f.att.Get(ctx, e.ID, 50)
	if err != nil || a.Method != attendance.MethodQR {
		t.Fatalf("expected qr attendance, got %+v (%v)", a, err)
	}

	// Event is full: a second walk-in is refused and leaves nothing behind.
	if _, err := f.svc.CheckInWithToken(ctx, e.ID, issued.Token, 51); !errors.Is(err, apperr.ErrCapacityExceeded) {
		t.Fatalf("expected capacity exceeded, got %v", err)
	}
	if _, err := f.att.Get(ctx, e.ID, 51); !errors.Is(err, apperr.ErrAttendanceNotFound) {
		t.Fatalf("expected no attendance for refused user, got %v", err)
	}

	// Same user again: already checked in, and the registration is not duplicated.
	if _, err := f.svc.CheckInWithToken(ctx, e.ID, issued.Token, 50); !errors.Is(err, apperr.ErrAlreadyCheckedIn) {
		t.Fatalf("expected already checked in, got %v", err)
	}
	stored, _ = event.NewRepository(f.db).GetByID(ctx, e.ID)
	if stored.CurrentAttendees != 1 {
		t.Fatalf("expected counter still 1, got %d", stored.CurrentAttendees)
	}

	if f.rec.Count(activity.TypeRegistered) != 1 || f.rec.Count(activity.TypeCheckedIn) != 1 {
		t.Fatalf("unexpected activity %+v", f.rec.Events())
	}
}

func TestCheckInWithTokenRollsBackRegistrationOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, func(e *event.Event) { e.RegistrationRequired = true })

	issued, err := f.svc.IssueToken(ctx, 1, e.ID, 1, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// A record already checked in without registration (e.g. before the
	// event switched to requiring registration) makes the check-in fail
	// after the auto-registration step.
	now := t0
	if err := f.db.Create(&attendance.Attendance{EventID: e.ID, UserID: 60, CheckInTime: &now, Status: attendance.StatusCheckedIn}).Error; err != nil {
		t.Fatalf("seed attendance: %v", err)
	}

	if _, err := f.svc.CheckInWithToken(ctx, e.ID, issued.Token, 60); !errors.Is(err, apperr.ErrAlreadyCheckedIn) {
		t.Fatalf("expected already checked in, got %v", err)
	}
	if _, err := f.regs.Get(ctx, e.ID, 60); !errors.Is(err, apperr.ErrRegistrationNotFound) {
		t.Fatalf("expected registration rolled back, got %v", err)
	}
	stored, _ := event.NewRepository(f.db).GetByID(ctx, e.ID)
	if stored.CurrentAttendees != 0 {
		t.Fatalf("expected counter rolled back, got %d", stored.CurrentAttendees)
	}
}

func TestCheckInWithTokenUsesExistingRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, func(e *event.Event) {
		e.RegistrationRequired = true
		e.StartDate = t0.Add(time.Hour)
	})

	if _, err := f.regs.Register(ctx, 70, e.ID, 70); err != nil {
		t.Fatalf("register: %v", err)
	}
	issued, err := f.svc.IssueToken(ctx, 1, e.ID, 3, "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	f.clock.Set(e.StartDate)
	res, err := f.svc.CheckInWithToken(ctx, e.ID, issued.Token, 70)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if res.AutoRegistered {
		t.Fatal("expected existing registration to be used")
	}
	stored, _ := event.NewRepository(f.db).GetByID(ctx, e.ID)
	if stored.CurrentAttendees != 1 {
		t.Fatalf("expected counter 1, got %d", stored.CurrentAttendees)
	}
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seedEvent(t, nil)
	b := f.seedEvent(t, nil)

	if _, err := f.svc.IssueToken(ctx, 1, a.ID, 1, ""); err != nil {
		t.Fatalf("issue a: %v", err)
	}
	if _, err := f.svc.IssueToken(ctx, 1, b.ID, 5, ""); err != nil {
		t.Fatalf("issue b: %v", err)
	}

	f.clock.Advance(2 * time.Hour)
	n, err := f.svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deactivated, got %d", n)
	}

	n, err = f.svc.SweepExpired(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected idempotent second sweep, got %d (%v)", n, err)
	}

	if _, err := f.svc.ActiveToken(ctx, a.ID); !errors.Is(err, apperr.ErrNoActiveToken) {
		t.Fatalf("expected a to have no active token, got %v", err)
	}
	if _, err := f.svc.ActiveToken(ctx, b.ID); err != nil {
		t.Fatalf("expected b to keep its token: %v", err)
	}
	if f.rec.Count(activity.TypeTokensExpired) != 1 {
		t.Fatalf("expected one expiry event, got %+v", f.rec.Events())
	}
}

func TestRenderPNG(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, nil)

	if _, err := f.svc.RenderPNG(ctx, e.ID, 256); !errors.Is(err, apperr.ErrNoActiveToken) {
		t.Fatalf("expected no active token, got %v", err)
	}
	if _, err := f.svc.IssueToken(ctx, 1, e.ID, 1, ""); err != nil {
		t.Fatalf("issue: %v", err)
	}
	png, err := f.svc.RenderPNG(ctx, e.ID, 256)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("expected PNG output")
	}
}

func TestCheckInURL(t *testing.T) {
	f := newFixture(t)
	got := f.svc.CheckInURL(3, "event-checkin:3:1:ab")
	if !strings.HasPrefix(got, "https://example.org/checkin?") || !strings.Contains(got, "event=3") {
		t.Fatalf("unexpected url %s", got)
	}
}
