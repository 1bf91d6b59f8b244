package auditlog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ummahconnect/community-backend/internal/auth"
	"github.com/ummahconnect/community-backend/internal/testutil"
)

func uintPtr(n uint) *uint { return &n }

func TestLogActionAndFilter(t *testing.T) {
	db := testutil.NewDB(t, &auth.User{}, &AuditLog{})
	email := "staff@example.org"
	staff := &auth.User{FullName: "Desk Staff", Email: &email, PasswordHash: "x", Role: auth.RoleStaff, Status: auth.StatusActive}
	if err := db.Create(staff).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	svc := NewService(NewRepository(db), zerolog.Nop())
	ctx := WithIP(context.Background(), "203.0.113.7")

	entries := []struct {
		user    *uint
		event   *uint
		action  string
		status  string
		details map[string]interface{}
	}{
		{&staff.ID, uintPtr(1), "EVENT_REGISTERED", StatusSuccess, map[string]interface{}{"user_id": 5}},
		{&staff.ID, uintPtr(1), "EVENT_CHECKIN", StatusSuccess, nil},
		{nil, uintPtr(2), "EVENT_CHECKIN", StatusFailure, map[string]interface{}{"error": "event has ended"}},
		{&staff.ID, nil, "INVITATION_SENT", StatusSuccess, nil},
	}
	for _, e := range entries {
		if err := svc.LogAction(ctx, e.user, e.event, e.action, e.details, e.status); err != nil {
			t.Fatalf("log %s: %v", e.action, err)
		}
	}

	all, err := svc.GetAuditLogs(context.Background(), AuditLogFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 4 || all.Page != 1 || all.Limit != 20 || all.TotalPages != 1 {
		t.Fatalf("unexpected page %+v", all)
	}
	latest := all.Data[0]
	if latest.Action != "INVITATION_SENT" || latest.IPAddress != "203.0.113.7" {
		t.Fatalf("expected newest entry first with ip, got %+v", latest)
	}
	if latest.UserName == nil || *latest.UserName != "Desk Staff" {
		t.Fatalf("expected joined user name, got %v", latest.UserName)
	}

	checkins, err := svc.GetAuditLogs(context.Background(), AuditLogFilter{Action: "checkin"})
	if err != nil {
		t.Fatalf("filter action: %v", err)
	}
	if checkins.Total != 2 {
		t.Fatalf("expected 2 check-in entries, got %d", checkins.Total)
	}

	failed, err := svc.GetAuditLogs(context.Background(), AuditLogFilter{EventID: uintPtr(2), Status: StatusFailure})
	if err != nil {
		t.Fatalf("filter status: %v", err)
	}
	if failed.Total != 1 || failed.Data[0].UserName != nil {
		t.Fatalf("expected one anonymous failure, got %+v", failed.Data)
	}
	var details map[string]string
	if err := json.Unmarshal(failed.Data[0].Details, &details); err != nil || details["error"] != "event has ended" {
		t.Fatalf("unexpected details %s (%v)", failed.Data[0].Details, err)
	}

	paged, err := svc.GetAuditLogs(context.Background(), AuditLogFilter{Limit: 3, Page: 2})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(paged.Data) != 1 || paged.TotalPages != 2 {
		t.Fatalf("expected 1 row on page 2 of 2, got %d rows, %d pages", len(paged.Data), paged.TotalPages)
	}
}

func TestIPFromEmptyContext(t *testing.T) {
	if ip := IPFrom(context.Background()); ip != "" {
		t.Fatalf("expected empty ip, got %q", ip)
	}
}
