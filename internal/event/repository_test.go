package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/ummahconnect/community-backend/internal/event"
	"github.com/ummahconnect/community-backend/internal/testutil"
)

func seedEvent(t *testing.T, repo *event.Repository, capacity *int, current int) *event.Event {
	t.Helper()
	e := &event.Event{
		Title:                "Quran night",
		Location:             "Hall",
		Category:             event.CategoryEducation,
		StartDate:            t0,
		EndDate:              t0.Add(2 * time.Hour),
		MaxAttendees:         capacity,
		CurrentAttendees:     current,
		RegistrationRequired: true,
		IsActive:             true,
		CreatedBy:            1,
	}
	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return e
}

func attendees(t *testing.T, repo *event.Repository, id uint) int {
	t.Helper()
	e, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	return e.CurrentAttendees
}

func TestIncrementAttendeesStopsAtCapacity(t *testing.T) {
	db := testutil.NewDB(t, &event.Event{})
	repo := event.NewRepository(db)
	ctx := context.Background()
	e := seedEvent(t, repo, intPtr(2), 0)

	for i, want := range []bool{true, true, false, false} {
		ok, err := repo.IncrementAttendees(ctx, e.ID)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if ok != want {
			t.Fatalf("increment %d: expected %v, got %v", i, want, ok)
		}
	}
	if n := attendees(t, repo, e.ID); n != 2 {
		t.Fatalf("expected counter to stay at 2, got %d", n)
	}
}

func TestIncrementAttendeesRefusesFullEventWithStaleRead(t *testing.T) {
	db := testutil.NewDB(t, &event.Event{})
	repo := event.NewRepository(db)
	ctx := context.Background()
	e := seedEvent(t, repo, intPtr(1), 0)

	// e still says 0 attendees; the guard must look at the stored row.
	if ok, err := repo.IncrementAttendees(ctx, e.ID); err != nil || !ok {
		t.Fatalf("first increment: ok=%v err=%v", ok, err)
	}
	if e.IsFull() {
		t.Fatal("expected the stale copy to look open")
	}
	if ok, err := repo.IncrementAttendees(ctx, e.ID); err != nil || ok {
		t.Fatalf("expected second increment refused, ok=%v err=%v", ok, err)
	}
	if n := attendees(t, repo, e.ID); n != 1 {
		t.Fatalf("expected 1 attendee, got %d", n)
	}
}

func TestIncrementAttendeesUnlimited(t *testing.T) {
	db := testutil.NewDB(t, &event.Event{})
	repo := event.NewRepository(db)
	ctx := context.Background()
	e := seedEvent(t, repo, nil, 0)

	for i := 0; i < 50; i++ {
		ok, err := repo.IncrementAttendees(ctx, e.ID)
		if err != nil || !ok {
			t.Fatalf("increment %d: ok=%v err=%v", i, ok, err)
		}
	}
	if n := attendees(t, repo, e.ID); n != 50 {
		t.Fatalf("expected 50 attendees, got %d", n)
	}
}

func TestDecrementAttendeesNeverNegative(t *testing.T) {
	db := testutil.NewDB(t, &event.Event{})
	repo := event.NewRepository(db)
	ctx := context.Background()
	e := seedEvent(t, repo, intPtr(5), 1)

	for i := 0; i < 3; i++ {
		if err := repo.DecrementAttendees(ctx, e.ID); err != nil {
			t.Fatalf("decrement %d: %v", i, err)
		}
	}
	if n := attendees(t, repo, e.ID); n != 0 {
		t.Fatalf("expected counter at 0, got %d", n)
	}
}

func TestIsFull(t *testing.T) {
	tests := []struct {
		name    string
		max     *int
		current int
		want    bool
	}{
		{"unlimited", nil, 1000, false},
		{"room left", intPtr(3), 2, false},
		{"at capacity", intPtr(3), 3, true},
	}
	for _, tt := range tests {
		e := event.Event{MaxAttendees: tt.max, CurrentAttendees: tt.current}
		if got := e.IsFull(); got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
