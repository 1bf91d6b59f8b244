package qrcode

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

func (f *fixture) activeTokens(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&QRCode{}).Where("is_active = ?", true).Count(&n).Error; err != nil {
		t.Fatalf("count active: %v", err)
	}
	return n
}

func TestSweeperStartSweepsImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, nil)

	if _, err := f.svc.IssueToken(ctx, 1, e.ID, 1, ""); err != nil {
		t.Fatalf("issue: %v", err)
	}
	f.clock.Advance(2 * time.Hour)

	w := NewSweeper(f.svc, time.Hour, zerolog.Nop())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if n := f.activeTokens(t); n != 0 {
		t.Fatalf("expected expired token deactivated on start, %d still active", n)
	}
}

func TestSweeperRunsOnSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.seedEvent(t, nil)

	w := NewSweeper(f.svc, time.Second, zerolog.Nop())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if _, err := f.svc.IssueToken(ctx, 1, e.ID, 1, ""); err != nil {
		t.Fatalf("issue: %v", err)
	}
	f.clock.Advance(2 * time.Hour)

	deadline := time.Now().Add(5 * time.Second)
	for f.activeTokens(t) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduled sweep did not deactivate the expired token")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestSweeperSchedule(t *testing.T) {
	w := NewSweeper(nil, 5*time.Minute, zerolog.Nop())
	spec := w.Schedule()
	if spec != "@every 5m0s" {
		t.Fatalf("unexpected schedule %q", spec)
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		t.Fatalf("parse schedule: %v", err)
	}
	from := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	if next := sched.Next(from); !next.Equal(from.Add(5 * time.Minute)) {
		t.Fatalf("expected next run at +5m, got %s", next)
	}
}

func TestSweeperRunOnce(t *testing.T) {
	f := newFixture(t)
	w := NewSweeper(f.svc, time.Minute, zerolog.Nop())
	if n := w.RunOnce(context.Background()); n != 0 {
		t.Fatalf("expected nothing to sweep, got %d", n)
	}
	// never started
	w.Stop()
}
