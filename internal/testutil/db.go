// Package testutil provides an in-memory database for storage-backed tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database and migrates models.
// The pool holds a single connection, so concurrent transactions run one
// after another the way row locks serialize them on postgres.
func NewDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Clock is a settable time source for services under test.
type Clock struct {
	now atomic.Int64
}

func NewClock(start time.Time) *Clock {
	c := &Clock{}
	c.Set(start)
	return c
}

func (c *Clock) Now() time.Time {
	return time.Unix(0, c.now.Load()).UTC()
}

func (c *Clock) Set(t time.Time) {
	c.now.Store(t.UnixNano())
}

func (c *Clock) Advance(d time.Duration) {
	c.now.Add(int64(d))
}
