package database

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ummahconnect/community-backend/internal/qrcode"
	"github.com/ummahconnect/community-backend/internal/testutil"
)

func TestMigrateAllowsOneActiveTokenPerEvent(t *testing.T) {
	db := testutil.NewDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// idempotent
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	expires := time.Now().UTC().Add(time.Hour)
	code := func(active bool) *qrcode.QRCode {
		return &qrcode.QRCode{
			ID:        uuid.New(),
			EventID:   7,
			QRData:    uuid.NewString(),
			Type:      qrcode.TypeBasic,
			ExpiresAt: expires,
			IsActive:  active,
		}
	}

	if err := db.Create(code(true)).Error; err != nil {
		t.Fatalf("first active: %v", err)
	}
	if err := db.Create(code(false)).Error; err != nil {
		t.Fatalf("inactive alongside active: %v", err)
	}
	if err := db.Create(code(true)).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey for second active token, got %v", err)
	}
}
