package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("QR_SECRET", "qr")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.QRSweepInterval != 5*time.Minute {
		t.Fatalf("expected 5m sweep interval, got %s", cfg.QRSweepInterval)
	}
	if cfg.ActivityBroker != "none" {
		t.Fatalf("expected broker none, got %s", cfg.ActivityBroker)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 default origins, got %v", cfg.CORSOrigins)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("QR_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "JWT_ACCESS_SECRET") || !strings.Contains(err.Error(), "QR_SECRET") {
		t.Fatalf("expected both secrets reported, got %v", err)
	}
}

func TestLoadKafkaNeedsBrokers(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("QR_SECRET", "qr")
	t.Setenv("ACTIVITY_BROKER", "kafka")
	t.Setenv("KAFKA_BROKERS", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "KAFKA_BROKERS") {
		t.Fatalf("expected KAFKA_BROKERS error, got %v", err)
	}

	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("expected 2 brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestDSNPrefersDatabaseURL(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://u:p@db/x", DBHost: "ignored"}
	if cfg.DSN() != "postgres://u:p@db/x" {
		t.Fatalf("unexpected dsn %s", cfg.DSN())
	}
	cfg.DatabaseURL = ""
	if !strings.Contains(cfg.DSN(), "host=ignored") {
		t.Fatalf("expected host in dsn, got %s", cfg.DSN())
	}
}
