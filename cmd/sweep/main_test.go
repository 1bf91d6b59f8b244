package main

import (
	"strings"
	"testing"
)

func TestRunReturnsConfigError(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("QR_SECRET", "")

	err := run()
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("unexpected error %v", err)
	}
}
