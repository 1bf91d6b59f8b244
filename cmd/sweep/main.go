// Command sweep deactivates expired check-in tokens once and exits. It is
// meant for cron-style schedulers when the server's own sweeper is not enough.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ummahconnect/community-backend/config"
	"github.com/ummahconnect/community-backend/database"
	"github.com/ummahconnect/community-backend/internal/activity"
	"github.com/ummahconnect/community-backend/internal/auditlog"
	"github.com/ummahconnect/community-backend/internal/event"
	"github.com/ummahconnect/community-backend/internal/qrcode"
	"github.com/ummahconnect/community-backend/utils"
)

func main() {
	if err := run(); err != nil {
		utils.Logger.Error().Err(err).Msg("sweep failed")
		os.Exit(1)
	}
}

// run keeps every deferred cleanup inside its own frame so main can exit
// with a status code afterwards.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := utils.InitLogger(cfg.LogLevel, cfg.LogJSON)

	db, err := database.Connect(cfg, utils.Component("database"))
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	pub, err := activity.New(cfg, utils.Component("activity"))
	if err != nil {
		return fmt.Errorf("activity stream init: %w", err)
	}
	defer pub.Close()

	// Sweeping never registers or checks anyone in, so those collaborators stay nil.
	svc := qrcode.NewService(db, event.NewRepository(db), qrcode.NewRepository(db), nil, nil, qrcode.Options{
		Secret:     cfg.QRSecret,
		BaseURL:    cfg.QRBaseURL,
		DefaultTTL: time.Duration(cfg.QRDefaultTTLHours) * time.Hour,
	}, auditlog.Nop{}, pub, utils.Component("qrcode"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := svc.SweepExpired(ctx)
	if err != nil {
		return err
	}
	log.Info().Int64("deactivated", n).Msg("sweep complete")
	return nil
}
