package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ummahconnect/community-backend/config"
	"github.com/ummahconnect/community-backend/database"
	"github.com/ummahconnect/community-backend/internal/activity"
	"github.com/ummahconnect/community-backend/internal/attendance"
	"github.com/ummahconnect/community-backend/internal/auditlog"
	"github.com/ummahconnect/community-backend/internal/auth"
	"github.com/ummahconnect/community-backend/internal/event"
	"github.com/ummahconnect/community-backend/internal/invitation"
	"github.com/ummahconnect/community-backend/internal/notification"
	"github.com/ummahconnect/community-backend/internal/qrcode"
	"github.com/ummahconnect/community-backend/internal/registration"
	"github.com/ummahconnect/community-backend/middleware"
	"github.com/ummahconnect/community-backend/routes"
	"github.com/ummahconnect/community-backend/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Logger.Fatal().Err(err).Msg("❌ invalid configuration")
	}
	log := utils.InitLogger(cfg.LogLevel, cfg.LogJSON)

	db, err := database.Connect(cfg, utils.Component("database"))
	if err != nil {
		log.Fatal().Err(err).Msg("❌ database connection failed")
	}

	log.Info().Msg("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("❌ migration failed")
	}
	log.Info().Msg("✅ Database migrations completed")

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	rdb, err := database.ConnectRedis(rootCtx, cfg, utils.Component("redis"))
	if err != nil {
		log.Fatal().Err(err).Msg("❌ redis init failed")
	}
	defer rdb.Close()

	pub, err := activity.New(cfg, utils.Component("activity"))
	if err != nil {
		log.Fatal().Err(err).Msg("❌ activity stream init failed")
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn().Err(err).Msg("activity publisher close failed")
		}
	}()

	// ========== Services ==========
	auditSvc := auditlog.NewService(auditlog.NewRepository(db), utils.Component("audit"))

	userRepo := auth.NewRepository(db)
	authSvc := auth.NewService(userRepo, cfg.JWTAccessSecret, cfg.JWTAccessTTL())
	if created, err := auth.SeedAdmin(rootCtx, userRepo, authSvc, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("❌ failed to seed admin")
	} else if created {
		log.Info().Str("email", cfg.AdminEmail).Msg("✅ bootstrap admin created")
	}

	eventRepo := event.NewRepository(db)
	regRepo := registration.NewRepository(db)

	eventSvc := event.NewService(eventRepo, auditSvc)
	regSvc := registration.NewService(db, eventRepo, regRepo, auditSvc, pub, utils.Component("registration"))
	attSvc := attendance.NewService(db, eventRepo, regRepo, attendance.NewRepository(db), auditSvc, pub, utils.Component("attendance"))
	qrSvc := qrcode.NewService(db, eventRepo, qrcode.NewRepository(db), regSvc, attSvc, qrcode.Options{
		Secret:     cfg.QRSecret,
		BaseURL:    cfg.QRBaseURL,
		DefaultTTL: time.Duration(cfg.QRDefaultTTLHours) * time.Hour,
	}, auditSvc, pub, utils.Component("qrcode"))

	sender := notification.NewDispatcher(
		notification.NewEmailSender(cfg, utils.Component("email")),
		notification.NewLogSMSGateway(utils.Component("sms")),
	)
	inviteSvc := invitation.NewService(db, invitation.NewRepository(db), userRepo, authSvc,
		invitation.NewRedisOTPStore(rdb), sender, auditSvc, utils.Component("invitation"),
		cfg.FrontendURL, cfg.InviteTTL())

	sweeper := qrcode.NewSweeper(qrSvc, cfg.QRSweepInterval, utils.Component("sweeper"))
	if err := sweeper.Start(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("token sweeper init failed")
	}

	// ========== HTTP ==========
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(utils.Component("http")))

	routes.Setup(router, cfg, db, routes.Services{
		Auth:         authSvc,
		Audit:        auditSvc,
		Events:       eventSvc,
		Registration: regSvc,
		Attendance:   attSvc,
		QR:           qrSvc,
		Invitations:  inviteSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("🚀 Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-serverErrChan:
		log.Error().Err(err).Msg("server error")
	}

	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}
