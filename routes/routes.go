package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ummahconnect/community-backend/config"
	"github.com/ummahconnect/community-backend/internal/attendance"
	"github.com/ummahconnect/community-backend/internal/auditlog"
	"github.com/ummahconnect/community-backend/internal/auth"
	"github.com/ummahconnect/community-backend/internal/event"
	"github.com/ummahconnect/community-backend/internal/invitation"
	"github.com/ummahconnect/community-backend/internal/qrcode"
	"github.com/ummahconnect/community-backend/internal/registration"
	"github.com/ummahconnect/community-backend/middleware"
)

// Services are the domain services the HTTP layer exposes.
type Services struct {
	Auth         auth.Service
	Audit        auditlog.Service
	Events       *event.Service
	Registration *registration.Service
	Attendance   *attendance.Service
	QR           *qrcode.Service
	Invitations  *invitation.Service
}

// Setup registers middleware and every API route on r.
func Setup(r *gin.Engine, cfg *config.Config, db *gorm.DB, svc Services) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Content-Length", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter(cfg.RateLimitPerMinute))
	api.Use(middleware.AuditMiddleware())

	authHandler := auth.NewHandler(svc.Auth)
	auditHandler := auditlog.NewHandler(svc.Audit)
	eventHandler := event.NewHandler(svc.Events)
	regHandler := registration.NewHandler(svc.Registration)
	attHandler := attendance.NewHandler(svc.Attendance)
	qrHandler := qrcode.NewHandler(svc.QR)
	inviteHandler := invitation.NewHandler(svc.Invitations)

	staffOnly := middleware.RequireRoles(auth.RoleAdmin, auth.RoleStaff)

	// ========== Public ==========
	api.POST("/auth/login", authHandler.Login)
	api.POST("/invitations/accept", inviteHandler.Accept)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(svc.Auth))

	// ========== Events ==========
	eventRoutes := protected.Group("/events")
	{
		eventRoutes.GET("", eventHandler.ListEvents)
		eventRoutes.GET("/stats", staffOnly, eventHandler.GetEventStats)
		eventRoutes.GET("/:id", eventHandler.GetEventByID)

		writeRoutes := eventRoutes.Group("")
		writeRoutes.Use(staffOnly)
		{
			writeRoutes.POST("", eventHandler.CreateEvent)
			writeRoutes.PATCH("/:id", eventHandler.UpdateEvent)
			writeRoutes.DELETE("/:id", eventHandler.DeleteEvent)
		}

		// Registration ledger
		eventRoutes.POST("/:id/register", regHandler.Register)
		eventRoutes.DELETE("/:id/register", regHandler.Cancel)
		eventRoutes.GET("/:id/registrations", staffOnly, regHandler.ListForEvent)

		// Attendance
		eventRoutes.POST("/:id/attend", attHandler.Attend)
		eventRoutes.GET("/:id/attendance", staffOnly, attHandler.ListForEvent)
		eventRoutes.GET("/:id/attendance/summary", staffOnly, attHandler.Summary)

		// QR check-in
		eventRoutes.POST("/:id/generate-qr", staffOnly, qrHandler.GenerateQR)
		eventRoutes.DELETE("/:id/qr", staffOnly, qrHandler.RevokeQR)
		eventRoutes.GET("/:id/qr.png", staffOnly, qrHandler.QRImage)
		eventRoutes.GET("/:id/validate-checkin-token", qrHandler.ValidateToken)
		eventRoutes.POST("/:id/checkin-with-token", qrHandler.CheckInWithToken)
	}

	attendanceRoutes := protected.Group("/attendance")
	{
		attendanceRoutes.POST("/check-in", attHandler.CheckIn)
		attendanceRoutes.POST("/check-out", attHandler.CheckOut)
	}

	protected.GET("/me/registrations", regHandler.ListMine)

	// ========== Invitations (staff) ==========
	inviteRoutes := protected.Group("/invitations")
	inviteRoutes.Use(staffOnly)
	{
		inviteRoutes.POST("", inviteHandler.Invite)
		inviteRoutes.GET("", inviteHandler.List)
		inviteRoutes.DELETE("/:id", inviteHandler.Revoke)
	}

	// ========== Audit Logs (admin only) ==========
	protected.GET("/audit-logs", middleware.RequireRoles(auth.RoleAdmin), auditHandler.GetAuditLogs)
}
