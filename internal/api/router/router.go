package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leave-tracker/config"
	"leave-tracker/internal/api/handler"
	"leave-tracker/internal/api/middleware"
	"leave-tracker/pkg/jwt"
	"leave-tracker/pkg/redis"
)

const (
	maxBodyBytes = 1 << 20

	loginRateLimit  = 10
	submitRateLimit = 20
	rateLimitWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.GET("/verify/:token", h.Auth.VerifyEmail)
			auth.POST("/login", middleware.RateLimit(rdb, loginRateLimit, rateLimitWindow), h.Auth.Login)
			auth.POST("/forgot", middleware.RateLimit(rdb, loginRateLimit, rateLimitWindow), h.Auth.ForgotPassword)
			auth.GET("/reset/:token", h.Auth.OpenResetLink)
			auth.POST("/reset/:token", h.Auth.ResetPassword)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.DELETE("/auth/me", h.Auth.DeleteAccount)

			// 请假模块
			leaves := authorized.Group("/leaves")
			{
				leaves.POST("", middleware.RateLimit(rdb, submitRateLimit, rateLimitWindow), h.Leave.Submit)
				leaves.GET("", h.Leave.List)
				leaves.GET("/calendar", h.Leave.ListByMonth)
				leaves.GET("/calendar.ics", h.Leave.CalendarFeed)
				leaves.POST("/delete", h.Leave.Delete)
				leaves.GET("/export", h.Leave.Export)
			}

			authorized.GET("/dashboard", h.Dashboard.Get)

			// 管理模块
			admin := authorized.Group("/admin")
			admin.Use(middleware.RoleAuth("admin"))
			{
				admin.GET("/users", h.User.ListUsers)
				admin.DELETE("/users/:id", h.User.DeleteUser)
				admin.POST("/users/:id/toggle-admin", h.User.ToggleAdmin)
				admin.POST("/users/:id/toggle-verified", h.User.ToggleVerified)

				admin.GET("/leaves", h.Admin.ListLeaveRecords)
				admin.POST("/leaves/resync", h.Admin.ResyncLeaves)
				admin.POST("/reports/visits", h.Admin.PushVisitReport)
			}
		}
	}

	return r
}
