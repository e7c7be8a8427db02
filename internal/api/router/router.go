package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smart-schedule/config"
	"smart-schedule/internal/api/handler"
	"smart-schedule/internal/api/middleware"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时识别接口不限流
func Setup(cfg *config.Config, h *handler.Handler, limiter middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 识别模块
		extractions := v1.Group("/extractions")
		{
			extractions.POST("", middleware.RateLimit(limiter, cfg.Extraction.RateLimit, cfg.Extraction.RateWindow), h.Extraction.Extract)
			extractions.GET("/status", h.Extraction.GetStatus)
		}

		// 课表模块
		schedule := v1.Group("/schedule")
		{
			schedule.GET("", h.Schedule.GetSchedule)
			schedule.PUT("", h.Schedule.ReplaceSchedule)
			schedule.DELETE("", h.Schedule.ClearSchedule)
			schedule.POST("/courses", h.Schedule.AddCourse)
			schedule.PUT("/courses/:id", h.Schedule.UpdateCourse)
			schedule.DELETE("/courses/:id", h.Schedule.DeleteCourse)
			schedule.GET("/layout", h.Schedule.GetLayout)
			schedule.GET("/cell", h.Schedule.PressCell)
			schedule.POST("/import/ics", h.Export.ImportICS)
		}

		// 凭据模块
		credential := v1.Group("/credential")
		{
			credential.GET("", h.Credential.GetCredential)
			credential.PUT("", h.Credential.UpdateCredential)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/xlsx", h.Export.ExportXLSX)
			export.GET("/ics", h.Export.ExportICS)
		}
	}

	return r
}
