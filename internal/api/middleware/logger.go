package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 健康检查由编排系统高频调用，成功时只记 debug
const healthPath = "/health"

// Logger 请求日志中间件
// Handler 通过 c.Error 附加的底层错误（如上游响应体）只在这里输出，不返回给前端
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int("resp_bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if c.Request.ContentLength > 0 {
			// 上传图片与日历文件的大小
			fields = append(fields, zap.Int64("req_bytes", c.Request.ContentLength))
		}
		if rid := GetRequestID(c); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, zap.String("errors", errs.String()))
		}

		switch {
		case status >= 500:
			logger.Error("接口异常", fields...)
		case status >= 400:
			logger.Warn("请求被拒绝", fields...)
		case route == healthPath:
			logger.Debug("健康检查", fields...)
		default:
			logger.Info("接口调用", fields...)
		}
	}
}
