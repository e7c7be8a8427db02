package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smart-schedule/config"
	"smart-schedule/internal/api/handler"
	"smart-schedule/internal/api/middleware"
	"smart-schedule/internal/api/router"
	"smart-schedule/internal/repository"
	"smart-schedule/internal/service"
	"smart-schedule/pkg/database"
	"smart-schedule/pkg/gemini"
	applogger "smart-schedule/pkg/logger"
	"smart-schedule/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("SCHEDULE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("model", cfg.Gemini.Model),
	)

	// 3. 初始化持久化后端
	var (
		db   *gorm.DB
		rdb  *redis.Client
		repo *repository.Repository
	)
	switch cfg.Store.Driver {
	case "postgres":
		db, err = database.NewDB(&cfg.Database, cfg.Log.Level, logger)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
		repo = repository.NewRepository(db)
	case "redis":
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Fatal("Redis 连接失败", zap.Error(err))
		}
		repo = repository.NewRedisRepository(rdb, cfg.Store.KeyPrefix)
	default:
		logger.Warn("使用内存存储，重启后课表与凭据将丢失")
		repo = repository.NewMemoryRepository()
	}

	// 3.1 限流依赖 Redis（可选：连接失败时降级运行，不中断启动）
	if rdb == nil && cfg.Extraction.RateLimit > 0 {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，识别接口限流将不可用", zap.Error(err))
			rdb = nil
		}
	}
	var limiter middleware.RateLimiter
	if rdb != nil {
		limiter = rdb
	}

	// 4. 依赖注入: Repository → Service → Handler
	visionClient := gemini.NewClient(cfg.Gemini.Model, cfg.Gemini.Timeout)
	svc := service.NewService(cfg, repo, visionClient, logger)

	// 4.1 恢复上次保存的课表，读取失败时以空课表启动
	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Store.Rehydrate(restoreCtx); err != nil {
		logger.Warn("恢复已保存课表失败，以空课表启动", zap.Error(err))
	}
	restoreCancel()

	h := handler.NewHandler(svc, cfg.Extraction.MaxImageBytes, logger)

	// 5. 初始化路由
	engine := router.Setup(cfg, h, limiter, logger)

	// 6. 启动 HTTP 服务器（优雅关闭）
	// 识别请求需等待视觉服务返回，写超时需长于其超时时间
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Gemini.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 7. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if db != nil {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
