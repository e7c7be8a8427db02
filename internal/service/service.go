package service

import (
	"go.uber.org/zap"

	"smart-schedule/config"
	"smart-schedule/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Store      ScheduleStore
	Extraction ExtractionService
	Export     ExportService
	Layout     LayoutOptions
	EnvCred    Credential // 环境默认凭据，仅用于展示是否已配置
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	vision VisionClient,
	logger *zap.Logger,
) *Service {
	store := NewScheduleStore(repo, logger)
	return &Service{
		Store:      store,
		Extraction: NewExtractionService(cfg, store, vision, logger),
		Export:     NewExportService(cfg, store, logger),
		Layout:     LayoutOptions{MinPeriods: cfg.Layout.MinPeriods, LongPress: cfg.Layout.LongPress},
		EnvCred:    Credential{APIKey: cfg.Gemini.APIKey, BaseURL: cfg.Gemini.BaseURL},
	}
}
