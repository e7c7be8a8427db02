package handler

import (
	"go.uber.org/zap"

	"smart-schedule/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Schedule   *ScheduleHandler
	Extraction *ExtractionHandler
	Credential *CredentialHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, maxImageBytes int64, logger *zap.Logger) *Handler {
	return &Handler{
		Schedule:   NewScheduleHandler(svc.Store, svc.Layout),
		Extraction: NewExtractionHandler(svc.Extraction, maxImageBytes),
		Credential: NewCredentialHandler(svc.Store, svc.EnvCred),
		Export:     NewExportHandler(svc.Export, logger),
	}
}
