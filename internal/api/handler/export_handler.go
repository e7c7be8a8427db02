package handler

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smart-schedule/internal/dto"
	"smart-schedule/internal/service"
	"smart-schedule/pkg/response"
)

// 日历导入文件大小上限
const maxICSUploadBytes = 5 << 20

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
	logger    *zap.Logger
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, logger: logger}
}

// ExportXLSX 导出课表为 Excel
// GET /api/v1/export/xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportXLSX(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	writeAttachment(c, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportICS 导出课表为 iCalendar
// GET /api/v1/export/ics?week_start=2025-02-24
func (h *ExportHandler) ExportICS(c *gin.Context) {
	var q dto.ExportICSQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, codeInvalidParam, err.Error())
		return
	}

	weekStart := time.Now()
	if q.WeekStart != "" {
		// 已通过 datetime 校验；取当天正午，换算到导出时区后仍落在同一天
		d, _ := time.Parse("2006-01-02", q.WeekStart)
		weekStart = d.Add(12 * time.Hour)
	}

	buf, filename, err := h.exportSvc.ExportICS(c.Request.Context(), weekStart)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	writeAttachment(c, filename, "text/calendar; charset=utf-8", buf.Bytes())
}

// ImportICS 从导出的 iCalendar 恢复课表
// POST /api/v1/schedule/import/ics（multipart/form-data, field="file"）
func (h *ExportHandler) ImportICS(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, codeInvalidParam, "请上传 ICS 文件")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxICSUploadBytes+1))
	if err != nil {
		h.logger.Warn("读取 ICS 文件失败", zap.Error(err))
		response.BadRequest(c, codeInvalidParam, "读取 ICS 文件失败")
		return
	}

	data, err := h.exportSvc.ImportICS(c.Request.Context(), content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, dto.NewScheduleResponse(data))
}

// writeAttachment 设置下载响应头并写入文件内容
func writeAttachment(c *gin.Context, filename, contentType string, body []byte) {
	encodedFilename := url.PathEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, body)
}
