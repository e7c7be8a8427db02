package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"smart-schedule/internal/dto"
	"smart-schedule/internal/service"
	"smart-schedule/pkg/response"
)

// ExtractionHandler 图片识别 Handler
type ExtractionHandler struct {
	svc           service.ExtractionService
	maxImageBytes int64
}

// NewExtractionHandler 创建 ExtractionHandler 实例
func NewExtractionHandler(svc service.ExtractionService, maxImageBytes int64) *ExtractionHandler {
	return &ExtractionHandler{svc: svc, maxImageBytes: maxImageBytes}
}

// Extract 上传课表图片并识别
// POST /api/v1/extractions
//
// multipart/form-data:
//   - file: 图片（必填）
//   - api_key / base_url: 可选，为空时使用上次保存的值或服务端默认值
func (h *ExtractionHandler) Extract(c *gin.Context) {
	var form dto.ExtractionForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, codeInvalidParam, err.Error())
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, codeInvalidImage, "请上传课表图片")
		return
	}
	defer file.Close()

	if h.maxImageBytes > 0 && header.Size > h.maxImageBytes {
		response.BadRequest(c, codeInvalidImage, fmt.Sprintf("图片过大，最大支持 %d MB", h.maxImageBytes>>20))
		return
	}

	data, err := h.svc.Extract(c.Request.Context(), service.ExtractInput{
		Image:    file,
		MimeType: header.Header.Get("Content-Type"),
		APIKey:   form.APIKey,
		BaseURL:  form.BaseURL,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, dto.NewScheduleResponse(data))
}

// GetStatus 查询最近一次识别状态
// GET /api/v1/extractions/status
func (h *ExtractionHandler) GetStatus(c *gin.Context) {
	response.OK(c, h.svc.Status())
}
