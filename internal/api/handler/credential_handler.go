package handler

import (
	"github.com/gin-gonic/gin"

	"smart-schedule/internal/dto"
	"smart-schedule/internal/service"
	"smart-schedule/pkg/response"
)

// CredentialHandler 识别凭据 Handler
type CredentialHandler struct {
	store service.ScheduleStore
	env   service.Credential
}

// NewCredentialHandler 创建 CredentialHandler 实例
func NewCredentialHandler(store service.ScheduleStore, env service.Credential) *CredentialHandler {
	return &CredentialHandler{store: store, env: env}
}

// GetCredential 查询当前生效的凭据（Key 脱敏）
// GET /api/v1/credential
func (h *CredentialHandler) GetCredential(c *gin.Context) {
	saved := h.store.Credential(c.Request.Context())
	resolved := service.ResolveCredential(service.Credential{}, saved, h.env)

	resp := dto.CredentialResponse{
		HasAPIKey: resolved.APIKey != "",
		BaseURL:   resolved.BaseURL,
		Source:    "none",
	}
	switch {
	case saved.APIKey != "":
		resp.Source = "saved"
	case h.env.APIKey != "":
		resp.Source = "env"
	}
	if resp.HasAPIKey {
		resp.MaskedAPIKey = service.MaskAPIKey(resolved.APIKey)
	}
	response.OK(c, resp)
}

// UpdateCredential 保存凭据
// PUT /api/v1/credential
func (h *CredentialHandler) UpdateCredential(c *gin.Context) {
	var req dto.UpdateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParam, err.Error())
		return
	}

	cred := service.Credential{APIKey: req.APIKey, BaseURL: req.BaseURL}
	if err := h.store.SaveCredential(c.Request.Context(), cred); err != nil {
		handleServiceError(c, err)
		return
	}
	h.GetCredential(c)
}
