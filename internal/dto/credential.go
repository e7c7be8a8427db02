package dto

// UpdateCredentialRequest 保存凭据请求
type UpdateCredentialRequest struct {
	APIKey  string `json:"api_key" binding:"required,max=200"`
	BaseURL string `json:"base_url" binding:"omitempty,url"`
}

// CredentialResponse 凭据状态（Key 脱敏）
type CredentialResponse struct {
	HasAPIKey    bool   `json:"has_api_key"`
	MaskedAPIKey string `json:"masked_api_key,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
	Source       string `json:"source"` // saved | env | none
}
