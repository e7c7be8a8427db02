package service

import "strings"

// Credential 识别调用凭据
type Credential struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"` // 可选的代理/备用接口地址
}

// ResolveCredential 依次取用户输入、上次保存的值、环境默认值（均去除首尾空白）
// API Key 与 BaseURL 独立回退；API Key 为空表示无可用凭据
func ResolveCredential(input, persisted, env Credential) Credential {
	return Credential{
		APIKey:  firstNonBlank(input.APIKey, persisted.APIKey, env.APIKey),
		BaseURL: firstNonBlank(input.BaseURL, persisted.BaseURL, env.BaseURL),
	}
}

// MaskAPIKey 脱敏展示：保留前 4 位与后 4 位
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
