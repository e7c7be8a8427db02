package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL 官方接口地址
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// 响应体读取上限，防止异常响应占满内存
const maxResponseBytes = 8 << 20

// APIError 服务端返回的非 2xx 错误
type APIError struct {
	StatusCode int
	Status     string // 如 INVALID_ARGUMENT
	Reason     string // 如 API_KEY_INVALID
	Message    string
	Body       string
}

// UserMessage 可展示给用户的错误描述：优先使用服务端的 message，
// 否则只给出状态码；原始响应体只用于日志
func (e *APIError) UserMessage() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return fmt.Sprintf("服务返回 HTTP %d %s", e.StatusCode, text)
	}
	return fmt.Sprintf("服务返回 HTTP %d", e.StatusCode)
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("Gemini API %d %s: %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("Gemini API %d: %s", e.StatusCode, e.Body)
}

// Client 最小化的 generateContent 调用封装
// 每次调用仅发起一次 HTTP 请求，不做重试
type Client struct {
	httpClient *http.Client
	model      string
}

// NewClient 创建客户端；timeout<=0 时使用 120s
func NewClient(model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		model:      model,
	}
}

// Model 当前使用的模型名
func (c *Client) Model() string { return c.model }

// Endpoint 拼接 generateContent 地址；baseURL 为空时使用官方地址
func (c *Client) Endpoint(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/v1beta/models/" + c.model + ":generateContent"
}

// GenerateContent 发送请求并返回首个候选的文本（跳过 thought 片段）
// 无候选或无文本时返回空字符串，由调用方判定
func (c *Client) GenerateContent(ctx context.Context, baseURL, apiKey string, reqBody *GenerateRequest) (string, error) {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(baseURL), bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求 Gemini 失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("读取 Gemini 响应失败: %w", err)
	}

	var gr GenerateResponse
	decodeErr := json.Unmarshal(body, &gr)

	if resp.StatusCode != http.StatusOK {
		return "", newAPIError(resp.StatusCode, body, gr.Error)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("解析 Gemini 响应失败: %w", decodeErr)
	}
	if gr.Error != nil {
		return "", newAPIError(gr.Error.Code, body, gr.Error)
	}

	if len(gr.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		if p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func newAPIError(statusCode int, body []byte, eb *errorBody) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}
	if eb == nil {
		return apiErr
	}
	apiErr.Status = eb.Status
	apiErr.Message = eb.Message
	for _, d := range eb.Details {
		if d.Reason != "" {
			apiErr.Reason = d.Reason
			break
		}
	}
	return apiErr
}
