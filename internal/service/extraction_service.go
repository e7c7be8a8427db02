package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"smart-schedule/config"
	"smart-schedule/internal/model"
	apperrors "smart-schedule/pkg/errors"
	"smart-schedule/pkg/gemini"
)

// ProcessingState 识别流程状态
type ProcessingState string

const (
	StateIdle      ProcessingState = "idle"
	StateAnalyzing ProcessingState = "analyzing"
	StateSuccess   ProcessingState = "success"
	StateError     ProcessingState = "error"
)

// ExtractionStatus 最近一次识别的状态快照
type ExtractionStatus struct {
	State     ProcessingState `json:"state"`
	Message   string          `json:"message,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// VisionClient 视觉模型调用抽象，便于测试替换
type VisionClient interface {
	GenerateContent(ctx context.Context, baseURL, apiKey string, req *gemini.GenerateRequest) (string, error)
}

// ExtractInput 一次识别的输入
type ExtractInput struct {
	Image    io.Reader
	MimeType string // 可为空，为空时按内容识别
	APIKey   string // 用户输入，为空时回退到已保存/环境配置
	BaseURL  string
}

// ExtractionService 课表图片识别接口
//
// 设计说明：
//   - 同一时刻只允许一个识别任务，重复提交返回 ErrExtractionInProgress
//   - 只调用一次视觉模型，不做重试；失败时已有课表保持不变
//   - 成功后整体替换当前课表，并保存本次使用的凭据
type ExtractionService interface {
	Extract(ctx context.Context, in ExtractInput) (*model.ScheduleData, error)
	Status() ExtractionStatus
}

type extractionService struct {
	store  ScheduleStore
	client VisionClient
	env    Credential
	opts   RequestOptions
	maxImg int64
	logger *zap.Logger

	sem      *semaphore.Weighted
	statusMu sync.RWMutex
	status   ExtractionStatus
}

// NewExtractionService 创建 ExtractionService 实例
func NewExtractionService(cfg *config.Config, store ScheduleStore, client VisionClient, logger *zap.Logger) ExtractionService {
	return &extractionService{
		store:  store,
		client: client,
		env:    Credential{APIKey: cfg.Gemini.APIKey, BaseURL: cfg.Gemini.BaseURL},
		opts: RequestOptions{
			ThinkingBudget:     cfg.Extraction.ThinkingBudget,
			RequestAnalysisLog: cfg.Extraction.RequestAnalysisLog,
		},
		maxImg: cfg.Extraction.MaxImageBytes,
		logger: logger,
		sem:    semaphore.NewWeighted(1),
		status: ExtractionStatus{State: StateIdle, UpdatedAt: time.Now()},
	}
}

// ═══════════════════════════════════════════════════════════
// Extract: 图片 → 课表
// ═══════════════════════════════════════════════════════════
//
// 流程：
//   1. 解析凭据（输入 > 已保存 > 环境），缺失时不发起任何网络请求
//   2. 读取并编码图片
//   3. 构建请求并调用视觉模型
//   4. 解析、校验、规范化
//   5. 替换课表并保存凭据

func (s *extractionService) Extract(ctx context.Context, in ExtractInput) (*model.ScheduleData, error) {
	if !s.sem.TryAcquire(1) {
		return nil, apperrors.New(apperrors.ErrExtractionInProgress, "已有识别任务正在进行，请稍候", nil)
	}
	defer s.sem.Release(1)

	s.setStatus(StateAnalyzing, "")

	data, cred, err := s.extract(ctx, in)
	if err != nil {
		s.setStatus(StateError, apperrors.UserMessage(err, "识别失败，请重试"))
		return nil, err
	}

	if err := s.store.Load(ctx, data); err != nil {
		s.logger.Error("保存识别结果失败", zap.Error(err))
		s.setStatus(StateError, "保存课表失败")
		return nil, err
	}
	if err := s.store.SaveCredential(ctx, cred); err != nil {
		// 课表已保存，凭据保存失败不影响本次结果
		s.logger.Warn("保存凭据失败", zap.Error(err))
	}

	s.setStatus(StateSuccess, "")

	// 其他请求可能已在 Load 之后修改课表，返回本次识别的结果
	s.logger.Info("课表识别成功",
		zap.String("schedule", data.DisplayName()),
		zap.Int("courses", len(data.Courses)),
	)
	return data.Clone(), nil
}

func (s *extractionService) Status() ExtractionStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// ── 私有辅助方法 ──

func (s *extractionService) extract(ctx context.Context, in ExtractInput) (*model.ScheduleData, Credential, error) {
	cred := ResolveCredential(
		Credential{APIKey: in.APIKey, BaseURL: in.BaseURL},
		s.store.Credential(ctx),
		s.env,
	)
	if cred.APIKey == "" {
		return nil, cred, apperrors.New(apperrors.ErrMissingCredential, "请先填写 API Key", nil)
	}

	img, err := EncodeImage(in.Image, in.MimeType, s.maxImg)
	if err != nil {
		return nil, cred, err
	}

	req := BuildExtractionRequest(img, s.opts)
	s.logger.Info("开始识别课表",
		zap.String("mime", img.MimeType),
		zap.Int("bytes", img.Size),
		zap.Bool("custom_base_url", cred.BaseURL != "" && cred.BaseURL != gemini.DefaultBaseURL),
	)

	text, err := s.client.GenerateContent(ctx, cred.BaseURL, cred.APIKey, req)
	if err != nil {
		return nil, cred, classifyVisionError(err, s.logger)
	}
	if strings.TrimSpace(text) == "" {
		return nil, cred, apperrors.New(apperrors.ErrEmptyResponse, "识别服务未返回任何数据，请重试", nil)
	}

	data, err := NormalizeExtraction([]byte(text))
	if err != nil {
		s.logger.Warn("识别结果无法使用", zap.Error(err), zap.String("raw", truncate(text, 2000)))
		return nil, cred, err
	}
	return data, cred, nil
}

func (s *extractionService) setStatus(state ProcessingState, msg string) {
	s.statusMu.Lock()
	s.status = ExtractionStatus{State: state, Message: msg, UpdatedAt: time.Now()}
	s.statusMu.Unlock()
}

// 服务端判定 Key 无效时的特征
var invalidKeyMarkers = []string{"API key not valid", "API_KEY_INVALID"}

// classifyVisionError 将调用失败归类：Key 无效单独提示，其余保留可展示的错误信息
// 服务端原始响应体只写日志，不进入用户提示
func classifyVisionError(err error, logger *zap.Logger) error {
	logger.Warn("调用视觉模型失败", zap.Error(err))

	var apiErr *gemini.APIError
	if apperrors.As(err, &apiErr) {
		if apiErr.Reason == "API_KEY_INVALID" || hasInvalidKeyMarker(apiErr.Message) || hasInvalidKeyMarker(apiErr.Body) {
			return invalidCredentialError(err)
		}
		return apperrors.New(apperrors.ErrExtractionFailed, "识别失败："+apiErr.UserMessage(), err)
	}
	if hasInvalidKeyMarker(err.Error()) {
		return invalidCredentialError(err)
	}
	var timeoutErr interface{ Timeout() bool }
	if apperrors.Is(err, context.DeadlineExceeded) || (apperrors.As(err, &timeoutErr) && timeoutErr.Timeout()) {
		return apperrors.New(apperrors.ErrExtractionFailed, "识别超时，请重试", err)
	}
	return apperrors.New(apperrors.ErrExtractionFailed, "识别失败："+err.Error(), err)
}

func hasInvalidKeyMarker(s string) bool {
	for _, m := range invalidKeyMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func invalidCredentialError(cause error) error {
	return apperrors.New(apperrors.ErrInvalidCredential,
		"API Key 无效。如使用代理或第三方中转服务，请确认接口地址（Base URL）填写正确", cause)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
