package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"smart-schedule/config"
	"smart-schedule/internal/model"
	"smart-schedule/internal/repository"
	"smart-schedule/pkg/gemini"
)

// ── Mock KVRepository ──

type mockKVRepo struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	sets   int
}

func newMockKVRepo() *mockKVRepo {
	return &mockKVRepo{data: make(map[string]string)}
}

func (m *mockKVRepo) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockKVRepo) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockKVRepo) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockKVRepo) value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// ── Mock VisionClient ──

type mockVisionClient struct {
	mu      sync.Mutex
	text    string
	err     error
	calls   int
	apiKey  string
	baseURL string
	req     *gemini.GenerateRequest
	block   chan struct{} // 非 nil 时阻塞到关闭
	started chan struct{}
}

func (m *mockVisionClient) GenerateContent(_ context.Context, baseURL, apiKey string, req *gemini.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.apiKey = apiKey
	m.baseURL = baseURL
	m.req = req
	block, started := m.block, m.started
	m.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	return m.text, m.err
}

func (m *mockVisionClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Gemini: config.GeminiConfig{Model: "gemini-2.5-flash"},
		Extraction: config.ExtractionConfig{
			MaxImageBytes:      1 << 20,
			ThinkingBudget:     16000,
			RequestAnalysisLog: true,
		},
		Layout: config.LayoutConfig{MinPeriods: 8},
		Export: config.ExportConfig{Timezone: "Asia/Shanghai", Weeks: 16},
	}
}

func setupTestStore() (ScheduleStore, *mockKVRepo) {
	kv := newMockKVRepo()
	return NewScheduleStore(storeRepo(kv), nopLogger()), kv
}

func storeRepo(kv repository.KVRepository) *repository.Repository {
	return &repository.Repository{KV: kv}
}

func nopLogger() *zap.Logger { return zap.NewNop() }

func sampleSchedule() *model.ScheduleData {
	return &model.ScheduleData{
		ScheduleName: "2024 秋季课表",
		Courses: []model.Course{
			{ID: "c1", Subject: "高等数学", Day: model.Monday, StartPeriod: 1, EndPeriod: 2, Location: "A101", StartTime: "08:00", EndTime: "09:35"},
			{ID: "c2", Subject: "大学英语", Day: model.Wednesday, StartPeriod: 3, EndPeriod: 4, Teacher: "王老师"},
		},
	}
}

// PNG 文件头，足以被识别为 image/png
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
