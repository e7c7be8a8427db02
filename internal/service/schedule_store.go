package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smart-schedule/internal/model"
	"smart-schedule/internal/repository"
	apperrors "smart-schedule/pkg/errors"
)

// 持久化键
const (
	KeyScheduleData = "schedule_data"
	KeyAPIKey       = "api_key"
	KeyBaseURL      = "base_url"
)

// ── ScheduleStore ─────────────────────────────────────────────
//
// 设计说明：
//   - 课表在内存中只有一份，由 Store 独占；对外只返回深拷贝。
//   - 写穿透：每次变更先写持久化，成功后才替换内存状态，
//     持久化失败时内存保持原样。
//   - 未加载课表时所有变更均为 no-op；按 ID 更新/删除找不到目标也是 no-op。
//   - 允许课程重叠，不做冲突校验。
// ─────────────────────────────────────────────────────────────

// ScheduleStore 课表存储接口
type ScheduleStore interface {
	// Load 整体替换当前课表
	Load(ctx context.Context, data *model.ScheduleData) error
	// Clear 清空课表
	Clear(ctx context.Context) error
	// AddCourse 追加课程；applied=false 表示当前无课表
	AddCourse(ctx context.Context, course model.Course) (added model.Course, applied bool, err error)
	// UpdateCourse 按 ID 整体替换课程，返回规范化后实际保存的课程；applied=false 表示未命中
	UpdateCourse(ctx context.Context, course model.Course) (updated model.Course, applied bool, err error)
	// DeleteCourse 按 ID 删除课程；applied=false 表示未命中
	DeleteCourse(ctx context.Context, id string) (applied bool, err error)
	// Current 当前课表的副本
	Current() (*model.ScheduleData, bool)
	// Rehydrate 启动时从持久化恢复；失败时保持空状态并返回 ErrPersistenceRead
	Rehydrate(ctx context.Context) error
	// Credential 上次使用的凭据
	Credential(ctx context.Context) Credential
	// SaveCredential 保存凭据，空值对应的键会被删除
	SaveCredential(ctx context.Context, cred Credential) error
}

type scheduleStore struct {
	mu     sync.RWMutex
	data   *model.ScheduleData
	kv     repository.KVRepository
	logger *zap.Logger
}

// NewScheduleStore 创建 ScheduleStore 实例
func NewScheduleStore(repo *repository.Repository, logger *zap.Logger) ScheduleStore {
	return &scheduleStore{kv: repo.KV, logger: logger}
}

func (s *scheduleStore) Load(ctx context.Context, data *model.ScheduleData) error {
	if data == nil {
		return apperrors.New(apperrors.ErrValidation, "课表数据不能为空", nil)
	}
	next, err := prepareForLoad(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, next)
}

func (s *scheduleStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, KeyScheduleData); err != nil {
		s.logger.Error("清除持久化课表失败", zap.Error(err))
		return fmt.Errorf("清除课表失败: %w", err)
	}
	s.data = nil
	return nil
}

func (s *scheduleStore) AddCourse(ctx context.Context, course model.Course) (model.Course, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return model.Course{}, false, nil
	}
	course = trimCourse(course)
	if err := course.Validate(); err != nil {
		return model.Course{}, false, apperrors.New(apperrors.ErrValidation, err.Error(), err)
	}
	if course.ID == "" || s.data.FindCourse(course.ID) >= 0 {
		course.ID = uuid.NewString()
	}

	next := s.data.Clone()
	next.Courses = append(next.Courses, course)
	if err := s.commit(ctx, next); err != nil {
		return model.Course{}, false, err
	}
	return course, true, nil
}

func (s *scheduleStore) UpdateCourse(ctx context.Context, course model.Course) (model.Course, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	course = trimCourse(course)
	if s.data == nil || course.ID == "" {
		return model.Course{}, false, nil
	}
	if err := course.Validate(); err != nil {
		return model.Course{}, false, apperrors.New(apperrors.ErrValidation, err.Error(), err)
	}
	idx := s.data.FindCourse(course.ID)
	if idx < 0 {
		return model.Course{}, false, nil
	}

	next := s.data.Clone()
	next.Courses[idx] = course
	if err := s.commit(ctx, next); err != nil {
		return model.Course{}, false, err
	}
	return course, true, nil
}

func (s *scheduleStore) DeleteCourse(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return false, nil
	}
	idx := s.data.FindCourse(id)
	if idx < 0 {
		return false, nil
	}

	next := s.data.Clone()
	next.Courses = append(next.Courses[:idx], next.Courses[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func (s *scheduleStore) Current() (*model.ScheduleData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return nil, false
	}
	return s.data.Clone(), true
}

func (s *scheduleStore) Rehydrate(ctx context.Context) error {
	raw, found, err := s.kv.Get(ctx, KeyScheduleData)
	if err != nil {
		return s.resetAfterReadFailure(err)
	}
	if !found {
		return nil
	}

	var data model.ScheduleData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return s.resetAfterReadFailure(err)
	}
	next, err := prepareForLoad(&data)
	if err != nil {
		return s.resetAfterReadFailure(err)
	}

	s.mu.Lock()
	s.data = next
	s.mu.Unlock()

	s.logger.Info("已恢复上次的课表", zap.Int("courses", len(next.Courses)))
	return nil
}

func (s *scheduleStore) Credential(ctx context.Context) Credential {
	var cred Credential
	if v, found, err := s.kv.Get(ctx, KeyAPIKey); err != nil {
		s.logger.Warn("读取保存的 API Key 失败", zap.Error(err))
	} else if found {
		cred.APIKey = v
	}
	if v, found, err := s.kv.Get(ctx, KeyBaseURL); err != nil {
		s.logger.Warn("读取保存的接口地址失败", zap.Error(err))
	} else if found {
		cred.BaseURL = v
	}
	return cred
}

func (s *scheduleStore) SaveCredential(ctx context.Context, cred Credential) error {
	key := strings.TrimSpace(cred.APIKey)
	if key == "" {
		if err := s.kv.Delete(ctx, KeyAPIKey); err != nil {
			return fmt.Errorf("删除 API Key 失败: %w", err)
		}
	} else if err := s.kv.Set(ctx, KeyAPIKey, key); err != nil {
		return fmt.Errorf("保存 API Key 失败: %w", err)
	}

	baseURL := strings.TrimSpace(cred.BaseURL)
	if baseURL == "" {
		if err := s.kv.Delete(ctx, KeyBaseURL); err != nil {
			return fmt.Errorf("删除接口地址失败: %w", err)
		}
		return nil
	}
	if err := s.kv.Set(ctx, KeyBaseURL, baseURL); err != nil {
		return fmt.Errorf("保存接口地址失败: %w", err)
	}
	return nil
}

// ── 私有辅助方法 ──

// commit 先持久化再替换内存状态，调用方须持有写锁
func (s *scheduleStore) commit(ctx context.Context, next *model.ScheduleData) error {
	b, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("序列化课表失败: %w", err)
	}
	if err := s.kv.Set(ctx, KeyScheduleData, string(b)); err != nil {
		s.logger.Error("持久化课表失败", zap.Error(err))
		return fmt.Errorf("保存课表失败: %w", err)
	}
	s.data = next
	return nil
}

func (s *scheduleStore) resetAfterReadFailure(cause error) error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()

	s.logger.Warn("持久化课表损坏，已回退为空课表", zap.Error(cause))
	return apperrors.New(apperrors.ErrPersistenceRead, "读取本地课表失败", cause)
}

// prepareForLoad 校验课程并补齐缺失或重复的 ID，返回独立副本
func prepareForLoad(data *model.ScheduleData) (*model.ScheduleData, error) {
	next := data.Clone()
	if next.Courses == nil {
		next.Courses = []model.Course{}
	}
	seen := make(map[string]bool, len(next.Courses))
	for i := range next.Courses {
		c := trimCourse(next.Courses[i])
		if err := c.Validate(); err != nil {
			return nil, apperrors.New(apperrors.ErrValidation,
				fmt.Sprintf("第 %d 门课程无效：%s", i+1, err.Error()), err)
		}
		if c.ID == "" || seen[c.ID] {
			c.ID = uuid.NewString()
		}
		seen[c.ID] = true
		next.Courses[i] = c
	}
	return next, nil
}

func trimCourse(c model.Course) model.Course {
	c.ID = strings.TrimSpace(c.ID)
	c.Subject = strings.TrimSpace(c.Subject)
	c.Location = strings.TrimSpace(c.Location)
	c.Teacher = strings.TrimSpace(c.Teacher)
	c.StartTime = strings.TrimSpace(c.StartTime)
	c.EndTime = strings.TrimSpace(c.EndTime)
	return c
}
