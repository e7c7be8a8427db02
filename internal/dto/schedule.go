package dto

import (
	"strings"

	"smart-schedule/internal/model"
)

// ── 课程 ──

// CourseRequest 新增/编辑课程请求
// 字段名与课表 JSON 保持一致，前端可直接提交编辑框内容
type CourseRequest struct {
	ID          string `json:"id"`
	Subject     string `json:"subject" binding:"required,max=100"`
	Day         string `json:"day" binding:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	StartPeriod int    `json:"startPeriod" binding:"required,min=1"`
	EndPeriod   int    `json:"endPeriod" binding:"required,min=1,gtefield=StartPeriod"`
	Location    string `json:"location" binding:"omitempty,max=100"`
	Teacher     string `json:"teacher" binding:"omitempty,max=100"`
	StartTime   string `json:"startTime" binding:"omitempty,datetime=15:04"`
	EndTime     string `json:"endTime" binding:"omitempty,datetime=15:04"`
}

// ToModel 转换为领域模型
func (r *CourseRequest) ToModel() model.Course {
	return model.Course{
		ID:          strings.TrimSpace(r.ID),
		Subject:     strings.TrimSpace(r.Subject),
		Day:         model.DayOfWeek(r.Day),
		StartPeriod: r.StartPeriod,
		EndPeriod:   r.EndPeriod,
		Location:    strings.TrimSpace(r.Location),
		Teacher:     strings.TrimSpace(r.Teacher),
		StartTime:   strings.TrimSpace(r.StartTime),
		EndTime:     strings.TrimSpace(r.EndTime),
	}
}

// CourseMutationResponse 课程变更结果
// Applied=false 表示未加载课表或目标课程已不存在，请求被忽略
type CourseMutationResponse struct {
	Applied bool          `json:"applied"`
	Course  *model.Course `json:"course,omitempty"`
}

// ── 课表 ──

// ReplaceScheduleRequest 整体替换课表（导入 JSON 备份）
type ReplaceScheduleRequest struct {
	ScheduleName string          `json:"scheduleName" binding:"omitempty,max=100"`
	Courses      []CourseRequest `json:"courses" binding:"required,dive"`
}

// ToModel 转换为领域模型
func (r *ReplaceScheduleRequest) ToModel() *model.ScheduleData {
	data := &model.ScheduleData{
		ScheduleName: strings.TrimSpace(r.ScheduleName),
		Courses:      make([]model.Course, 0, len(r.Courses)),
	}
	for i := range r.Courses {
		data.Courses = append(data.Courses, r.Courses[i].ToModel())
	}
	return data
}

// ScheduleResponse 当前课表
type ScheduleResponse struct {
	Loaded            bool           `json:"loaded"`
	ScheduleName      string         `json:"scheduleName,omitempty"`
	DisplayName       string         `json:"displayName"`
	Courses           []model.Course `json:"courses"`
	AnalysisReasoning string         `json:"analysisReasoning,omitempty"`
}

// NewScheduleResponse 由领域模型构建响应；data 为 nil 表示尚无课表
func NewScheduleResponse(data *model.ScheduleData) *ScheduleResponse {
	if data == nil {
		return &ScheduleResponse{DisplayName: model.DefaultScheduleName, Courses: []model.Course{}}
	}
	return &ScheduleResponse{
		Loaded:            true,
		ScheduleName:      data.ScheduleName,
		DisplayName:       data.DisplayName(),
		Courses:           data.Courses,
		AnalysisReasoning: data.AnalysisReasoning,
	}
}

// ── 网格交互 ──

// CellPressQuery 长按单元格查询参数
type CellPressQuery struct {
	Day    string `form:"day" binding:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Period int    `form:"period" binding:"required,min=1"`
	HeldMs int64  `form:"held_ms" binding:"min=0"`
}

// ── 导出 ──

// ExportICSQuery 日历导出参数
type ExportICSQuery struct {
	WeekStart string `form:"week_start" binding:"omitempty,datetime=2006-01-02"` // 第一周内任意一天，默认本周
}
