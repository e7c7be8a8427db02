package model

// DefaultScheduleName 未识别出标题时的显示名
const DefaultScheduleName = "我的课表"

// ScheduleData 课表聚合根
type ScheduleData struct {
	ScheduleName      string   `json:"scheduleName,omitempty"`
	Courses           []Course `json:"courses"`
	AnalysisReasoning string   `json:"analysisReasoning,omitempty"` // 识别过程的诊断信息，仅供排查
}

// DisplayName 标题为空时回退到默认名
func (s *ScheduleData) DisplayName() string {
	if s == nil || s.ScheduleName == "" {
		return DefaultScheduleName
	}
	return s.ScheduleName
}

// Clone 深拷贝，调用方可以自由修改返回值
func (s *ScheduleData) Clone() *ScheduleData {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Courses = make([]Course, len(s.Courses))
	copy(cp.Courses, s.Courses)
	return &cp
}

// FindCourse 按 ID 查找课程下标，不存在返回 -1
func (s *ScheduleData) FindCourse(id string) int {
	for i, c := range s.Courses {
		if c.ID == id {
			return i
		}
	}
	return -1
}
