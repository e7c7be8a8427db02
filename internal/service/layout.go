package service

import (
	"strings"
	"time"

	"smart-schedule/internal/model"
)

// 网格默认参数
const (
	DefaultMinPeriods = 8
	DefaultLongPress  = 600 * time.Millisecond
)

// PaletteColor 课程配色
type PaletteColor struct {
	Name string `json:"name"`
	Fill string `json:"fill"` // 背景色，#RRGGBB
	Text string `json:"text"` // 文字色，#RRGGBB
}

// palette 固定 12 色，按课程名首次出现顺序循环分配
var palette = []PaletteColor{
	{Name: "blue", Fill: "#DBEAFE", Text: "#1E40AF"},
	{Name: "emerald", Fill: "#D1FAE5", Text: "#065F46"},
	{Name: "violet", Fill: "#EDE9FE", Text: "#5B21B6"},
	{Name: "amber", Fill: "#FEF3C7", Text: "#92400E"},
	{Name: "rose", Fill: "#FFE4E6", Text: "#9F1239"},
	{Name: "cyan", Fill: "#CFFAFE", Text: "#155E75"},
	{Name: "fuchsia", Fill: "#FAE8FF", Text: "#86198F"},
	{Name: "lime", Fill: "#ECFCCB", Text: "#3F6212"},
	{Name: "orange", Fill: "#FFEDD5", Text: "#9A3412"},
	{Name: "teal", Fill: "#CCFBF1", Text: "#115E59"},
	{Name: "indigo", Fill: "#E0E7FF", Text: "#3730A3"},
	{Name: "pink", Fill: "#FCE7F3", Text: "#9D174D"},
}

// Palette 配色表副本
func Palette() []PaletteColor {
	cp := make([]PaletteColor, len(palette))
	copy(cp, palette)
	return cp
}

// LayoutOptions 布局参数
type LayoutOptions struct {
	MinPeriods int           // 网格最少行数
	LongPress  time.Duration // 长按判定阈值
}

func (o LayoutOptions) withDefaults() LayoutOptions {
	if o.MinPeriods <= 0 {
		o.MinPeriods = DefaultMinPeriods
	}
	if o.LongPress <= 0 {
		o.LongPress = DefaultLongPress
	}
	return o
}

// Placement 单门课程在网格中的位置
// Column/Row 均为 1-based，第 1 列为节次标签、第 1 行为星期表头
type Placement struct {
	Course  model.Course `json:"course"`
	Column  int          `json:"column"`
	Row     int          `json:"row"`
	RowSpan int          `json:"row_span"`
	Color   PaletteColor `json:"color"`
	ZIndex  int          `json:"z_index"` // 插入顺序，越大越靠上
}

// OverlapPair 同一天节次相交的两门课程
type OverlapPair struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// DayColumn 表头列
type DayColumn struct {
	Day    model.DayOfWeek `json:"day"`
	Label  string          `json:"label"`
	Column int             `json:"column"`
}

// GridLayout 布局结果
type GridLayout struct {
	ScheduleName string        `json:"schedule_name"`
	Days         []DayColumn   `json:"days"`
	Rows         int           `json:"rows"`
	Placements   []Placement   `json:"placements"`
	Overlaps     []OverlapPair `json:"overlaps"`
}

// ═══════════════════════════════════════════════════════════
// ComputeLayout: 课表 → 网格
// ═══════════════════════════════════════════════════════════
//
// 规则：
//   - 存在周六/周日课程时显示 7 天，否则只显示周一至周五
//   - 行数 = max(最大结束节次, MinPeriods)
//   - 配色按去空格后的课程名首次出现顺序分配，对 12 色取模
//   - 跨度非正或星期不在显示范围内的课程跳过
//   - 不做重叠避让，后插入者在上；重叠关系单独列出

func ComputeLayout(data *model.ScheduleData, opts LayoutOptions) *GridLayout {
	opts = opts.withDefaults()

	layout := &GridLayout{
		ScheduleName: data.DisplayName(),
		Placements:   []Placement{},
		Overlaps:     []OverlapPair{},
	}

	var courses []model.Course
	if data != nil {
		courses = data.Courses
	}

	days := ActiveDays(courses)
	columnOf := make(map[model.DayOfWeek]int, len(days))
	for i, d := range days {
		col := i + 2
		columnOf[d] = col
		layout.Days = append(layout.Days, DayColumn{Day: d, Label: d.Label(), Column: col})
	}

	layout.Rows = opts.MinPeriods
	for _, c := range courses {
		if c.EndPeriod > layout.Rows {
			layout.Rows = c.EndPeriod
		}
	}

	colors := SubjectColors(courses)
	for i, c := range courses {
		span := c.Span()
		col, ok := columnOf[c.Day]
		if span <= 0 || !ok {
			continue
		}
		layout.Placements = append(layout.Placements, Placement{
			Course:  c,
			Column:  col,
			Row:     c.StartPeriod + 1,
			RowSpan: span,
			Color:   colors[strings.TrimSpace(c.Subject)],
			ZIndex:  i,
		})
	}

	layout.Overlaps = FindOverlaps(courses)
	return layout
}

// ActiveDays 显示的星期列
func ActiveDays(courses []model.Course) []model.DayOfWeek {
	for _, c := range courses {
		if c.Day.IsWeekend() {
			return append([]model.DayOfWeek(nil), model.AllDays...)
		}
	}
	return append([]model.DayOfWeek(nil), model.Weekdays...)
}

// SubjectColors 课程名 → 配色
func SubjectColors(courses []model.Course) map[string]PaletteColor {
	colors := make(map[string]PaletteColor)
	n := 0
	for _, c := range courses {
		subject := strings.TrimSpace(c.Subject)
		if _, seen := colors[subject]; seen {
			continue
		}
		colors[subject] = palette[n%len(palette)]
		n++
	}
	return colors
}

// FindOverlaps 列出所有重叠课程对，按插入顺序
func FindOverlaps(courses []model.Course) []OverlapPair {
	pairs := []OverlapPair{}
	for i := 0; i < len(courses); i++ {
		for j := i + 1; j < len(courses); j++ {
			if courses[i].Span() > 0 && courses[j].Span() > 0 && courses[i].Overlaps(courses[j]) {
				pairs = append(pairs, OverlapPair{First: courses[i].ID, Second: courses[j].ID})
			}
		}
	}
	return pairs
}

// ── 单元格交互 ──

// CellActionKind 长按单元格后的动作
type CellActionKind string

const (
	CellActionNone CellActionKind = "none"
	CellActionEdit CellActionKind = "edit"
	CellActionAdd  CellActionKind = "add"
)

// CellAction 长按判定结果
// Edit 时 Course 为被编辑课程；Add 时 Course 为预填内容（ID 为空）
type CellAction struct {
	Kind   CellActionKind `json:"kind"`
	Course *model.Course  `json:"course,omitempty"`
}

// ResolveCellPress 长按判定：不足阈值无动作；有课编辑最上层课程；空格新增并预填
func ResolveCellPress(data *model.ScheduleData, day model.DayOfWeek, period int, held time.Duration, opts LayoutOptions) CellAction {
	opts = opts.withDefaults()
	if held < opts.LongPress || !day.Valid() || period < 1 {
		return CellAction{Kind: CellActionNone}
	}

	if data != nil {
		for i := len(data.Courses) - 1; i >= 0; i-- {
			c := data.Courses[i]
			if c.Day == day && c.Covers(period) {
				return CellAction{Kind: CellActionEdit, Course: &c}
			}
		}
	}

	return CellAction{
		Kind:   CellActionAdd,
		Course: &model.Course{Day: day, StartPeriod: period, EndPeriod: period},
	}
}
