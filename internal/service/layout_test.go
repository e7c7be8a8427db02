package service

import (
	"testing"
	"time"

	"smart-schedule/internal/model"
)

func course(id, subject string, day model.DayOfWeek, start, end int) model.Course {
	return model.Course{ID: id, Subject: subject, Day: day, StartPeriod: start, EndPeriod: end}
}

func TestComputeLayout_WeekdaysOnly(t *testing.T) {
	data := &model.ScheduleData{Courses: []model.Course{
		course("a", "Math", model.Monday, 1, 2),
		course("b", "Art", model.Friday, 3, 3),
	}}
	layout := ComputeLayout(data, LayoutOptions{})

	if len(layout.Days) != 5 {
		t.Fatalf("无周末课程应显示 5 天，实际 %d", len(layout.Days))
	}
	if layout.Days[0].Column != 2 || layout.Days[4].Label != "周五" {
		t.Errorf("列定义不符: %+v", layout.Days)
	}
	if layout.Rows != 8 {
		t.Errorf("行数应至少为 8，实际 %d", layout.Rows)
	}

	math := layout.Placements[0]
	if math.Column != 2 || math.Row != 2 || math.RowSpan != 2 {
		t.Errorf("Math 位置不符: %+v", math)
	}
	if layout.ScheduleName != model.DefaultScheduleName {
		t.Errorf("无标题时应使用默认名，实际 %q", layout.ScheduleName)
	}
}

func TestComputeLayout_WeekendAndLongDay(t *testing.T) {
	data := &model.ScheduleData{Courses: []model.Course{
		course("a", "Math", model.Monday, 9, 12),
		course("b", "Club", model.Sunday, 1, 1),
	}}
	layout := ComputeLayout(data, LayoutOptions{MinPeriods: 8})

	if len(layout.Days) != 7 {
		t.Fatalf("有周日课程应显示 7 天，实际 %d", len(layout.Days))
	}
	if layout.Rows != 12 {
		t.Errorf("行数应扩展到 12，实际 %d", layout.Rows)
	}
	if club := layout.Placements[1]; club.Column != 8 {
		t.Errorf("周日应位于第 8 列，实际 %d", club.Column)
	}
}

func TestComputeLayout_SkipsInvalidPlacements(t *testing.T) {
	data := &model.ScheduleData{Courses: []model.Course{
		course("a", "Math", model.Monday, 3, 2),
		course("b", "Art", model.Tuesday, 1, 1),
	}}
	layout := ComputeLayout(data, LayoutOptions{})
	if len(layout.Placements) != 1 || layout.Placements[0].Course.ID != "b" {
		t.Errorf("跨度非正的课程应跳过: %+v", layout.Placements)
	}
}

func TestComputeLayout_ColorsDeterministic(t *testing.T) {
	var courses []model.Course
	subjects := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M"}
	for i, s := range subjects {
		courses = append(courses, course(s, s, model.Monday, i+1, i+1))
	}
	courses = append(courses, course("a2", " A ", model.Tuesday, 1, 1))
	data := &model.ScheduleData{Courses: courses}

	first := ComputeLayout(data, LayoutOptions{})
	second := ComputeLayout(data, LayoutOptions{})
	for i := range first.Placements {
		if first.Placements[i].Color != second.Placements[i].Color {
			t.Fatal("相同输入的配色应一致")
		}
	}

	byID := map[string]PaletteColor{}
	for _, p := range first.Placements {
		byID[p.Course.ID] = p.Color
	}
	if byID["A"].Name != "blue" || byID["B"].Name != "emerald" {
		t.Errorf("配色应按首次出现顺序分配: A=%s B=%s", byID["A"].Name, byID["B"].Name)
	}
	if byID["M"] != byID["A"] {
		t.Error("第 13 个课程名应循环回到第一个颜色")
	}
	if byID["a2"] != byID["A"] {
		t.Error("去除空白后同名课程应同色")
	}
}

func TestComputeLayout_Overlaps(t *testing.T) {
	data := &model.ScheduleData{Courses: []model.Course{
		course("a", "Math", model.Monday, 1, 2),
		course("b", "Physics", model.Monday, 2, 3),
		course("c", "Chem", model.Tuesday, 1, 2),
	}}
	layout := ComputeLayout(data, LayoutOptions{})

	if len(layout.Overlaps) != 1 || layout.Overlaps[0] != (OverlapPair{First: "a", Second: "b"}) {
		t.Errorf("重叠检测不符: %+v", layout.Overlaps)
	}
	if layout.Placements[1].ZIndex <= layout.Placements[0].ZIndex {
		t.Error("后插入的课程应在上层")
	}
}

func TestComputeLayout_NilSchedule(t *testing.T) {
	layout := ComputeLayout(nil, LayoutOptions{})
	if layout.Rows != 8 || len(layout.Days) != 5 || len(layout.Placements) != 0 {
		t.Errorf("空课表应返回默认网格: %+v", layout)
	}
}

func TestResolveCellPress(t *testing.T) {
	data := &model.ScheduleData{Courses: []model.Course{
		course("a", "Math", model.Monday, 1, 2),
		course("b", "Physics", model.Monday, 2, 3),
	}}
	opts := LayoutOptions{}

	if got := ResolveCellPress(data, model.Monday, 1, 300*time.Millisecond, opts); got.Kind != CellActionNone {
		t.Errorf("短按应无动作，实际 %s", got.Kind)
	}

	got := ResolveCellPress(data, model.Monday, 2, 600*time.Millisecond, opts)
	if got.Kind != CellActionEdit || got.Course.ID != "b" {
		t.Errorf("重叠格应编辑最上层课程，实际 %+v", got)
	}

	got = ResolveCellPress(data, model.Wednesday, 4, time.Second, opts)
	if got.Kind != CellActionAdd {
		t.Fatalf("空格应新增，实际 %s", got.Kind)
	}
	if got.Course.Day != model.Wednesday || got.Course.StartPeriod != 4 || got.Course.EndPeriod != 4 || got.Course.ID != "" {
		t.Errorf("预填内容不符: %+v", got.Course)
	}
}
