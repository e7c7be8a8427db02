package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"smart-schedule/internal/model"
	apperrors "smart-schedule/pkg/errors"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, ScheduleStore) {
	store, _ := setupTestStore()
	return NewExportService(testConfig(), store, nopLogger()), store
}

// ── ExportXLSX 测试 ──

func TestExportService_ExportXLSX_NoSchedule(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportXLSX(context.Background())
	if !errors.Is(err, apperrors.ErrNoSchedule) {
		t.Errorf("期望 ErrNoSchedule，实际: %v", err)
	}
}

func TestExportService_ExportXLSX_Success(t *testing.T) {
	svc, store := setupTestExportService()
	data := sampleSchedule()
	// 与高等数学重叠
	data.Courses = append(data.Courses, model.Course{ID: "c3", Subject: "习题课", Day: model.Monday, StartPeriod: 2, EndPeriod: 2})
	_ = store.Load(context.Background(), data)

	buf, filename, err := svc.ExportXLSX(context.Background())
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "2024 秋季课表.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("无法打开生成的 Excel: %v", err)
	}
	defer f.Close()

	sheet := "课表"
	if v, _ := f.GetCellValue(sheet, "B2"); v != "周一" {
		t.Errorf("B2 应为周一，实际 %q", v)
	}
	if v, _ := f.GetCellValue(sheet, "A3"); v != "第1节" {
		t.Errorf("A3 应为第1节，实际 %q", v)
	}

	// 高等数学：周一（B 列）第 1-2 节 → B3:B4 合并
	v, _ := f.GetCellValue(sheet, "B3")
	if !strings.Contains(v, "高等数学") || !strings.Contains(v, "A101") || !strings.Contains(v, "习题课") {
		t.Errorf("B3 内容不符: %q", v)
	}
	merged, _ := f.GetMergeCells(sheet)
	found := false
	for _, m := range merged {
		if m.GetStartAxis() == "B3" && m.GetEndAxis() == "B4" {
			found = true
		}
	}
	if !found {
		t.Error("跨两节的课程应合并 B3:B4")
	}

	// 大学英语：周三（D 列）第 3-4 节
	if v, _ := f.GetCellValue(sheet, "D5"); !strings.Contains(v, "王老师") {
		t.Errorf("D5 内容不符: %q", v)
	}
}

// ── ExportICS / ImportICS 测试 ──

func TestExportService_ExportICS_NoTimedCourses(t *testing.T) {
	svc, store := setupTestExportService()
	data := sampleSchedule()
	data.Courses = data.Courses[1:] // 仅保留未填写时间的课程
	_ = store.Load(context.Background(), data)

	_, _, err := svc.ExportICS(context.Background(), time.Now())
	if !errors.Is(err, ErrExportNoTimedCourses) {
		t.Errorf("期望 ErrExportNoTimedCourses，实际: %v", err)
	}
}

func TestExportService_ExportICS_Success(t *testing.T) {
	svc, store := setupTestExportService()
	_ = store.Load(context.Background(), sampleSchedule())

	loc, _ := time.LoadLocation("Asia/Shanghai")
	// 2025-02-26 为周三，第一周周一为 2025-02-24
	buf, filename, err := svc.ExportICS(context.Background(), time.Date(2025, 2, 26, 10, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "2024 秋季课表.ics" {
		t.Errorf("文件名不符: %s", filename)
	}

	content := buf.String()
	if strings.Count(content, "BEGIN:VEVENT") != 1 {
		t.Errorf("仅有时间的课程应导出: %s", content)
	}
	// 08:00 上海时间 = 00:00 UTC
	for _, want := range []string{"SUMMARY:高等数学", "DTSTART:20250224T000000Z", "FREQ=WEEKLY;COUNT=16", icsPeriodsProperty + ":1-2"} {
		if !strings.Contains(content, want) {
			t.Errorf("ICS 缺少 %q", want)
		}
	}
}

func TestExportService_ICSRoundTrip(t *testing.T) {
	svc, store := setupTestExportService()
	_ = store.Load(context.Background(), sampleSchedule())

	buf, _, err := svc.ExportICS(context.Background(), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}

	_ = store.Clear(context.Background())
	data, err := svc.ImportICS(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if data.ScheduleName != "2024 秋季课表" || len(data.Courses) != 1 {
		t.Fatalf("导入结果不符: %+v", data)
	}
	c := data.Courses[0]
	if c.Subject != "高等数学" || c.Day != model.Monday || c.StartPeriod != 1 || c.EndPeriod != 2 ||
		c.StartTime != "08:00" || c.EndTime != "09:35" || c.Location != "A101" || c.ID == "" {
		t.Errorf("课程还原不符: %+v", c)
	}
	if _, ok := store.Current(); !ok {
		t.Error("导入后应替换当前课表")
	}
}

func TestExportService_ImportICS_ScheduleClearedAfterLoad(t *testing.T) {
	svc, store := setupTestExportService()
	_ = store.Load(context.Background(), sampleSchedule())
	buf, _, err := svc.ExportICS(context.Background(), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}

	importer := NewExportService(testConfig(), &clearingStore{ScheduleStore: store}, nopLogger())
	data, err := importer.ImportICS(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if data == nil || len(data.Courses) != 1 || data.Courses[0].Subject != "高等数学" {
		t.Errorf("应返回本次导入的课表: %+v", data)
	}
}

func TestParseICS_SkipsEventsWithoutPeriods(t *testing.T) {
	const content = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Test//Test//EN\r\n" +
		"BEGIN:VEVENT\r\nUID:1\r\nSUMMARY:讲座\r\nDTSTART;TZID=Asia/Shanghai:20250224T081000\r\nDTEND;TZID=Asia/Shanghai:20250224T100500\r\nEND:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	_, err := ParseICS(strings.NewReader(content), time.UTC)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("没有节次信息的日历应拒绝导入，实际 %v", err)
	}
}

func TestMondayOf(t *testing.T) {
	sunday := time.Date(2025, 3, 2, 15, 0, 0, 0, time.UTC)
	if got := mondayOf(sunday); !got.Equal(time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("周日应归属前一个周一，实际 %v", got)
	}
}
