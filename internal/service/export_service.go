package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"smart-schedule/config"
	"smart-schedule/internal/model"
	apperrors "smart-schedule/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoTimedCourses = errors.New("课表中没有填写上下课时间的课程，无法导出日历")
	ErrExportGenerateFail   = errors.New("生成导出文件失败")
)

// ICS 中记录节次的扩展属性，导入时据此还原网格位置
const icsPeriodsProperty = "X-SMART-SCHEDULE-PERIODS"

// ExportService 导出/导入业务接口
//
// 设计说明：
//   - Excel 版式与网格布局一致：节次为行、星期为列，多节课合并单元格
//   - 日历导出只包含填写了上下课时间的课程，每门课一个每周重复事件
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportXLSX 导出当前课表为 Excel
	ExportXLSX(ctx context.Context) (*bytes.Buffer, string, error)
	// ExportICS 导出当前课表为 iCalendar，weekStart 为第一周内任意一天
	ExportICS(ctx context.Context, weekStart time.Time) (*bytes.Buffer, string, error)
	// ImportICS 从本系统导出的 iCalendar 恢复课表并替换当前课表
	ImportICS(ctx context.Context, content []byte) (*model.ScheduleData, error)
}

type exportService struct {
	store  ScheduleStore
	layout LayoutOptions
	loc    *time.Location
	weeks  int
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, store ScheduleStore, logger *zap.Logger) ExportService {
	loc, err := time.LoadLocation(cfg.Export.Timezone)
	if err != nil {
		loc = time.Local
	}
	weeks := cfg.Export.Weeks
	if weeks <= 0 {
		weeks = 16
	}
	return &exportService{
		store:  store,
		layout: LayoutOptions{MinPeriods: cfg.Layout.MinPeriods, LongPress: cfg.Layout.LongPress},
		loc:    loc,
		weeks:  weeks,
		logger: logger,
	}
}

// ═══════════════════════════════════════════════════════════
// ExportXLSX: 导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：课表名称（横向合并）
//   - 第 2 行：节次 | 周一 | 周二 | ...
//   - 之后每行一节；课程单元格按跨度纵向合并，底色取课程配色
//   - 重叠课程不再合并，文本追加到先放置的单元格

func (s *exportService) ExportXLSX(ctx context.Context) (*bytes.Buffer, string, error) {
	data, ok := s.store.Current()
	if !ok {
		return nil, "", apperrors.New(apperrors.ErrNoSchedule, "当前没有课表", nil)
	}
	layout := ComputeLayout(data, s.layout)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	lastCol := len(layout.Days) + 1
	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", colName(lastCol), 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", layout.ScheduleName)
	f.MergeCell(sheetName, "A1", cell(colName(lastCol), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头（网格第 1 行 → Excel 第 2 行）
	f.SetCellValue(sheetName, "A2", "节次")
	for _, d := range layout.Days {
		f.SetCellValue(sheetName, cell(colName(d.Column), 2), d.Label)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(lastCol), 2), headerStyle)

	for p := 1; p <= layout.Rows; p++ {
		f.SetCellValue(sheetName, cell("A", p+2), fmt.Sprintf("第%d节", p))
		f.SetRowHeight(sheetName, p+2, 36)
	}
	f.SetCellStyle(sheetName, "A3", cell("A", layout.Rows+2), headerStyle)

	// 课程
	styles := make(map[string]int)
	occupied := make(map[string]string) // 单元格 → 所属课程的起始单元格
	texts := make(map[string]string)    // 起始单元格 → 文本

	for _, pl := range layout.Placements {
		col := colName(pl.Column)
		top := pl.Row + 1
		bottom := top + pl.RowSpan - 1
		anchor := cell(col, top)
		text := courseCellText(pl.Course)

		if owner := firstOccupied(occupied, col, top, bottom); owner != "" {
			texts[owner] += "\n" + text
			f.SetCellValue(sheetName, owner, texts[owner])
			continue
		}

		for r := top; r <= bottom; r++ {
			occupied[cell(col, r)] = anchor
		}
		texts[anchor] = text
		f.SetCellValue(sheetName, anchor, text)
		if bottom > top {
			f.MergeCell(sheetName, anchor, cell(col, bottom))
		}

		styleID, ok := styles[pl.Color.Name]
		if !ok {
			styleID, _ = f.NewStyle(&excelize.Style{
				Font:      &excelize.Font{Color: pl.Color.Text, Size: 10},
				Fill:      excelize.Fill{Type: "pattern", Color: []string{pl.Color.Fill}, Pattern: 1},
				Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			})
			styles[pl.Color.Name] = styleID
		}
		f.SetCellStyle(sheetName, anchor, cell(col, bottom), styleID)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("%s.xlsx", layout.ScheduleName), nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS: 导出课表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
//   - 第一周取 weekStart 所在周的周一
//   - 每门有效课程生成一个 VEVENT：DTSTART/DTEND 为第一周对应日期的上下课时间，
//     RRULE 为 FREQ=WEEKLY;COUNT=weeks
//   - 上下课时间缺失或无法解析的课程跳过

func (s *exportService) ExportICS(ctx context.Context, weekStart time.Time) (*bytes.Buffer, string, error) {
	data, ok := s.store.Current()
	if !ok {
		return nil, "", apperrors.New(apperrors.ErrNoSchedule, "当前没有课表", nil)
	}

	monday := mondayOf(weekStart.In(s.loc))
	now := time.Now()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//smart-schedule//CN")
	cal.SetXWRCalName(data.DisplayName())
	cal.SetXWRTimezone(s.loc.String())

	count := 0
	for _, c := range data.Courses {
		start, end, ok := courseTimes(c, monday, s.loc)
		if !ok {
			continue
		}

		evt := cal.AddEvent(c.ID + "@smart-schedule")
		evt.SetDtStampTime(now)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(c.Subject)
		if c.Location != "" {
			evt.SetLocation(c.Location)
		}
		if c.Teacher != "" {
			evt.SetDescription(c.Teacher)
		}
		evt.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", s.weeks))
		evt.AddProperty(ics.ComponentProperty(icsPeriodsProperty), fmt.Sprintf("%d-%d", c.StartPeriod, c.EndPeriod))
		count++
	}

	if count == 0 {
		return nil, "", ErrExportNoTimedCourses
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, fmt.Sprintf("%s.ics", data.DisplayName()), nil
}

// ── 辅助函数 ──

// courseCellText 单元格文本：课程名 / 地点 / 教师 / 时间，缺失项省略
func courseCellText(c model.Course) string {
	lines := []string{c.Subject}
	if c.Location != "" {
		lines = append(lines, c.Location)
	}
	if c.Teacher != "" {
		lines = append(lines, c.Teacher)
	}
	if c.StartTime != "" && c.EndTime != "" {
		lines = append(lines, c.StartTime+"-"+c.EndTime)
	}
	return strings.Join(lines, "\n")
}

func firstOccupied(occupied map[string]string, col string, top, bottom int) string {
	for r := top; r <= bottom; r++ {
		if owner, ok := occupied[cell(col, r)]; ok {
			return owner
		}
	}
	return ""
}

// courseTimes 第一周中该课程的上下课时刻
func courseTimes(c model.Course, monday time.Time, loc *time.Location) (time.Time, time.Time, bool) {
	if c.StartTime == "" || c.EndTime == "" || !c.Day.Valid() {
		return time.Time{}, time.Time{}, false
	}
	st, err := time.Parse("15:04", c.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	et, err := time.Parse("15:04", c.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	day := monday.AddDate(0, 0, c.Day.Ordinal()-1)
	start := time.Date(day.Year(), day.Month(), day.Day(), st.Hour(), st.Minute(), 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), et.Hour(), et.Minute(), 0, 0, loc)
	if !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// mondayOf 返回 t 所在周的周一零点
func mondayOf(t time.Time) time.Time {
	offset := goWeekdayToISO(t.Weekday()) - 1
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

func colName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
