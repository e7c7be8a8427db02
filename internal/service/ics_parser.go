package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"smart-schedule/internal/model"
	apperrors "smart-schedule/pkg/errors"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将本系统导出的 iCalendar 还原为课表，用于备份恢复。
//
// 设计决策：
//   - DTSTART 确定星期几，DTSTART/DTEND 确定上下课时间
//   - 节次来自 X-SMART-SCHEDULE-PERIODS；缺少该属性的事件无法放入网格，跳过
//   - 同名同时段的多个单次事件合并为一门课程
//   - 重复规则与周次不参与还原，课表本身不区分周次
// ─────────────────────────────────────────────────────────────

// icsMaxFileSize 导入文件大小上限
const icsMaxFileSize = 5 * 1024 * 1024

func (s *exportService) ImportICS(ctx context.Context, content []byte) (*model.ScheduleData, error) {
	if len(content) > icsMaxFileSize {
		return nil, apperrors.New(apperrors.ErrIO, "日历文件过大", nil)
	}
	data, err := ParseICS(bytes.NewReader(content), s.loc)
	if err != nil {
		return nil, err
	}
	if err := s.store.Load(ctx, data); err != nil {
		return nil, err
	}

	s.logger.Info("已从日历导入课表", zap.Int("courses", len(data.Courses)))
	if current, ok := s.store.Current(); ok {
		return current, nil
	}
	return data, nil
}

// ParseICS 解析 ICS 内容为课表；课程 ID 由 Store 加载时生成
func ParseICS(reader io.Reader, loc *time.Location) (*model.ScheduleData, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrValidation, "日历文件格式错误", err)
	}

	data := &model.ScheduleData{Courses: []model.Course{}}
	for _, p := range cal.CalendarProperties {
		if p.IANAToken == string(ics.PropertyXWRCalName) {
			data.ScheduleName = strings.TrimSpace(p.Value)
		}
	}

	seen := make(map[string]bool)
	for _, evt := range cal.Events() {
		c, ok := parseVEvent(evt, loc)
		if !ok {
			continue
		}
		key := fmt.Sprintf("%s|%s|%d|%d|%s|%s", c.Subject, c.Day, c.StartPeriod, c.EndPeriod, c.StartTime, c.EndTime)
		if seen[key] {
			continue
		}
		seen[key] = true
		data.Courses = append(data.Courses, c)
	}

	if len(data.Courses) == 0 {
		return nil, apperrors.New(apperrors.ErrValidation, "日历中没有可导入的课程", nil)
	}
	return data, nil
}

// parseVEvent 解析单个 VEVENT 组件
func parseVEvent(evt *ics.VEvent, loc *time.Location) (model.Course, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return model.Course{}, false
	}

	periods := evt.GetProperty(ics.ComponentProperty(icsPeriodsProperty))
	if periods == nil {
		return model.Course{}, false
	}
	var startPeriod, endPeriod int
	if _, err := fmt.Sscanf(periods.Value, "%d-%d", &startPeriod, &endPeriod); err != nil {
		return model.Course{}, false
	}

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return model.Course{}, false
	}

	c := model.Course{
		Subject:     strings.TrimSpace(summary.Value),
		Day:         model.AllDays[goWeekdayToISO(dtStart.Weekday())-1],
		StartPeriod: startPeriod,
		EndPeriod:   endPeriod,
		StartTime:   dtStart.Format("15:04"),
	}
	if dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc); err == nil {
		c.EndTime = dtEnd.Format("15:04")
	} else {
		c.StartTime = ""
	}
	if p := evt.GetProperty(ics.ComponentPropertyLocation); p != nil {
		c.Location = strings.TrimSpace(p.Value)
	}
	if p := evt.GetProperty(ics.ComponentPropertyDescription); p != nil {
		c.Teacher = strings.TrimSpace(p.Value)
	}

	if c.Validate() != nil {
		return model.Course{}, false
	}
	return c, true
}

// ── 辅助函数 ──

// goWeekdayToISO 将 Go 的 time.Weekday (0=Sunday) 转为 ISO 8601 (1=Monday … 7=Sunday)
func goWeekdayToISO(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			if strings.HasSuffix(layout, "Z") {
				return t.In(loc), nil
			}
			if tzid != "" {
				if tzLoc, err := time.LoadLocation(tzid); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
				}
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
