package model

import (
	"fmt"
	"strings"
)

// DayOfWeek 星期（取值与识别结果中的英文枚举一致）
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

// AllDays 周一至周日，网格列顺序
var AllDays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Weekdays 周一至周五
var Weekdays = AllDays[:5]

var dayLabels = map[DayOfWeek]string{
	Monday:    "周一",
	Tuesday:   "周二",
	Wednesday: "周三",
	Thursday:  "周四",
	Friday:    "周五",
	Saturday:  "周六",
	Sunday:    "周日",
}

// DayNames 枚举字符串列表，用于响应 Schema 与校验
func DayNames() []string {
	names := make([]string, len(AllDays))
	for i, d := range AllDays {
		names[i] = string(d)
	}
	return names
}

// ParseDayOfWeek 解析星期，大小写不敏感
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	s = strings.TrimSpace(s)
	for _, d := range AllDays {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("无效的星期: %q", s)
}

// Valid 是否属于七个枚举值之一
func (d DayOfWeek) Valid() bool {
	_, ok := dayLabels[d]
	return ok
}

// Ordinal 1=周一 … 7=周日；非法值返回 0
func (d DayOfWeek) Ordinal() int {
	for i, v := range AllDays {
		if v == d {
			return i + 1
		}
	}
	return 0
}

// IsWeekend 周六或周日
func (d DayOfWeek) IsWeekend() bool {
	return d == Saturday || d == Sunday
}

// Label 中文显示名
func (d DayOfWeek) Label() string {
	return dayLabels[d]
}
