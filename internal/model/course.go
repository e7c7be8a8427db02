package model

import (
	"fmt"
	"strings"
)

// Course 课程条目：某一天连续若干节次的占用
//
// ID 由系统生成，是更新/删除的唯一依据；同一天的节次允许重叠
type Course struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Day         DayOfWeek `json:"day"`
	StartPeriod int       `json:"startPeriod"` // 1-based
	EndPeriod   int       `json:"endPeriod"`   // 含
	Location    string    `json:"location"`
	Teacher     string    `json:"teacher"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
}

// Span 占用节数
func (c Course) Span() int {
	return c.EndPeriod - c.StartPeriod + 1
}

// Covers 是否占用指定节次
func (c Course) Covers(period int) bool {
	return period >= c.StartPeriod && period <= c.EndPeriod
}

// Overlaps 与另一门课是否在同一天且节次相交
func (c Course) Overlaps(o Course) bool {
	return c.Day == o.Day && c.StartPeriod <= o.EndPeriod && o.StartPeriod <= c.EndPeriod
}

// Validate 校验不变量：课程名非空、星期合法、1 <= start <= end
func (c Course) Validate() error {
	if strings.TrimSpace(c.Subject) == "" {
		return fmt.Errorf("课程名称不能为空")
	}
	if !c.Day.Valid() {
		return fmt.Errorf("无效的星期: %q", c.Day)
	}
	if c.StartPeriod < 1 {
		return fmt.Errorf("开始节次必须大于等于 1，当前为 %d", c.StartPeriod)
	}
	if c.EndPeriod < c.StartPeriod {
		return fmt.Errorf("结束节次 %d 不能小于开始节次 %d", c.EndPeriod, c.StartPeriod)
	}
	return nil
}
