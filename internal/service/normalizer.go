package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"smart-schedule/internal/model"
	apperrors "smart-schedule/pkg/errors"
)

// rawExtraction 识别服务返回的原始 JSON
// 全部使用指针，以区分"缺失"与"零值"
type rawExtraction struct {
	ScheduleName *string      `json:"scheduleName"`
	AnalysisLog  *string      `json:"analysis_log"`
	Courses      *[]rawCourse `json:"courses"`
}

type rawCourse struct {
	Day         *string `json:"day"         validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Subject     *string `json:"subject"     validate:"required"`
	StartPeriod *int    `json:"startPeriod" validate:"required,min=1"`
	EndPeriod   *int    `json:"endPeriod"   validate:"required,min=1"`
	Location    *string `json:"location"`
	Teacher     *string `json:"teacher"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
}

var courseValidate = newCourseValidator()

func newCourseValidator() *validator.Validate {
	v := validator.New()
	// 错误信息中使用 JSON 字段名，与识别 Schema 保持一致
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeExtraction 解析并规范化识别结果
//
//   - JSON 无法解析或缺少 courses 数组 → ErrMalformedResponse
//   - 任一课程缺少必填字段或节次非法 → ErrValidation，整批拒绝
//   - 每门课程重新生成 ID；来源中的 id 一律忽略
//   - 可选字段缺失时填充空字符串
func NormalizeExtraction(raw []byte) (*model.ScheduleData, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, apperrors.New(apperrors.ErrEmptyResponse, "识别服务未返回任何数据，请重试", nil)
	}

	var parsed rawExtraction
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperrors.New(apperrors.ErrMalformedResponse, "识别结果解析失败，请重试或更换更清晰的图片", err)
	}
	if parsed.Courses == nil {
		return nil, apperrors.New(apperrors.ErrMalformedResponse, "识别结果解析失败，请重试或更换更清晰的图片",
			fmt.Errorf("missing required field %q", fieldCourses))
	}

	courses := make([]model.Course, 0, len(*parsed.Courses))
	for i, rc := range *parsed.Courses {
		c, err := normalizeCourse(rc)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrValidation,
				fmt.Sprintf("第 %d 门课程信息不完整（%s），请重新识别或手动补充", i+1, err.Error()), err)
		}
		courses = append(courses, c)
	}

	return &model.ScheduleData{
		ScheduleName:      strings.TrimSpace(deref(parsed.ScheduleName)),
		Courses:           courses,
		AnalysisReasoning: deref(parsed.AnalysisLog),
	}, nil
}

func normalizeCourse(rc rawCourse) (model.Course, error) {
	if err := courseValidate.Struct(rc); err != nil {
		return model.Course{}, describeValidationError(err)
	}

	c := model.Course{
		ID:          uuid.NewString(),
		Subject:     strings.TrimSpace(*rc.Subject),
		Day:         model.DayOfWeek(*rc.Day),
		StartPeriod: *rc.StartPeriod,
		EndPeriod:   *rc.EndPeriod,
		Location:    strings.TrimSpace(deref(rc.Location)),
		Teacher:     strings.TrimSpace(deref(rc.Teacher)),
		StartTime:   strings.TrimSpace(deref(rc.StartTime)),
		EndTime:     strings.TrimSpace(deref(rc.EndTime)),
	}
	if err := c.Validate(); err != nil {
		return model.Course{}, err
	}
	return c, nil
}

func describeValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("缺少字段 %s", fe.Field())
	case "oneof":
		return fmt.Errorf("字段 %s 的值 %v 不合法", fe.Field(), fe.Value())
	case "min":
		return fmt.Errorf("字段 %s 必须大于等于 %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("字段 %s 校验失败（%s）", fe.Field(), fe.Tag())
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
