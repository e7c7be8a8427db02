package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"smart-schedule/internal/dto"
	"smart-schedule/internal/model"
	"smart-schedule/internal/service"
	"smart-schedule/pkg/response"
)

// ScheduleHandler 课表与网格 Handler
type ScheduleHandler struct {
	store  service.ScheduleStore
	layout service.LayoutOptions
}

// NewScheduleHandler 创建 ScheduleHandler 实例
func NewScheduleHandler(store service.ScheduleStore, layout service.LayoutOptions) *ScheduleHandler {
	return &ScheduleHandler{store: store, layout: layout}
}

// GetSchedule 获取当前课表
// GET /api/v1/schedule
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	data, _ := h.store.Current()
	response.OK(c, dto.NewScheduleResponse(data))
}

// ReplaceSchedule 整体替换课表
// PUT /api/v1/schedule
func (h *ScheduleHandler) ReplaceSchedule(c *gin.Context) {
	var req dto.ReplaceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParam, err.Error())
		return
	}

	if err := h.store.Load(c.Request.Context(), req.ToModel()); err != nil {
		handleServiceError(c, err)
		return
	}
	data, _ := h.store.Current()
	response.OK(c, dto.NewScheduleResponse(data))
}

// ClearSchedule 清空课表
// DELETE /api/v1/schedule
func (h *ScheduleHandler) ClearSchedule(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, nil)
}

// AddCourse 新增课程
// POST /api/v1/schedule/courses
func (h *ScheduleHandler) AddCourse(c *gin.Context) {
	var req dto.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParam, err.Error())
		return
	}

	added, applied, err := h.store.AddCourse(c.Request.Context(), req.ToModel())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !applied {
		response.OK(c, dto.CourseMutationResponse{Applied: false})
		return
	}
	response.Created(c, dto.CourseMutationResponse{Applied: true, Course: &added})
}

// UpdateCourse 编辑课程（按路径中的 ID 整体替换）
// PUT /api/v1/schedule/courses/:id
func (h *ScheduleHandler) UpdateCourse(c *gin.Context) {
	var req dto.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParam, err.Error())
		return
	}
	course := req.ToModel()
	course.ID = c.Param("id")

	updated, applied, err := h.store.UpdateCourse(c.Request.Context(), course)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	resp := dto.CourseMutationResponse{Applied: applied}
	if applied {
		resp.Course = &updated
	}
	response.OK(c, resp)
}

// DeleteCourse 删除课程
// DELETE /api/v1/schedule/courses/:id
func (h *ScheduleHandler) DeleteCourse(c *gin.Context) {
	applied, err := h.store.DeleteCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, dto.CourseMutationResponse{Applied: applied})
}

// GetLayout 获取网格布局
// GET /api/v1/schedule/layout
func (h *ScheduleHandler) GetLayout(c *gin.Context) {
	data, _ := h.store.Current()
	response.OK(c, service.ComputeLayout(data, h.layout))
}

// PressCell 长按单元格，返回应打开的编辑框
// GET /api/v1/schedule/cell?day=Monday&period=3&held_ms=650
func (h *ScheduleHandler) PressCell(c *gin.Context) {
	var q dto.CellPressQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, codeInvalidParam, err.Error())
		return
	}

	data, _ := h.store.Current()
	action := service.ResolveCellPress(data, model.DayOfWeek(q.Day), q.Period,
		time.Duration(q.HeldMs)*time.Millisecond, h.layout)
	response.OK(c, action)
}
