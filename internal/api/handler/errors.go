package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-schedule/internal/service"
	apperrors "smart-schedule/pkg/errors"
	"smart-schedule/pkg/response"
)

// 业务错误码
const (
	codeInvalidParam       = 20000
	codeMissingCredential  = 20001
	codeInvalidCredential  = 20002
	codeEmptyResponse      = 20003
	codeMalformedResponse  = 20004
	codeExtractionFailed   = 20005
	codeValidation         = 20006
	codeInvalidImage       = 20007
	codeExtractionBusy     = 20008
	codeNoSchedule         = 20009
	codeNoTimedCourses     = 20010
	codeExportGenerateFail = 20011
)

type errorMapping struct {
	kind   error
	status int
	code   int
}

// 识别服务本身的失败归为 502，其余为客户端问题
var errorMappings = []errorMapping{
	{apperrors.ErrMissingCredential, http.StatusBadRequest, codeMissingCredential},
	{apperrors.ErrInvalidCredential, http.StatusBadRequest, codeInvalidCredential},
	{apperrors.ErrEmptyResponse, http.StatusBadGateway, codeEmptyResponse},
	{apperrors.ErrMalformedResponse, http.StatusBadGateway, codeMalformedResponse},
	{apperrors.ErrExtractionFailed, http.StatusBadGateway, codeExtractionFailed},
	{apperrors.ErrValidation, http.StatusUnprocessableEntity, codeValidation},
	{apperrors.ErrIO, http.StatusBadRequest, codeInvalidImage},
	{apperrors.ErrExtractionInProgress, http.StatusConflict, codeExtractionBusy},
	{apperrors.ErrNoSchedule, http.StatusNotFound, codeNoSchedule},
}

// handleServiceError 将业务错误映射为 HTTP 响应
// 响应只携带面向用户的提示，底层原因由日志中间件记录
func handleServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrExportNoTimedCourses):
		response.BadRequest(c, codeNoTimedCourses, err.Error())
		return
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, codeExportGenerateFail, err.Error())
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			response.Error(c, m.status, m.code, apperrors.UserMessage(err, m.kind.Error()))
			return
		}
	}
	response.InternalError(c)
}
