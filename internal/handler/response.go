package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blues/crowdvc/internal/rbac"
	"github.com/blues/crowdvc/internal/settle"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// EngineErrorResponse 按错误类别映射HTTP状态码
func EngineErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, settle.ErrPoolNotFound),
		errors.Is(err, settle.ErrPitchNotFound),
		errors.Is(err, settle.ErrContributionNotFound),
		errors.Is(err, settle.ErrMilestoneNotFound),
		errors.Is(err, settle.ErrNotWinner):
		ErrorResponse(c, http.StatusNotFound, err.Error())

	case errors.Is(err, rbac.ErrForbidden),
		errors.Is(err, settle.ErrNotPitchOwner),
		errors.Is(err, settle.ErrNotPitchVoter):
		ErrorResponse(c, http.StatusForbidden, err.Error())

	case errors.Is(err, settle.ErrPoolNotActive),
		errors.Is(err, settle.ErrPoolNotFunded),
		errors.Is(err, settle.ErrPoolNotFailed),
		errors.Is(err, settle.ErrVotingClosed),
		errors.Is(err, settle.ErrVotingNotClosed),
		errors.Is(err, settle.ErrAlreadyContributed),
		errors.Is(err, settle.ErrAlreadyWithdrawn),
		errors.Is(err, settle.ErrAlreadyRefunded),
		errors.Is(err, settle.ErrAlreadyApproved),
		errors.Is(err, settle.ErrAlreadyCompleted),
		errors.Is(err, settle.ErrAlreadyDistributed),
		errors.Is(err, settle.ErrMilestonesSet),
		errors.Is(err, settle.ErrMilestonesNotSet),
		errors.Is(err, settle.ErrNotCompleted),
		errors.Is(err, settle.ErrMilestoneDisputed),
		errors.Is(err, settle.ErrQuorumNotReached),
		errors.Is(err, settle.ErrNotDistributable),
		errors.Is(err, settle.ErrTransferInProgress):
		ErrorResponse(c, http.StatusConflict, err.Error())

	case errors.Is(err, settle.ErrExceedsAllocation):
		// 账本不变量被破坏：响应500并保留原始信息
		ErrorResponse(c, http.StatusInternalServerError, err.Error())

	default:
		// 校验类错误统一按 400 处理
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	}
}

// CallerAddress 从请求头获取调用者地址（签名校验由外部网关完成）
func CallerAddress(c *gin.Context) string {
	return c.GetHeader("X-Caller-Address")
}
