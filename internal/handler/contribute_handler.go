package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blues/crowdvc/internal/settle"
)

// ContributeHandler 贡献处理器
type ContributeHandler struct {
	engine *settle.Engine
}

// NewContributeHandler 创建贡献处理器
func NewContributeHandler(engine *settle.Engine) *ContributeHandler {
	return &ContributeHandler{engine: engine}
}

// Contribute 贡献资金
func (h *ContributeHandler) Contribute(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	contribution, err := h.engine.Contribute(c.Request.Context(), settle.ContributeInput{
		PoolId:      poolId,
		Contributor: CallerAddress(c),
		Amount:      req.Amount,
		Token:       req.Token,
		PitchId:     req.PitchId,
	})
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "贡献成功", contribution)
}

// GetContributions 分页获取池的贡献记录
func (h *ContributeHandler) GetContributions(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	records, total, err := h.engine.ListContributions(poolId, page, pageSize)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取贡献记录成功", gin.H{
		"records": records,
		"pagination": Pagination{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}

// GetContribution 获取单个贡献者的累计贡献
func (h *ContributeHandler) GetContribution(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	contribution, err := h.engine.GetContribution(poolId, c.Param("address"))
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取贡献记录成功", contribution)
}

// EarlyWithdraw 提前退出
func (h *ContributeHandler) EarlyWithdraw(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	refund, err := h.engine.EarlyWithdraw(c.Request.Context(), poolId, CallerAddress(c))
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "提前退出成功", gin.H{"refund": refund})
}
