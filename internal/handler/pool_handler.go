package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blues/crowdvc/internal/rbac"
	"github.com/blues/crowdvc/internal/settle"
	"github.com/blues/crowdvc/internal/settle/validate"
)

// PoolHandler 投资池处理器
type PoolHandler struct {
	engine  *settle.Engine
	checker *rbac.Checker
}

// NewPoolHandler 创建投资池处理器
func NewPoolHandler(engine *settle.Engine, checker *rbac.Checker) *PoolHandler {
	return &PoolHandler{engine: engine, checker: checker}
}

// CreatePool 创建投资池
func (h *PoolHandler) CreatePool(c *gin.Context) {
	if err := h.checker.Require(CallerAddress(c), rbac.CapCreatePool); err != nil {
		EngineErrorResponse(c, err)
		return
	}

	var req CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	candidates := make([]validate.CandidateInput, len(req.Candidates))
	for i, cand := range req.Candidates {
		candidates[i] = validate.CandidateInput{
			PitchId:      cand.PitchId,
			OwnerAddress: cand.OwnerAddress,
		}
	}

	pool, err := h.engine.CreatePool(settle.CreatePoolInput{
		Name:            req.Name,
		Category:        req.Category,
		FundingGoal:     req.FundingGoal,
		Token:           req.Token,
		TokenDecimals:   req.TokenDecimals,
		MinContribution: req.MinContribution,
		MaxContribution: req.MaxContribution,
		VotingDeadline:  req.VotingDeadline,
		FundingDeadline: req.FundingDeadline,
		Candidates:      candidates,
	})
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "创建投资池成功", pool)
}

// GetPools 分页获取池列表
func (h *PoolHandler) GetPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	pools, total, err := h.engine.ListPools(page, pageSize)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取池列表成功", gin.H{
		"pools": pools,
		"pagination": Pagination{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}

// GetPool 获取池详情
func (h *PoolHandler) GetPool(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	pool, err := h.engine.GetPool(poolId)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取池详情成功", pool)
}

// GetPoolStats 获取池统计信息
func (h *PoolHandler) GetPoolStats(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	stats, err := h.engine.GetPoolStats(poolId)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取池统计信息成功", stats)
}

// GetWinners 获取获胜名单
func (h *PoolHandler) GetWinners(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	winners, err := h.engine.GetWinners(poolId)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取获胜名单成功", winners)
}

// ClosePool 归档已完成分配的池
func (h *PoolHandler) ClosePool(c *gin.Context) {
	if err := h.checker.Require(CallerAddress(c), rbac.CapClosePool); err != nil {
		EngineErrorResponse(c, err)
		return
	}

	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	if err := h.engine.ClosePool(poolId); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "归档成功", nil)
}

// parseId 解析路径中的整数参数
func parseId(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的"+name+"参数")
		return 0, false
	}
	return id, true
}
