package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blues/crowdvc/internal/rbac"
	"github.com/blues/crowdvc/internal/settle"
)

// MilestoneHandler 里程碑处理器
type MilestoneHandler struct {
	engine  *settle.Engine
	checker *rbac.Checker
}

// NewMilestoneHandler 创建里程碑处理器
func NewMilestoneHandler(engine *settle.Engine, checker *rbac.Checker) *MilestoneHandler {
	return &MilestoneHandler{engine: engine, checker: checker}
}

// SetMilestones 项目方设置里程碑计划
func (h *MilestoneHandler) SetMilestones(c *gin.Context) {
	poolId, pitchId, ok := parsePoolPitch(c)
	if !ok {
		return
	}

	var req SetMilestonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.SetMilestones(poolId, pitchId, CallerAddress(c), req.Milestones); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "里程碑设置成功", nil)
}

// GetMilestones 获取里程碑列表
func (h *MilestoneHandler) GetMilestones(c *gin.Context) {
	poolId, pitchId, ok := parsePoolPitch(c)
	if !ok {
		return
	}

	milestones, err := h.engine.ListMilestones(poolId, pitchId)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取里程碑列表成功", milestones)
}

// CompleteMilestone 项目方提交完成证明
func (h *MilestoneHandler) CompleteMilestone(c *gin.Context) {
	poolId, pitchId, idx, ok := parseMilestoneRef(c)
	if !ok {
		return
	}

	var req CompleteMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.CompleteMilestone(poolId, pitchId, idx, CallerAddress(c), req.EvidenceRef); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "里程碑已标记完成", nil)
}

// ApproveMilestone 投票人审批
func (h *MilestoneHandler) ApproveMilestone(c *gin.Context) {
	poolId, pitchId, idx, ok := parseMilestoneRef(c)
	if !ok {
		return
	}

	count, err := h.engine.ApproveMilestone(poolId, pitchId, idx, CallerAddress(c))
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "审批成功", gin.H{"approval_count": count})
}

// DistributeMilestoneFunds 发放里程碑资金
func (h *MilestoneHandler) DistributeMilestoneFunds(c *gin.Context) {
	poolId, pitchId, idx, ok := parseMilestoneRef(c)
	if !ok {
		return
	}

	amount, err := h.engine.DistributeMilestoneFunds(c.Request.Context(), poolId, pitchId, idx)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "里程碑资金已发放", gin.H{"amount": amount})
}

// SetDispute 仲裁人标记/解除争议
func (h *MilestoneHandler) SetDispute(c *gin.Context) {
	if err := h.checker.Require(CallerAddress(c), rbac.CapManageDisputes); err != nil {
		EngineErrorResponse(c, err)
		return
	}

	poolId, pitchId, idx, ok := parseMilestoneRef(c)
	if !ok {
		return
	}

	var req DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.SetMilestoneDispute(poolId, pitchId, idx, req.Disputed); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "争议状态已更新", nil)
}

// parsePoolPitch 解析池和项目参数
func parsePoolPitch(c *gin.Context) (int64, int64, bool) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return 0, 0, false
	}
	pitchId, ok := parseId(c, "pitch")
	if !ok {
		return 0, 0, false
	}
	return poolId, pitchId, true
}

// parseMilestoneRef 解析池、项目和里程碑下标参数
func parseMilestoneRef(c *gin.Context) (int64, int64, int, bool) {
	poolId, pitchId, ok := parsePoolPitch(c)
	if !ok {
		return 0, 0, 0, false
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑下标")
		return 0, 0, 0, false
	}
	return poolId, pitchId, idx, true
}
