package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blues/crowdvc/internal/settle"
)

// VoteHandler 投票处理器
type VoteHandler struct {
	engine *settle.Engine
}

// NewVoteHandler 创建投票处理器
func NewVoteHandler(engine *settle.Engine) *VoteHandler {
	return &VoteHandler{engine: engine}
}

// Vote 贡献前投票
func (h *VoteHandler) Vote(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.Vote(poolId, CallerAddress(c), req.PitchId); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "投票成功", nil)
}

// ChangeVote 贡献前改票
func (h *VoteHandler) ChangeVote(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.ChangeVote(poolId, CallerAddress(c), req.PitchId); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "改票成功", nil)
}

// EndVoting 投票截止后结算
func (h *VoteHandler) EndVoting(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	result, err := h.engine.EndVoting(c.Request.Context(), poolId)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "投票结算完成", result)
}
