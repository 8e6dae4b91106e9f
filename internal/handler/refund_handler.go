package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blues/crowdvc/internal/settle"
)

// RefundHandler 退款处理器
type RefundHandler struct {
	engine *settle.Engine
}

// NewRefundHandler 创建退款处理器
func NewRefundHandler(engine *settle.Engine) *RefundHandler {
	return &RefundHandler{engine: engine}
}

// RequestRefund 失败池退款
func (h *RefundHandler) RequestRefund(c *gin.Context) {
	poolId, ok := parseId(c, "id")
	if !ok {
		return
	}

	amount, err := h.engine.RequestRefund(c.Request.Context(), poolId, CallerAddress(c))
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "退款成功", gin.H{"amount": amount})
}
