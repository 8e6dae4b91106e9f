package router

import (
	"github.com/gin-gonic/gin"

	"github.com/blues/crowdvc/internal/handler"
	"github.com/blues/crowdvc/internal/rbac"
	"github.com/blues/crowdvc/internal/settle"
)

func Setup(engine *settle.Engine, checker *rbac.Checker) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "crowdvc-settlement",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		poolHandler := handler.NewPoolHandler(engine, checker)
		contributeHandler := handler.NewContributeHandler(engine)
		voteHandler := handler.NewVoteHandler(engine)
		milestoneHandler := handler.NewMilestoneHandler(engine, checker)
		refundHandler := handler.NewRefundHandler(engine)

		pools := v1.Group("/pools")
		{
			pools.POST("", poolHandler.CreatePool)
			pools.GET("", poolHandler.GetPools)
			pools.GET("/:id", poolHandler.GetPool)
			pools.GET("/:id/stats", poolHandler.GetPoolStats)
			pools.GET("/:id/winners", poolHandler.GetWinners)
			pools.POST("/:id/close", poolHandler.ClosePool)

			pools.POST("/:id/contributions", contributeHandler.Contribute)
			pools.GET("/:id/contributions", contributeHandler.GetContributions)
			pools.GET("/:id/contributions/:address", contributeHandler.GetContribution)
			pools.POST("/:id/withdrawals", contributeHandler.EarlyWithdraw)

			pools.POST("/:id/votes", voteHandler.Vote)
			pools.PUT("/:id/votes", voteHandler.ChangeVote)
			pools.POST("/:id/end-voting", voteHandler.EndVoting)

			pools.POST("/:id/refunds", refundHandler.RequestRefund)

			pitches := pools.Group("/:id/pitches/:pitch")
			{
				pitches.POST("/milestones", milestoneHandler.SetMilestones)
				pitches.GET("/milestones", milestoneHandler.GetMilestones)
				pitches.POST("/milestones/:idx/complete", milestoneHandler.CompleteMilestone)
				pitches.POST("/milestones/:idx/approvals", milestoneHandler.ApproveMilestone)
				pitches.POST("/milestones/:idx/distribute", milestoneHandler.DistributeMilestoneFunds)
				pitches.POST("/milestones/:idx/dispute", milestoneHandler.SetDispute)
			}
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Caller-Address")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
