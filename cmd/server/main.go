package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/blues/crowdvc/internal/config"
	"github.com/blues/crowdvc/internal/database"
	"github.com/blues/crowdvc/internal/logger"
	"github.com/blues/crowdvc/internal/rbac"
	"github.com/blues/crowdvc/internal/router"
	"github.com/blues/crowdvc/internal/settle"
	"github.com/blues/crowdvc/internal/task"
	"github.com/blues/crowdvc/internal/transfer"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	logger.Setup(cfg.Log)
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化资金划转器：链上划转或模拟划转
	var transferer transfer.Transferer
	if cfg.Chain.Enabled {
		transferer, err = transfer.Init(cfg.Chain)
		if err != nil {
			log.Fatalf("Failed to initialize chain transferer: %v", err)
		}
		logger.Info("Chain transfer enabled: chain_id=%d", cfg.Chain.ChainId)
	} else {
		transferer = transfer.NewMockClient()
		logger.Warn("Chain transfer disabled, using mock transferer")
	}

	// 初始化结算引擎
	engine, err := settle.NewEngine(db, cfg.Settlement, transferer)
	if err != nil {
		log.Fatalf("Failed to initialize settlement engine: %v", err)
	}

	// 初始化权限校验器
	checker := rbac.NewChecker(db)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(engine, checker)

	// 启动定时任务
	manager := task.Start(db, engine, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
