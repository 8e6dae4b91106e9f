package config

import (
	"time"

	"github.com/blues/crowdvc/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Task       TaskConfig       `mapstructure:"task"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// SettlementConfig 结算引擎配置
type SettlementConfig struct {
	FeeBps          int64  `mapstructure:"fee_bps"`           // 平台手续费（基点）
	PenaltyBps      int64  `mapstructure:"penalty_bps"`       // 提前退出罚金（基点）
	MaxWinners      int    `mapstructure:"max_winners"`       // 获胜项目数上限（平票可超出）
	QuorumBps       int64  `mapstructure:"quorum_bps"`        // 里程碑审批法定人数（基点，按投票人数计）
	MinGoal         int64  `mapstructure:"min_goal"`          // 池目标金额下限
	MaxGoal         int64  `mapstructure:"max_goal"`          // 池目标金额上限（0为不限）
	MinDurationHour int    `mapstructure:"min_duration_hour"` // 池持续时间下限（小时）
	MaxDurationHour int    `mapstructure:"max_duration_hour"` // 池持续时间上限（小时）
	Treasury        string `mapstructure:"treasury"`          // 平台金库地址
}

// MinDuration 池持续时间下限
func (s SettlementConfig) MinDuration() time.Duration {
	return time.Duration(s.MinDurationHour) * time.Hour
}

// MaxDuration 池持续时间上限
func (s SettlementConfig) MaxDuration() time.Duration {
	return time.Duration(s.MaxDurationHour) * time.Hour
}

// ChainConfig 链上划转配置
type ChainConfig struct {
	Enabled    bool              `mapstructure:"enabled"`     // 关闭时使用模拟划转
	ChainId    int64             `mapstructure:"chain_id"`    // 链ID
	RpcUrl     string            `mapstructure:"rpc_url"`     // RPC节点URL
	PrivateKey string            `mapstructure:"private_key"` // 托管账户私钥
	Tokens     map[string]string `mapstructure:"tokens"`      // token 标识 -> 合约地址
}

type TaskConfig struct {
	Interval      int `mapstructure:"interval"`       // 秒
	RefundWorkers int `mapstructure:"refund_workers"` // 退款任务协程池大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/crowdvc")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "crowdvc")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("settlement.fee_bps", 250)
	viper.SetDefault("settlement.penalty_bps", 1000)
	viper.SetDefault("settlement.max_winners", 3)
	viper.SetDefault("settlement.quorum_bps", 5100)
	viper.SetDefault("settlement.min_goal", 1000)
	viper.SetDefault("settlement.max_goal", 0)
	viper.SetDefault("settlement.min_duration_hour", 24)
	viper.SetDefault("settlement.max_duration_hour", 24*90)
	viper.SetDefault("chain.enabled", false)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("task.refund_workers", 8)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
