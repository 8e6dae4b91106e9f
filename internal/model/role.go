package model

import (
	"time"
)

// RoleModel 地址角色表
type RoleModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Address string `json:"address" gorm:"not null;uniqueIndex:idx_address_role,priority:1"`
	Role    string `json:"role" gorm:"not null;uniqueIndex:idx_address_role,priority:2"`
}

const (
	RoleAdmin    = "admin"    // 平台管理员
	RoleOperator = "operator" // 池运营方
	RoleArbiter  = "arbiter"  // 里程碑争议仲裁人
)

// TableName 自定义表名
func (RoleModel) TableName() string {
	return "role"
}
