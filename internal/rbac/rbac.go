package rbac

import (
	"errors"

	"gorm.io/gorm"

	"github.com/blues/crowdvc/internal/model"
)

// Capability 操作能力
type Capability string

const (
	CapCreatePool     Capability = "create_pool"     // 创建投资池
	CapClosePool      Capability = "close_pool"      // 归档投资池
	CapManageDisputes Capability = "manage_disputes" // 标记/解除里程碑争议
	CapManageRoles    Capability = "manage_roles"    // 管理角色
)

// ErrForbidden 调用者缺少所需能力
var ErrForbidden = errors.New("调用者缺少所需权限")

// capabilityRoles 能力到角色的映射：持有任一角色即放行
var capabilityRoles = map[Capability][]string{
	CapCreatePool:     {model.RoleAdmin, model.RoleOperator},
	CapClosePool:      {model.RoleAdmin, model.RoleOperator},
	CapManageDisputes: {model.RoleAdmin, model.RoleArbiter},
	CapManageRoles:    {model.RoleAdmin},
}

// HasCapability 判断一组角色是否覆盖某个能力
func HasCapability(roles []string, cap Capability) bool {
	allowed, ok := capabilityRoles[cap]
	if !ok {
		return false
	}
	for _, r := range roles {
		for _, a := range allowed {
			if r == a {
				return true
			}
		}
	}
	return false
}

// Checker 基于角色表的能力检查器
type Checker struct {
	db *gorm.DB
}

// NewChecker 创建能力检查器
func NewChecker(db *gorm.DB) *Checker {
	return &Checker{db: db}
}

// Require 校验调用者具备所需能力，缺失时返回 ErrForbidden
func (c *Checker) Require(caller string, cap Capability) error {
	var roles []string
	if err := c.db.Model(&model.RoleModel{}).
		Where("address = ?", caller).
		Pluck("role", &roles).Error; err != nil {
		return err
	}
	if !HasCapability(roles, cap) {
		return ErrForbidden
	}
	return nil
}

// Grant 授予地址角色（幂等）
func (c *Checker) Grant(address, role string) error {
	var count int64
	if err := c.db.Model(&model.RoleModel{}).
		Where("address = ? AND role = ?", address, role).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return c.db.Create(&model.RoleModel{Address: address, Role: role}).Error
}

// Revoke 撤销地址角色
func (c *Checker) Revoke(address, role string) error {
	return c.db.Where("address = ? AND role = ?", address, role).
		Delete(&model.RoleModel{}).Error
}
