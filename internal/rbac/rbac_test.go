package rbac

import (
	"testing"

	"github.com/blues/crowdvc/internal/model"
	"github.com/stretchr/testify/require"
)

func TestHasCapability(t *testing.T) {
	require.True(t, HasCapability([]string{model.RoleOperator}, CapCreatePool))
	require.True(t, HasCapability([]string{model.RoleAdmin}, CapCreatePool))
	require.True(t, HasCapability([]string{model.RoleArbiter}, CapManageDisputes))
	require.True(t, HasCapability([]string{model.RoleAdmin}, CapManageRoles))

	require.False(t, HasCapability([]string{model.RoleOperator}, CapManageDisputes))
	require.False(t, HasCapability([]string{model.RoleArbiter}, CapCreatePool))
	require.False(t, HasCapability([]string{model.RoleOperator}, CapManageRoles))
	require.False(t, HasCapability(nil, CapCreatePool))
	require.False(t, HasCapability([]string{"investor"}, CapCreatePool))
}

func TestHasCapabilityUnknownCapability(t *testing.T) {
	require.False(t, HasCapability([]string{model.RoleAdmin}, Capability("unknown")))
}
