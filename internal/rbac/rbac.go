package rbac

// Permission is one named capability.
type Permission string

const (
	PermissionContentView     Permission = "content:view"
	PermissionContentCreate   Permission = "content:create"
	PermissionContentTransfer Permission = "content:transfer"
	PermissionContentStatus   Permission = "content:status"

	PermissionSessionManage Permission = "session:manage"
	PermissionProgressWrite Permission = "progress:write"

	PermissionLogsView Permission = "logs:view"
)

// Role is a platform role, stored on the user record.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// RBAC maps roles to permissions. The mapping is static; there is no
// per-organization scoping on this platform.
type RBAC struct {
	rolePermissions map[Role][]Permission
}

func New() *RBAC {
	return &RBAC{
		rolePermissions: map[Role][]Permission{
			RoleAdmin: {
				PermissionContentView,
				PermissionContentCreate,
				PermissionContentTransfer,
				PermissionContentStatus,
				PermissionSessionManage,
				PermissionProgressWrite,
				PermissionLogsView,
			},
			RoleUser: {
				PermissionContentView,
				PermissionSessionManage,
				PermissionProgressWrite,
			},
		},
	}
}

// HasPermission reports whether the role carries the permission. Unknown
// roles have no permissions.
func (r *RBAC) HasPermission(role Role, permission Permission) bool {
	for _, p := range r.rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// GetRolePermissions returns a copy of the role's permission list.
func (r *RBAC) GetRolePermissions(role Role) []Permission {
	permissions, exists := r.rolePermissions[role]
	if !exists {
		return []Permission{}
	}
	result := make([]Permission, len(permissions))
	copy(result, permissions)
	return result
}
