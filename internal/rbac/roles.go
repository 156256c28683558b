package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner      = "owner"  // reads the call log and answers permission prompts
	RoleReader     = "reader" // reads the call log only
	RoleSuperAdmin = "super_admin"
	RoleSupport    = "support" // hidden role
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleSupport }

// IsKnownRole reports whether role is one the service issues tokens for.
func IsKnownRole(role string) bool {
	switch role {
	case RoleOwner, RoleReader, RoleSuperAdmin, RoleSupport:
		return true
	}
	return false
}
