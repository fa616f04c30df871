package rbac

// Permissions
const (
	PermissionCreateProject      = "project:create"
	PermissionEditOwnProject     = "project:edit_own"
	PermissionReadAnyProject     = "project:read_any"
	PermissionPostMessage        = "message:post"
	PermissionUploadDeliverable  = "deliverable:upload"
	PermissionReadDashboardStats = "dashboard:read"
)

// Roles, same vocabulary as profiles.role
const (
	RoleClient    = "client"
	RoleManager   = "manager"
	RoleDeveloper = "developer"
)

// Capabilities is the per-role behaviour switchboard consulted by the
// onboarding controller and the HTTP layer.
type Capabilities struct {
	// SubjectToOnboarding routes the principal through the onboarding wizard
	// until one of their projects has completed onboarding.
	SubjectToOnboarding bool
	// OwnerScoped restricts project reads to projects the principal owns.
	OwnerScoped bool
	Permissions []string
}

var roleCapabilities = map[string]Capabilities{
	RoleClient: {
		SubjectToOnboarding: true,
		OwnerScoped:         true,
		Permissions: []string{
			PermissionCreateProject,
			PermissionEditOwnProject,
			PermissionPostMessage,
			PermissionUploadDeliverable,
			PermissionReadDashboardStats,
		},
	},
	RoleManager: {
		Permissions: []string{
			PermissionReadAnyProject,
			PermissionPostMessage,
			PermissionUploadDeliverable,
		},
	},
	RoleDeveloper: {
		Permissions: []string{
			PermissionReadAnyProject,
			PermissionPostMessage,
			PermissionUploadDeliverable,
		},
	},
}

// CapabilitiesFor returns the capabilities of role. Unknown roles get the
// client's capabilities, the most restricted set.
func CapabilitiesFor(role string) Capabilities {
	if caps, ok := roleCapabilities[role]; ok {
		return caps
	}
	return roleCapabilities[RoleClient]
}

// HasPermission reports whether role grants permission
func HasPermission(role string, permission string) bool {
	for _, p := range CapabilitiesFor(role).Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission is HasPermission returning an error for handlers
func CheckPermission(role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError reports a missing permission
type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
