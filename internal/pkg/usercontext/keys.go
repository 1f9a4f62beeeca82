package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	LocalsKey        = "USER_CONTEXT"
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyRole          = "role"
	KeyFromProtected = "from_protected"
)

// Roles stored in the session.
const (
	RoleDonor = "donor"
	RoleAdmin = "admin"
)
