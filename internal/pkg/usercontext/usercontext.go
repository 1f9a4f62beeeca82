package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext represents the identity attached to a request
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

func (u UserContext) IsAdmin() bool {
	return u.IsLoggedIn && u.Role == RoleAdmin
}

func (u UserContext) IsDonor() bool {
	return u.IsLoggedIn && u.Role == RoleDonor
}

// DonorID returns the donor ID to attribute payments to, or nil for guests
// and admins.
func (u UserContext) DonorID() *uint {
	if !u.IsDonor() || u.UserID == 0 {
		return nil
	}
	id := u.UserID
	return &id
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(LocalsKey).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}
