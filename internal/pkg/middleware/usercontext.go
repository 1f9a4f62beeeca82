package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CareFund/internal/pkg/session"
	"github.com/ManuelReschke/CareFund/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session into a UserContext for every
// request. Missing or broken sessions yield an anonymous context.
func UserContextMiddleware(c *fiber.Ctx) error {
	anonymous := func() error {
		c.Locals(usercontext.LocalsKey, usercontext.UserContext{})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	store := session.GetSessionStore()
	if store == nil {
		return anonymous()
	}
	sess, err := store.Get(c)
	if err != nil {
		log.Warnf("[UserContext] Failed to load session: %v", err)
		return anonymous()
	}

	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		return anonymous()
	}

	username, _ := sess.Get(usercontext.KeyUsername).(string)
	role, _ := sess.Get(usercontext.KeyRole).(string)

	c.Locals(usercontext.LocalsKey, usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		Role:       role,
		IsLoggedIn: true,
	})
	c.Locals(usercontext.KeyFromProtected, true)
	return c.Next()
}
