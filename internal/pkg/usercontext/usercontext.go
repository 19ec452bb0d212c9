package usercontext

import "github.com/gofiber/fiber/v2"

// LocalKey is the fiber Locals slot the middleware stores the context under.
const LocalKey = "USER_CONTEXT"

// UserContext is the per-request snapshot of the authenticated agent. It is
// populated once by the middleware so handlers never hit the session store or
// user table to answer "who is calling".
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
	Plan       string `json:"plan"`
}

// GetUserContext returns the request's user context, or an anonymous one when
// no middleware ran (anonymous callers quote as free-plan agents).
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals(LocalKey); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{IsLoggedIn: false, IsAdmin: false}
}

// IsLoggedIn reports whether the caller authenticated via session or API key.
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin reports whether the caller holds the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserID returns the caller's user ID, or 0 for anonymous requests.
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// GetUsername returns the caller's display name, or "" for anonymous requests.
func GetUsername(c *fiber.Ctx) string {
	return GetUserContext(c).Username
}
