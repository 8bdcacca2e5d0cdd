package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext is the per-request identity snapshot assembled from the session
// by UserContextMiddleware: who is asking, whether they administrate, and the
// entitlement plan their listing and photo limits derive from.
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
	Plan       string `json:"plan"`
}

// GetUserContext returns the context stored on the request, or an anonymous
// one for requests that never passed the session middleware.
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals("USER_CONTEXT"); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{}
}

// IsLoggedIn reports whether the request carries an authenticated session.
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin reports whether the requester has the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserID returns the requester's id, 0 when anonymous.
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// GetUsername returns the requester's display name, empty when anonymous.
func GetUsername(c *fiber.Ctx) string {
	return GetUserContext(c).Username
}
