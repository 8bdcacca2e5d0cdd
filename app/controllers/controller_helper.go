package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Shared session/Locals keys. The usercontext middleware fills these for
// every request.
const (
	AUTH_KEY       string = "authenticated"
	USER_ID        string = "user_id"
	USER_NAME      string = "username"
	USER_IS_ADMIN  string = "isAdmin"
	FROM_PROTECTED string = "from_protected"
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(FROM_PROTECTED); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// ExtractUsername gets the username from Locals (set by middleware)
func ExtractUsername(c *fiber.Ctx) string {
	if userNameValue := c.Locals(USER_NAME); userNameValue != nil {
		if userName, ok := userNameValue.(string); ok {
			return userName
		}
	}

	return ""
}

// jsonError is the uniform error envelope of the JSON API.
func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// GetClientIP determines the actual client IP address considering proxies.
// Returns both IPv4 and IPv6 addresses if available.
func GetClientIP(c *fiber.Ctx) (string, string) {
	ipv4 := ""
	ipv6 := ""

	// Cloudflare puts the original client IP in its own header
	cfIP := c.Get("CF-Connecting-IP")
	if cfIP != "" {
		if strings.Contains(cfIP, ":") {
			ipv6 = cfIP
		} else {
			ipv4 = cfIP
		}
		return ipv4, ipv6
	}

	// Standard proxy header: first entry is the original client
	xff := c.Get("X-Forwarded-For")
	if xff != "" {
		clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
		if strings.Contains(clientIP, ":") {
			ipv6 = clientIP
		} else {
			ipv4 = clientIP
		}
		return ipv4, ipv6
	}

	ipAddr := c.IP()
	if strings.Contains(ipAddr, ":") {
		// ::ffff: prefixed addresses are IPv4 mapped into IPv6
		if strings.Contains(ipAddr, ".") && strings.HasPrefix(ipAddr, "::ffff:") {
			ipv4 = strings.TrimPrefix(ipAddr, "::ffff:")
		} else {
			ipv6 = ipAddr
		}
	} else {
		ipv4 = ipAddr
	}

	return ipv4, ipv6
}
