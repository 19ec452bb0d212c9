package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Session and Locals keys shared with the middlewares.
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

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// paginationParams reads page/page_size query params with sane bounds.
func paginationParams(c *fiber.Ctx, defaultSize, maxSize int) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size := c.QueryInt("page_size", defaultSize)
	if size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return (page - 1) * size, size
}

// GetClientIP determines the actual client IP address considering proxies and dual stack
// Returns both IPv4 and IPv6 addresses if available
func GetClientIP(c *fiber.Ctx) (string, string) {
	ipv4 := ""
	ipv6 := ""

	// Cloudflare provides the original client IP in this header
	cfIP := c.Get("CF-Connecting-IP")
	if cfIP != "" {
		if strings.Contains(cfIP, ":") {
			ipv6 = cfIP
			if ip := pickFromForwardedFor(c, false); ip != "" {
				ipv4 = ip
			}
		} else {
			ipv4 = cfIP
			if ip := pickFromForwardedFor(c, true); ip != "" {
				ipv6 = ip
			}
		}
		return ipv4, ipv6
	}

	// X-Forwarded-For can contain a list of IPs - the first one is the original client
	xff := c.Get("X-Forwarded-For")
	if xff != "" {
		xffList := strings.Split(xff, ",")
		clientIP := strings.TrimSpace(xffList[0])
		if strings.Contains(clientIP, ":") {
			ipv6 = clientIP
			ipv4 = pickFromForwardedFor(c, false)
		} else {
			ipv4 = clientIP
			ipv6 = pickFromForwardedFor(c, true)
		}
		if ipv4 != "" || ipv6 != "" {
			return ipv4, ipv6
		}
	}

	ipAddr := c.IP()
	if strings.Contains(ipAddr, ":") {
		// IPv4-mapped-IPv6 addresses (::ffff:192.168.1.1)
		if strings.Contains(ipAddr, ".") && strings.HasPrefix(ipAddr, "::ffff:") {
			ipv4 = strings.TrimPrefix(ipAddr, "::ffff:")
		} else {
			ipv6 = ipAddr
			if realIPv4 := c.Get("X-Real-IP"); realIPv4 != "" && !strings.Contains(realIPv4, ":") {
				ipv4 = realIPv4
			}
		}
	} else {
		ipv4 = ipAddr
		if realIPv6 := c.Get("X-Real-IP"); realIPv6 != "" && strings.Contains(realIPv6, ":") {
			ipv6 = realIPv6
		}
	}

	return ipv4, ipv6
}

func pickFromForwardedFor(c *fiber.Ctx, wantV6 bool) string {
	for _, raw := range strings.Split(c.Get("X-Forwarded-For"), ",") {
		ip := strings.TrimSpace(raw)
		if ip == "" {
			continue
		}
		if strings.Contains(ip, ":") == wantV6 {
			return ip
		}
	}
	return ""
}
