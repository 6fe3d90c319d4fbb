package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-quiz-eval/internal/utils"
)

// Request locals populated by JWTProtected.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

// Quiz roles. Tokens without a role claim act as RoleStudent.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// RequireRole lets the request through only when the caller holds one of roles.
// A request that never passed JWTProtected has no role and is unauthorized.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := canonicalRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role := canonicalRole(c.Locals(LocalUserRole))
		if role == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, fmt.Sprintf("role %q may not access this resource", role))
		}
		return c.Next()
	}
}

// canonicalRole lower-cases a role from a token claim or the request locals.
// For lists the first non-blank entry wins.
func canonicalRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case []string:
		for _, item := range v {
			if role := canonicalRole(item); role != "" {
				return role
			}
		}
	case []interface{}:
		for _, item := range v {
			if role := canonicalRole(item); role != "" {
				return role
			}
		}
	case fmt.Stringer:
		return canonicalRole(v.String())
	}
	return ""
}
