package middleware

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-quiz-eval/internal/utils"
)

// tokenLeeway absorbs clock skew between the platform issuing tokens and this service.
const tokenLeeway = 30 * time.Second

var (
	errMissingAuthorization   = errors.New("authorization header missing")
	errMalformedAuthorization = errors.New("authorization header must carry a bearer token")
)

// JWTProtected validates HMAC-signed bearer tokens issued by the GEMA platform
// and stores the caller in LocalUserID and LocalUserRole. Evaluations are
// recorded per user, so a token that names no user is rejected.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(tokenLeeway),
	)
	key := []byte(secret)
	keyFunc := func(*jwt.Token) (interface{}, error) { return key, nil }

	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(tokenString, claims, keyFunc); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, ok := userIDFromClaims(claims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "token does not identify a user")
		}
		role := roleFromClaims(claims)
		if role == "" {
			role = RoleStudent
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserRole, role)
		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingAuthorization
	}

	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errMalformedAuthorization
	}
	return token, nil
}

func userIDFromClaims(claims jwt.MapClaims) (uint, bool) {
	for _, key := range []string{"sub", "user_id", "id"} {
		if id, ok := parseUserID(claims[key]); ok {
			return id, true
		}
	}
	return 0, false
}

// parseUserID accepts positive integral JSON numbers and decimal strings.
func parseUserID(value interface{}) (uint, bool) {
	switch v := value.(type) {
	case float64:
		if v < 1 || v != math.Trunc(v) || v > math.MaxUint32 {
			return 0, false
		}
		return uint(v), true
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || parsed == 0 {
			return 0, false
		}
		return uint(parsed), true
	default:
		return 0, false
	}
}

func roleFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		if role := canonicalRole(claims[key]); role != "" {
			return role
		}
	}
	return ""
}
