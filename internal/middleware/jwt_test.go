package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newJWTApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(secret))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("user_id"),
			"role":    c.Locals("user_role"),
		})
	})
	return app
}

func TestJWTProtectedSetsIdentity(t *testing.T) {
	app := newJWTApp("secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", jwt.MapClaims{"sub": "7", "role": "Teacher"}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, uint(7), body.UserID)
	require.Equal(t, "teacher", body.Role)
}

func TestJWTProtectedDefaultsToStudent(t *testing.T) {
	app := newJWTApp("secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+signToken(t, "secret", jwt.MapClaims{"user_id": 12.0}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, uint(12), body.UserID)
	require.Equal(t, RoleStudent, body.Role)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := newJWTApp("secret")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"empty token":    "Bearer ",
		"wrong secret":   "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": "1"}),
		"unsigned":       "Bearer " + none,
		"expired":        "Bearer " + signToken(t, "secret", jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no user":        "Bearer " + signToken(t, "secret", jwt.MapClaims{"role": "teacher"}),
		"zero user":      "Bearer " + signToken(t, "secret", jwt.MapClaims{"sub": "0"}),
		"fractional id":  "Bearer " + signToken(t, "secret", jwt.MapClaims{"id": 1.5}),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestJWTProtectedToleratesClockSkew(t *testing.T) {
	app := newJWTApp("secret")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", jwt.MapClaims{"sub": "4", "exp": time.Now().Add(-10 * time.Second).Unix()}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRoleClaimsAcceptLists(t *testing.T) {
	require.Equal(t, RoleAdmin, roleFromClaims(jwt.MapClaims{"roles": []interface{}{"", " Admin "}}))
	require.Equal(t, RoleTeacher, roleFromClaims(jwt.MapClaims{"role": " ", "roles": []interface{}{"TEACHER"}}))
	require.Empty(t, roleFromClaims(jwt.MapClaims{"roles": 3}))
}
