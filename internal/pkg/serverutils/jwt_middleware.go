package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid claims"))
	}

	ctx.Locals("user_id", claims["user_id"])
	ctx.Locals("is_superuser", claims["is_superuser"])
	return ctx.Next()
}

// SuperuserMiddleware must run after JwtMiddleware. Admin endpoints only.
func SuperuserMiddleware(ctx *fiber.Ctx) error {
	if v, ok := ctx.Locals("is_superuser").(bool); !ok || !v {
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Superuser access required"))
	}
	return ctx.Next()
}

// UserIdFromCtx extracts the authenticated user id set by JwtMiddleware.
// JWT numeric claims decode as float64, so convert back.
func UserIdFromCtx(ctx *fiber.Ctx) (int64, bool) {
	switch v := ctx.Locals("user_id").(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
