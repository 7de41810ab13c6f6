package serverutils

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func JwtMiddleware(ctx *fiber.Ctx) error {
	claims, err := parseBearer(ctx.Get("Authorization"))
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
	}

	ctx.Locals("username", claims["username"])
	return ctx.Next()
}

// AdminJwtMiddleware additionally requires the admin role claim.
func AdminJwtMiddleware(ctx *fiber.Ctx) error {
	claims, err := parseBearer(ctx.Get("Authorization"))
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
	}

	if role, _ := claims["role"].(string); role != "admin" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Admins only"})
	}

	ctx.Locals("admin_username", claims["username"])
	return ctx.Next()
}

func parseBearer(authHeader string) (jwt.MapClaims, error) {
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return nil, errors.New("Missing token")
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("Invalid claims")
	}

	return claims, nil
}
