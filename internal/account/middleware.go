package account

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// JWTMiddleware validates bearer tokens and stores user_id in locals. The
// token may also come from the token query parameter, which is how browser
// websocket clients send it.
func JWTMiddleware(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := Authenticate(c, svc)
		if err != nil {
			return err
		}
		c.Locals("user_id", userID)
		return c.Next()
	}
}

// Authenticate returns the user id carried by the request token.
func Authenticate(c *fiber.Ctx, svc *Service) (string, error) {
	token := bearerFromHeader(c.Get("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "You are not logged in.")
	}

	userID, err := svc.ParseToken(token)
	if err != nil {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Session expired. Please log in again.")
	}
	return userID, nil
}

// UserID returns the id JWTMiddleware stored for this request.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
