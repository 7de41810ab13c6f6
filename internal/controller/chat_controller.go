// FILE: internal/controller/chat_controller.go
package controller

import (
	"context"
	"os"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	CurrentSession(ctx *fiber.Ctx) error
	SwitchSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, log logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")

	// Websocket handshake carries the token itself
	h.Get("/stream", c.Stream)

	h.Use(serverutils.JwtMiddleware)
	h.Post("/session", c.CreateSession)
	h.Get("/session", c.ListSessions)
	h.Get("/session/current", c.CurrentSession)
	h.Put("/session/:id/current", c.SwitchSession)
	h.Delete("/session/:id", c.DeleteSession)
	h.Get("/session/:id/messages", c.GetMessages)
	h.Post("/send", c.Send)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	username := ctx.Locals("username").(string)

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.chatService.CreateSession(ctx.Context(), username, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	username := ctx.Locals("username").(string)

	res, err := c.chatService.ListSessions(ctx.Context(), username)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Sessions", res))
}

func (c *chatController) CurrentSession(ctx *fiber.Ctx) error {
	username := ctx.Locals("username").(string)

	sessionID, err := c.chatService.GetCurrentSessionID(ctx.Context(), username)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Current session", map[string]string{
		"session_id": sessionID,
	}))
}

func (c *chatController) SwitchSession(ctx *fiber.Ctx) error {
	username := ctx.Locals("username").(string)
	sessionID := ctx.Params("id")

	if err := c.chatService.SetCurrentSession(ctx.Context(), username, sessionID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Session switched", nil))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	username := ctx.Locals("username").(string)
	sessionID := ctx.Params("id")

	newCurrent, err := c.chatService.DeleteSession(ctx.Context(), username, sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session deleted", map[string]string{
		"current_session": newCurrent,
	}))
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	username := ctx.Locals("username").(string)
	sessionID := ctx.Params("id")

	res, err := c.chatService.GetMessages(ctx.Context(), username, sessionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Messages", res))
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	username := ctx.Locals("username").(string)

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendChat(ctx.Context(), username, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Chat", res))
}

// Stream upgrades to a websocket and runs chat turns over it: the client
// sends one SendChatRequest JSON frame per turn, the server answers with
// fragment frames followed by a done frame.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	username, err := usernameFromHandshake(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("ChatController", "Stream session started", map[string]interface{}{"username": username})
		defer c.logger.Info("ChatController", "Stream session ended", map[string]interface{}{"username": username})

		for {
			var req dto.SendChatRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Chat == "" {
				if err := conn.WriteJSON(dto.StreamEvent{Type: "error", Error: "chat is required"}); err != nil {
					return
				}
				continue
			}

			emit := func(event dto.StreamEvent) error {
				return conn.WriteJSON(event)
			}
			if err := c.chatService.StreamChat(context.Background(), username, &req, emit); err != nil {
				if writeErr := conn.WriteJSON(dto.StreamEvent{Type: "error", Error: err.Error()}); writeErr != nil {
					return
				}
			}
		}
	})(ctx)
}

// usernameFromHandshake authenticates a websocket handshake from either the
// token query parameter (browser) or the Authorization header (tooling).
func usernameFromHandshake(ctx *fiber.Ctx) (string, error) {
	claims, err := claimsFromHandshake(ctx)
	if err != nil {
		return "", err
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Token missing username")
	}
	return username, nil
}

func claimsFromHandshake(ctx *fiber.Ctx) (jwt.MapClaims, error) {
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid claims")
	}
	return claims, nil
}
