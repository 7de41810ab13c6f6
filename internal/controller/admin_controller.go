// FILE: internal/controller/admin_controller.go
package controller

import (
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/service"
	internalWS "ai-companion-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	Stats(ctx *fiber.Ctx) error
	ListUsers(ctx *fiber.Ctx) error
	UserSessions(ctx *fiber.Ctx) error
	Activate(ctx *fiber.Ctx) error
	Deactivate(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	SystemLogs(ctx *fiber.Ctx) error
	Notifications(ctx *fiber.Ctx) error
}

type adminController struct {
	adminService service.IAdminService
	hub          *internalWS.Hub
	logger       logger.ILogger
}

func NewAdminController(adminService service.IAdminService, hub *internalWS.Hub, log logger.ILogger) IAdminController {
	return &adminController{
		adminService: adminService,
		hub:          hub,
		logger:       log,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")

	// Websocket handshake carries the token itself
	h.Get("/notifications", c.Notifications)

	h.Use(serverutils.AdminJwtMiddleware)
	h.Get("/stats", c.Stats)
	h.Get("/users", c.ListUsers)
	h.Get("/users/:username/sessions", c.UserSessions)
	h.Put("/users/:username/activate", c.Activate)
	h.Put("/users/:username/deactivate", c.Deactivate)
	h.Delete("/users/:username", c.Delete)
	h.Get("/logs", c.SystemLogs)
}

func (c *adminController) Stats(ctx *fiber.Ctx) error {
	res, err := c.adminService.GetStats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Stats", res))
}

func (c *adminController) ListUsers(ctx *fiber.Ctx) error {
	search := ctx.Query("search")

	res, err := c.adminService.ListUsers(ctx.Context(), search)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Users", res))
}

func (c *adminController) UserSessions(ctx *fiber.Ctx) error {
	username := ctx.Params("username")

	res, err := c.adminService.GetUserSessions(ctx.Context(), username)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User sessions", res))
}

func (c *adminController) Activate(ctx *fiber.Ctx) error {
	username := ctx.Params("username")

	if err := c.adminService.ActivateUser(ctx.Context(), username); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("User activated", nil))
}

func (c *adminController) Deactivate(ctx *fiber.Ctx) error {
	username := ctx.Params("username")

	if err := c.adminService.DeactivateUser(ctx.Context(), username); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("User deactivated", nil))
}

func (c *adminController) Delete(ctx *fiber.Ctx) error {
	username := ctx.Params("username")

	if err := c.adminService.DeleteUser(ctx.Context(), username); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("User deleted", nil))
}

func (c *adminController) SystemLogs(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 100)

	res, err := c.adminService.GetSystemLogs(ctx.Context(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", res))
}

// Notifications attaches an admin dashboard to the live notification hub.
func (c *adminController) Notifications(ctx *fiber.Ctx) error {
	claims, err := claimsFromHandshake(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Admins only"})
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing username"})
	}

	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("AdminController", "Dashboard socket attached", map[string]interface{}{"username": username})
		internalWS.ServeWs(c.hub, conn, username)
		c.logger.Info("AdminController", "Dashboard socket detached", map[string]interface{}{"username": username})
	})(ctx)
}
