package controller

import (
	"net/url"

	"ai-salesbot-be/internal/dto"
	"ai-salesbot-be/internal/pkg/serverutils"
	"ai-salesbot-be/internal/service"
	"ai-salesbot-be/pkg/search"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Root(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
	Products(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	SearchByPreferences(ctx *fiber.Ctx) error
	Session(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type chatController struct {
	conversationService service.IConversationService
	engine              *search.Engine
}

func NewChatController(conversationService service.IConversationService, engine *search.Engine) IChatController {
	return &chatController{
		conversationService: conversationService,
		engine:              engine,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Root)
	r.Get("/health", c.Health)
	r.Post("/chat", c.Chat)
	r.Get("/products", c.Products)
	r.Post("/search/preferences", c.SearchByPreferences)
	r.Get("/search/:query", c.Search)
	r.Get("/session/:id", c.Session)
	r.Get("/stats", c.Stats)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.conversationService.ProcessMessage(ctx.Context(), req.Message, req.SessionID)
	return ctx.JSON(res)
}

func (c *chatController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"message": "TOBI Conversational Sales Bot API",
		"version": "1.0.0",
		"endpoints": fiber.Map{
			"chat":     "/chat",
			"health":   "/health",
			"products": "/products",
			"search":   "/search/{query}",
			"session":  "/session/{session_id}",
			"stats":    "/stats",
		},
	})
}

func (c *chatController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{Status: "ok"})
}

func (c *chatController) Products(ctx *fiber.Ctx) error {
	return ctx.JSON(c.engine.AllProducts())
}

func (c *chatController) Search(ctx *fiber.Ctx) error {
	query, err := decodeParam(ctx, "query")
	if err != nil {
		return err
	}
	results := c.engine.Search(ctx.Context(), query, 5)
	return ctx.JSON(results)
}

func (c *chatController) SearchByPreferences(ctx *fiber.Ctx) error {
	var req dto.PreferenceSearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return ctx.JSON(c.engine.SearchByPreferences(req.Preferences, req.Limit))
}

func (c *chatController) Session(ctx *fiber.Ctx) error {
	id, err := decodeParam(ctx, "id")
	if err != nil {
		return err
	}
	info, found := c.conversationService.SessionInfo(id)
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return ctx.JSON(info)
}

func (c *chatController) Stats(ctx *fiber.Ctx) error {
	stats := c.engine.Statistics()
	return ctx.JSON(fiber.Map{
		"active_sessions": c.conversationService.ActiveSessions(),
		"catalog":         stats,
	})
}

// decodeParam unescapes a path segment so queries like "iphone%2015" work.
func decodeParam(ctx *fiber.Ctx, name string) (string, error) {
	raw := ctx.Params(name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid path parameter")
	}
	return decoded, nil
}
