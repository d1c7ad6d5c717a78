package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"real-time-messenger/handler"
	"real-time-messenger/middleware"
)

type ConfigRoute struct {
	*fiber.App
	*middleware.Middleware
	*handler.AuthHandler
	*handler.UserHandler
	*handler.ChatHandler
	*handler.UploadHandler
	*handler.OpsHandler
	*handler.WebSocketHandler
	UploadDir string
}

func (rc *ConfigRoute) GetRoute() {
	rc.GetOpsRoute()
	rc.GetPublicRoute()
	rc.GetProtectedRoute()
	rc.GetWebSocketRoute()
}

func (rc *ConfigRoute) GetOpsRoute() {
	rc.App.Get("/health", rc.OpsHandler.Health)
	rc.App.Get("/metrics", rc.OpsHandler.Metrics)
	if rc.UploadDir != "" {
		rc.App.Static("/uploads", rc.UploadDir)
	}
}

func (rc *ConfigRoute) GetPublicRoute() {
	app := rc.App.Group("/api/v1/auth")
	app.Post("/register", rc.AuthHandler.RegisterUser)
	app.Post("/login", rc.Middleware.LoginRateLimit, rc.AuthHandler.LoginUser)
}

func (rc *ConfigRoute) GetProtectedRoute() {
	app := rc.App.Group("/api/v1", rc.Middleware.JWTProtected, rc.Middleware.ExtractUserID)

	app.Post("/auth/logout", rc.AuthHandler.LogoutUser)
	app.Get("/auth/me", rc.UserHandler.GetUserByToken)
	app.Put("/auth/me", rc.UserHandler.EditUser)
	app.Delete("/auth/me", rc.UserHandler.DeactivateUser)

	app.Get("/users", rc.UserHandler.GetAllUsers)
	app.Get("/users/search", rc.UserHandler.SearchUsers)
	app.Get("/users/:id", rc.UserHandler.GetUserByID)
	app.Get("/users/:id/presence", rc.UserHandler.GetUserPresence)

	app.Post("/chats/private", rc.ChatHandler.CreatePrivateChat)
	app.Get("/chats", rc.ChatHandler.GetAllChat)
	app.Delete("/chats/:chatId", rc.ChatHandler.DeleteChat)
	app.Get("/chats/:chatId/messages", rc.ChatHandler.GetMessagesByID)
	app.Put("/chats/:chatId/read", rc.ChatHandler.MarkChatRead)

	app.Post("/messages", rc.ChatHandler.SendMessage)
	app.Delete("/messages/:messageId", rc.ChatHandler.DeleteMessage)

	app.Post("/upload/:kind", rc.UploadHandler.UploadFile)
	app.Delete("/upload/*", rc.UploadHandler.DeleteFile)
}

func (rc *ConfigRoute) GetWebSocketRoute() {
	rc.App.Use("/ws", rc.Middleware.WebSocketAuth(rc.WebSocketHandler.Gateway))
	rc.App.Get("/ws", websocket.New(rc.WebSocketHandler.HandleWebSocket))
}
