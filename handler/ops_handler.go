package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"

	"real-time-messenger/config/logger"
	"real-time-messenger/dto/res"
	"real-time-messenger/metrics"
)

// OnlineCounter reports how many users hold a connection to this instance.
type OnlineCounter interface {
	Count() int
}

type HealthResponse struct {
	Database    string `json:"database"`
	Uptime      string `json:"uptime"`
	OnlineUsers int    `json:"onlineUsers"`
}

type OpsHandler struct {
	*gorm.DB
	Online  OnlineCounter
	Log     *logger.AppLogger
	started time.Time
	metrics fiber.Handler
}

func NewOpsHandler(db *gorm.DB, online OnlineCounter, logger *logger.AppLogger) *OpsHandler {
	return &OpsHandler{
		DB:      db,
		Online:  online,
		Log:     logger,
		started: time.Now(),
		metrics: adaptor.HTTPHandler(metrics.Handler()),
	}
}

func (handler *OpsHandler) Health(c *fiber.Ctx) error {
	health := HealthResponse{
		Database:    "up",
		Uptime:      time.Since(handler.started).Round(time.Second).String(),
		OnlineUsers: handler.Online.Count(),
	}
	status := fiber.StatusOK

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := handler.ping(ctx); err != nil {
		handler.Log.Http.Error.Error().Err(err).Msg("Health check failed")
		health.Database = "down"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(res.CommonResponse[HealthResponse]{
		Message:    "Health check",
		StatusCode: status,
		Data:       health,
	})
}

func (handler *OpsHandler) Metrics(c *fiber.Ctx) error {
	return handler.metrics(c)
}

func (handler *OpsHandler) ping(ctx context.Context) error {
	conn, err := handler.DB.DB()
	if err != nil {
		return err
	}
	return conn.PingContext(ctx)
}
