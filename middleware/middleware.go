package middleware

import (
	"context"
	"strconv"
	"strings"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"real-time-messenger/apperror"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto/res"
	"real-time-messenger/ratelimit"
	"real-time-messenger/security"
)

const (
	LocalJWT     = "jwt"
	LocalUserID  = "user_id"
	LocalProfile = "profile"
)

// Authenticator resolves a websocket handshake token to the connecting user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (res.UserProfile, error)
}

type Middleware struct {
	*security.JWT
	Log       *logger.AppLogger
	Limiter   *ratelimit.Limiter
	LoginRule ratelimit.Rule

	jwtHandler fiber.Handler
}

func NewMiddleware(JWT *security.JWT, logger *logger.AppLogger, limiter *ratelimit.Limiter, loginRule ratelimit.Rule) *Middleware {
	middleware := &Middleware{JWT: JWT, Log: logger, Limiter: limiter, LoginRule: loginRule}
	middleware.jwtHandler = jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: JWT.SigningMethod().Alg(), Key: JWT.SigningKey()},
		ContextKey: LocalJWT,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Log.Http.Warning.Warn().Err(err).Str("path", c.Path()).Msg("Failed to validate JWT")
			return unauthorized(c, "Token is not valid")
		},
	})
	return middleware
}

func (middleware *Middleware) JWTProtected(c *fiber.Ctx) error {
	return middleware.jwtHandler(c)
}

// ExtractUserID reads the user id from the token validated by JWTProtected.
func (middleware *Middleware) ExtractUserID(c *fiber.Ctx) error {
	token, ok := c.Locals(LocalJWT).(*jwt.Token)
	if !ok {
		return unauthorized(c, "Missing token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return unauthorized(c, "Invalid token claims")
	}
	userID, err := security.UserIDFromClaims(claims)
	if err != nil {
		middleware.Log.Http.Error.Error().Err(err).Msg("Failed to extract user ID from token")
		return unauthorized(c, "Failed to extract user ID from token")
	}

	middleware.Log.Http.Trace.Trace().Str("userId", userID).Msg("User ID from middleware")
	c.Locals(LocalUserID, userID)
	return c.Next()
}

// WebSocketAuth rejects the handshake before upgrade unless it carries a token
// for an active user, taken from the token query parameter or a Bearer header.
func (middleware *Middleware) WebSocketAuth(authenticator Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := c.Query("token")
		if token == "" {
			token = bearerToken(c)
		}

		profile, err := authenticator.Authenticate(c.UserContext(), token)
		if err != nil {
			middleware.Log.WS.Warning.Warn().Err(err).Str("ip", c.IP()).Msg("websocket handshake rejected")
			if apperror.Is(err, apperror.Unauthenticated) {
				return unauthorized(c, apperror.Message(err))
			}
			return err
		}

		c.Locals(LocalProfile, profile)
		return c.Next()
	}
}

// LoginRateLimit throttles login attempts per client IP.
func (middleware *Middleware) LoginRateLimit(c *fiber.Ctx) error {
	allowed, _ := middleware.Limiter.Allow(c.UserContext(), c.IP(), middleware.LoginRule)
	if remaining, err := middleware.Limiter.Remaining(c.UserContext(), c.IP(), middleware.LoginRule); err == nil && middleware.LoginRule.Limit > 0 {
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	}
	if !allowed {
		middleware.Log.Http.Warning.Warn().Str("ip", c.IP()).Msg("login rate limit exceeded")
		return apperror.New(apperror.RateLimited, "Too many login attempts, try again later")
	}
	return c.Next()
}

// UserID returns the authenticated user id set by ExtractUserID.
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(LocalUserID).(string)
	return userID
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(res.ErrorResponse{
		Status:     fiber.ErrUnauthorized.Message,
		StatusCode: fiber.StatusUnauthorized,
		Error:      message,
	})
}
