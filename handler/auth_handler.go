package handler

import (
	"github.com/gofiber/fiber/v2"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto/req"
	"real-time-messenger/dto/res"
	"real-time-messenger/middleware"
	"real-time-messenger/usecase"
)

type AuthHandler struct {
	usecase.AuthUsecase
	Log *logger.AppLogger
}

func NewAuthHandler(authUseCase usecase.AuthUsecase, logger *logger.AppLogger) *AuthHandler {
	return &AuthHandler{AuthUsecase: authUseCase, Log: logger}
}

func (handler *AuthHandler) RegisterUser(ctx *fiber.Ctx) error {
	payload := new(req.RegisterRequest)
	if err := parseBody(ctx, payload); err != nil {
		return err
	}

	registerResponse, err := handler.AuthUsecase.RegisterUser(ctx.UserContext(), payload)
	if err != nil {
		return err
	}

	response := res.CommonResponse[res.RegisterResponse]{
		Message:    "Successfully to register new user",
		StatusCode: fiber.StatusCreated,
		Data:       registerResponse,
	}
	handler.Log.Http.Info.Info().Str("userId", registerResponse.User.ID).Msg("Success register user")
	return ctx.Status(fiber.StatusCreated).JSON(response)
}

func (handler *AuthHandler) LoginUser(ctx *fiber.Ctx) error {
	payload := new(req.LoginRequest)
	if err := parseBody(ctx, payload); err != nil {
		return err
	}

	loginResponse, err := handler.AuthUsecase.LoginUser(ctx.UserContext(), payload)
	if err != nil {
		return err
	}

	response := res.CommonResponse[res.LoginResponse]{
		Message:    "Successfully to login",
		StatusCode: fiber.StatusOK,
		Data:       loginResponse,
	}
	return ctx.Status(fiber.StatusOK).JSON(response)
}

func (handler *AuthHandler) LogoutUser(ctx *fiber.Ctx) error {
	if err := handler.AuthUsecase.LogoutUser(ctx.UserContext(), middleware.UserID(ctx)); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Message:    "Successfully to logout",
		StatusCode: fiber.StatusOK,
	})
}
