package handler

import (
	"context"
	"github.com/gofiber/fiber/v2"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto/req"
	"real-time-messenger/dto/res"
	"real-time-messenger/middleware"
	"real-time-messenger/usecase"
)

// PresenceChecker reports live connection state, which is fresher than the stored flag.
type PresenceChecker interface {
	IsOnline(ctx context.Context, userID string) bool
}

type UserHandler struct {
	usecase.UserUsecase
	Presence PresenceChecker
	Log      *logger.AppLogger
}

func NewUserHandler(userUsecase usecase.UserUsecase, presence PresenceChecker, logger *logger.AppLogger) *UserHandler {
	return &UserHandler{UserUsecase: userUsecase, Presence: presence, Log: logger}
}

func (handler *UserHandler) GetUserByToken(ctx *fiber.Ctx) error {
	userResponse, err := handler.UserUsecase.GetUserByID(ctx.UserContext(), middleware.UserID(ctx))
	if err != nil {
		return err
	}

	response := res.CommonResponse[res.UserResponse]{
		Message:    "Successfully To Get User By ID",
		StatusCode: fiber.StatusOK,
		Data:       userResponse,
	}
	return ctx.Status(fiber.StatusOK).JSON(response)
}

func (handler *UserHandler) EditUser(ctx *fiber.Ctx) error {
	payload := new(req.EditProfileRequest)
	if err := parseBody(ctx, payload); err != nil {
		return err
	}

	userResponse, err := handler.UserUsecase.UpdateProfile(ctx.UserContext(), middleware.UserID(ctx), payload)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[res.UserResponse]{
		Message:    "Successfully To Update Profile",
		StatusCode: fiber.StatusOK,
		Data:       userResponse,
	})
}

func (handler *UserHandler) DeactivateUser(ctx *fiber.Ctx) error {
	if err := handler.UserUsecase.DeactivateUser(ctx.UserContext(), middleware.UserID(ctx)); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Message:    "Successfully To Deactivate Account",
		StatusCode: fiber.StatusOK,
	})
}

func (handler *UserHandler) GetAllUsers(ctx *fiber.Ctx) error {
	var page req.PageRequest
	if err := ctx.QueryParser(&page); err != nil {
		return fiber.ErrBadRequest
	}

	userResponses, err := handler.UserUsecase.GetAllUsers(ctx.UserContext(), middleware.UserID(ctx), page)
	if err != nil {
		return err
	}

	responses := res.CommonResponse[res.UserListResponse]{
		Message:    "Successfully To Get All User",
		StatusCode: fiber.StatusOK,
		Data:       userResponses,
	}
	return ctx.Status(fiber.StatusOK).JSON(responses)
}

func (handler *UserHandler) SearchUsers(ctx *fiber.Ctx) error {
	users, err := handler.UserUsecase.SearchUsers(ctx.UserContext(), middleware.UserID(ctx), ctx.Query("query"))
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[[]res.UserResponse]{
		Message:    "Successfully To Search Users",
		StatusCode: fiber.StatusOK,
		Data:       users,
	})
}

func (handler *UserHandler) GetUserByID(ctx *fiber.Ctx) error {
	userResponse, err := handler.UserUsecase.GetUserByID(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[res.UserResponse]{
		Message:    "Successfully To Get User By ID",
		StatusCode: fiber.StatusOK,
		Data:       userResponse,
	})
}

func (handler *UserHandler) GetUserPresence(ctx *fiber.Ctx) error {
	presence, err := handler.UserUsecase.GetPresence(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if handler.Presence != nil {
		presence.IsOnline = handler.Presence.IsOnline(ctx.UserContext(), presence.UserID)
	}

	return ctx.Status(fiber.StatusOK).JSON(res.CommonResponse[res.PresenceResponse]{
		Message:    "Successfully To Get User Presence",
		StatusCode: fiber.StatusOK,
		Data:       presence,
	})
}
