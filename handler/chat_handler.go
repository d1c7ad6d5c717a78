package handler

import (
	"github.com/gofiber/fiber/v2"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto/req"
	"real-time-messenger/dto/res"
	"real-time-messenger/middleware"
	"real-time-messenger/usecase"
)

type ChatHandler struct {
	usecase.ChatUsecase
	usecase.MessageUsecase
	Log *logger.AppLogger
}

func NewChatHandler(chatUsecase usecase.ChatUsecase, messageUsecase usecase.MessageUsecase, logger *logger.AppLogger) *ChatHandler {
	return &ChatHandler{
		ChatUsecase:    chatUsecase,
		MessageUsecase: messageUsecase,
		Log:            logger,
	}
}

func (handler *ChatHandler) CreatePrivateChat(c *fiber.Ctx) error {
	payload := new(req.PrivateChatRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}

	chat, err := handler.ChatUsecase.FindOrCreatePrivateChat(c.UserContext(), middleware.UserID(c), payload.ReceiverID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[*res.ChatResponse]{
		Message:    "Successfully to Get Private Chat",
		StatusCode: fiber.StatusOK,
		Data:       chat,
	})
}

func (handler *ChatHandler) GetAllChat(c *fiber.Ctx) error {
	chatResponses, err := handler.ChatUsecase.GetChatsByUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}

	responses := res.CommonResponse[[]res.ChatResponse]{
		Message:    "Successfully to Get All Chats",
		StatusCode: fiber.StatusOK,
		Data:       chatResponses,
	}

	return c.Status(fiber.StatusOK).JSON(responses)
}

func (handler *ChatHandler) DeleteChat(c *fiber.Ctx) error {
	if err := handler.ChatUsecase.DeactivateChat(c.UserContext(), c.Params("chatId"), middleware.UserID(c)); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Message:    "Successfully to Delete Chat",
		StatusCode: fiber.StatusOK,
	})
}

func (handler *ChatHandler) GetMessagesByID(c *fiber.Ctx) error {
	var page req.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return fiber.ErrBadRequest
	}

	messages, err := handler.MessageUsecase.GetMessagesByChatID(c.UserContext(), c.Params("chatId"), middleware.UserID(c), page.Page, page.PageSize)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[*res.MessageListResponse]{
		Message:    "Successfully to Get Messages",
		StatusCode: fiber.StatusOK,
		Data:       messages,
	})
}

func (handler *ChatHandler) MarkChatRead(c *fiber.Ctx) error {
	payload := new(req.MarkReadRequest)
	if len(c.Body()) > 0 {
		if err := parseBody(c, payload); err != nil {
			return err
		}
	}

	count, err := handler.MessageUsecase.MarkAsRead(c.UserContext(), c.Params("chatId"), middleware.UserID(c), payload.MessageIDs)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.MarkReadResponse]{
		Message:    "Successfully to Mark Messages as Read",
		StatusCode: fiber.StatusOK,
		Data:       res.MarkReadResponse{ModifiedCount: count},
	})
}

func (handler *ChatHandler) SendMessage(c *fiber.Ctx) error {
	payload := new(req.SendMessageRequest)
	if err := parseBody(c, payload); err != nil {
		return err
	}

	message, err := handler.MessageUsecase.SendMessage(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(res.CommonResponse[*res.MessageResponse]{
		Message:    "Successfully to Send Message",
		StatusCode: fiber.StatusCreated,
		Data:       message,
	})
}

func (handler *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	if err := handler.MessageUsecase.DeleteMessage(c.UserContext(), c.Params("messageId"), middleware.UserID(c)); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Message:    "Successfully to Delete Message",
		StatusCode: fiber.StatusOK,
	})
}
