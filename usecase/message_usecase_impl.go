package usecase

import (
	"context"
	"errors"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"real-time-messenger/apperror"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto"
	"real-time-messenger/dto/req"
	"real-time-messenger/dto/res"
	"real-time-messenger/entity"
	"real-time-messenger/enum"
	"real-time-messenger/metrics"
	"real-time-messenger/repository"
	"strings"
	"time"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

type MessageUsecaseImpl struct {
	*repository.MessageRepository
	ChatUsecase
	*validator.Validate
	*gorm.DB
	Notifier Notifier
	Log      *logger.AppLogger
}

func NewMessageUsecase(messageRepository *repository.MessageRepository, chatUsecase ChatUsecase, validate *validator.Validate, DB *gorm.DB, notifier Notifier, log *logger.AppLogger) MessageUsecase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &MessageUsecaseImpl{
		MessageRepository: messageRepository,
		ChatUsecase:       chatUsecase,
		Validate:          validate,
		DB:                DB,
		Notifier:          notifier,
		Log:               log,
	}
}

func (uc *MessageUsecaseImpl) SendMessage(ctx context.Context, senderID string, request *req.SendMessageRequest) (*res.MessageResponse, error) {
	start := time.Now()

	if request == nil {
		return nil, apperror.New(apperror.ValidationError, "Message payload is required")
	}
	request.Content = strings.TrimSpace(request.Content)
	if request.MessageType == "" {
		request.MessageType = string(enum.MessageTypeText)
	}
	if err := uc.Validate.Struct(request); err != nil {
		uc.Log.Http.Warning.Warn().Err(err).Str("senderId", senderID).Msg("Invalid message request")
		return nil, apperror.FromValidation(err)
	}

	chat, err := uc.ChatUsecase.AssertParticipant(ctx, request.ChatID, senderID)
	if err != nil {
		return nil, err
	}
	if request.ReceiverID == senderID || !chat.HasParticipant(request.ReceiverID) {
		return nil, apperror.New(apperror.NotAParticipant, "Receiver is not a participant of this chat")
	}

	now := time.Now()
	message := &entity.Message{
		SenderID:    senderID,
		ReceiverID:  request.ReceiverID,
		ChatID:      chat.ID,
		Content:     request.Content,
		MessageType: enum.MessageType(request.MessageType),
		FileURL:     request.FileURL,
		FileName:    request.FileName,
		FileSize:    request.FileSize,
		IsDelivered: true,
		DeliveredAt: &now,
	}

	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uc.MessageRepository.Save(ctx, tx, message); err != nil {
			return err
		}
		return uc.ChatUsecase.UpdateLastMessage(ctx, tx, chat, message)
	})
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Str("chatId", chat.ID).Str("senderId", senderID).Msg("Failed to persist message")
		return nil, apperror.Storage(err)
	}

	stored, err := uc.MessageRepository.FindWithSender(ctx, uc.DB, message.ID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	response := toMessageResponse(stored)

	if err := uc.Notifier.Emit(chat.ID, dto.EventNewMessage, dto.NewMessagePayload{Message: &response, ChatID: chat.ID}, ""); err != nil {
		uc.Log.WS.Warning.Warn().Err(err).Str("chatId", chat.ID).Msg("Failed to broadcast new message")
	}
	notification := dto.MessageNotificationPayload{Message: &response, ChatID: chat.ID, Sender: response.Sender}
	if err := uc.Notifier.Emit(request.ReceiverID, dto.EventMessageNotification, notification, ""); err != nil {
		uc.Log.WS.Warning.Warn().Err(err).Str("receiverId", request.ReceiverID).Msg("Failed to notify receiver")
	}

	metrics.MessagesTotal.WithLabelValues(request.MessageType).Inc()
	metrics.MessageSendSeconds.Observe(time.Since(start).Seconds())

	uc.Log.Http.Info.Info().
		Str("messageId", response.MessageId).
		Str("chatId", chat.ID).
		Str("messageType", response.MessageType).
		Msg("Message sent")

	return &response, nil
}

func (uc *MessageUsecaseImpl) GetMessagesByChatID(ctx context.Context, chatID, requesterID string, page, pageSize int) (*res.MessageListResponse, error) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}

	chat, err := uc.ChatUsecase.AssertParticipant(ctx, chatID, requesterID)
	if err != nil {
		return nil, err
	}

	// viewing a chat reads everything addressed to the requester
	read, err := uc.MessageRepository.MarkRead(ctx, uc.DB, chat.ID, requesterID, nil, time.Now())
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if len(read) > 0 {
		uc.Log.Http.Trace.Trace().Str("chatId", chat.ID).Int("read", len(read)).Msg("Messages marked read on view")
	}

	messages, err := uc.MessageRepository.FindPageByChatID(ctx, uc.DB, chat.ID, page, pageSize)
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Str("chatId", chat.ID).Msg("Failed to get messages")
		return nil, apperror.Storage(err)
	}
	total, err := uc.MessageRepository.CountByChatID(ctx, uc.DB, chat.ID)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	responses := make([]res.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, toMessageResponse(&messages[i]))
	}

	return &res.MessageListResponse{
		ChatId:     chat.ID,
		Messages:   responses,
		Pagination: res.NewPagination(page, pageSize, total),
	}, nil
}

func (uc *MessageUsecaseImpl) MarkAsRead(ctx context.Context, chatID, requesterID string, messageIDs []string) (int64, error) {
	chat, err := uc.ChatUsecase.AssertParticipant(ctx, chatID, requesterID)
	if err != nil {
		return 0, err
	}

	changed, err := uc.MessageRepository.MarkRead(ctx, uc.DB, chat.ID, requesterID, messageIDs, time.Now())
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Str("chatId", chat.ID).Msg("Failed to mark messages as read")
		return 0, apperror.Storage(err)
	}

	if len(changed) > 0 {
		payload := dto.MessagesReadPayload{MessageIDs: changed, ReadBy: requesterID, ChatID: chat.ID}
		if err := uc.Notifier.Emit(chat.ID, dto.EventMessagesRead, payload, ""); err != nil {
			uc.Log.WS.Warning.Warn().Err(err).Str("chatId", chat.ID).Msg("Failed to broadcast read receipt")
		}
	}

	return int64(len(changed)), nil
}

func (uc *MessageUsecaseImpl) DeleteMessage(ctx context.Context, messageID, requesterID string) error {
	var message entity.Message
	if err := uc.MessageRepository.FindById(ctx, uc.DB, &message, messageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.NotFound, "Message not found")
		}
		return apperror.Storage(err)
	}
	if message.IsDeleted {
		return apperror.New(apperror.NotFound, "Message not found")
	}
	if message.SenderID != requesterID {
		return apperror.New(apperror.Forbidden, "You can only delete your own messages")
	}

	if err := uc.MessageRepository.SoftDelete(ctx, uc.DB, message.ID, time.Now()); err != nil {
		return apperror.Storage(err)
	}

	uc.Log.Http.Info.Info().Str("messageId", message.ID).Str("userId", requesterID).Msg("Message deleted")
	return nil
}
