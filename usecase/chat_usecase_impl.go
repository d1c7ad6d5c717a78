package usecase

import (
	"context"
	"errors"
	"gorm.io/gorm"
	"real-time-messenger/apperror"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto/res"
	"real-time-messenger/entity"
	"real-time-messenger/enum"
	"real-time-messenger/repository"
	"time"
)

type ChatUsecaseImpl struct {
	*repository.ChatRepository
	*repository.UserRepository
	*repository.MessageRepository
	*gorm.DB
	Log *logger.AppLogger
}

func NewChatUsecase(chatRepository *repository.ChatRepository, userRepository *repository.UserRepository, messageRepository *repository.MessageRepository, DB *gorm.DB, log *logger.AppLogger) ChatUsecase {
	return &ChatUsecaseImpl{
		ChatRepository:    chatRepository,
		UserRepository:    userRepository,
		MessageRepository: messageRepository,
		DB:                DB,
		Log:               log,
	}
}

func (uc *ChatUsecaseImpl) FindOrCreatePrivateChat(ctx context.Context, userAID, userBID string) (*res.ChatResponse, error) {
	if userAID == userBID {
		return nil, apperror.New(apperror.SelfChat, "Cannot create chat with yourself")
	}

	users, err := uc.UserRepository.FindActiveByIDs(ctx, uc.DB, []string{userAID, userBID})
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if len(users) != 2 {
		return nil, apperror.New(apperror.InvalidParticipant, "Receiver not found")
	}

	pairKey := entity.PrivatePairKey(userAID, userBID)
	chat, err := uc.ChatRepository.FindByPairKey(ctx, uc.DB, pairKey)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	if chat == nil {
		chat, err = uc.createPrivateChat(ctx, userAID, userBID, pairKey)
		if err != nil {
			return nil, err
		}
	}

	response := toChatResponse(chat, userAID)
	return &response, nil
}

func (uc *ChatUsecaseImpl) createPrivateChat(ctx context.Context, userAID, userBID, pairKey string) (*entity.Chat, error) {
	newChat := &entity.Chat{
		ChatType:        enum.PRIVATE,
		PairKey:         &pairKey,
		LastMessageTime: time.Now(),
		IsActive:        true,
		CreatedBy:       userAID,
	}
	participants := []entity.ChatParticipant{
		{UserID: userAID},
		{UserID: userBID},
	}

	if createErr := uc.ChatRepository.CreateChatWithParticipants(ctx, uc.DB, newChat, participants); createErr != nil {
		// lost a concurrent first-contact race: the pair key index kept the other insert
		existing, err := uc.ChatRepository.FindByPairKey(ctx, uc.DB, pairKey)
		if err != nil || existing == nil {
			uc.Log.Http.Error.Error().Err(createErr).Str("pairKey", pairKey).Msg("Failed to create private chat")
			return nil, apperror.Storage(createErr)
		}
		uc.Log.Http.Trace.Trace().Str("chatId", existing.ID).Msg("Private chat created concurrently, using existing")
		return existing, nil
	}

	uc.Log.Http.Info.Info().Str("chatId", newChat.ID).Str("createdBy", userAID).Msg("New private chat created")

	chat, err := uc.ChatRepository.FindChatByID(ctx, uc.DB, newChat.ID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return chat, nil
}

func (uc *ChatUsecaseImpl) AssertParticipant(ctx context.Context, chatID, userID string) (*entity.Chat, error) {
	if chatID == "" {
		return nil, apperror.New(apperror.ValidationError, "Chat ID is required")
	}

	chat, err := uc.ChatRepository.FindChatByID(ctx, uc.DB, chatID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.NotFound, "Chat not found")
	}
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if !chat.IsActive {
		return nil, apperror.New(apperror.NotFound, "Chat not found")
	}
	if !chat.HasParticipant(userID) {
		return nil, apperror.New(apperror.NotAParticipant, "You are not a participant of this chat")
	}
	return chat, nil
}

func (uc *ChatUsecaseImpl) UpdateLastMessage(ctx context.Context, db *gorm.DB, chat *entity.Chat, message *entity.Message) error {
	now := time.Now()
	if err := uc.ChatRepository.UpdateLastMessage(ctx, db, chat.ID, message.ID, now); err != nil {
		return apperror.Storage(err)
	}
	chat.LastMessageID = &message.ID
	chat.LastMessageTime = now
	return nil
}

func (uc *ChatUsecaseImpl) GetChatsByUser(ctx context.Context, userID string) ([]res.ChatResponse, error) {
	chats, err := uc.ChatRepository.FindAllByUserID(ctx, uc.DB, userID)
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Str("userId", userID).Msg("Failed to get chats by user ID")
		return nil, apperror.Storage(err)
	}

	chatIDs := make([]string, 0, len(chats))
	lastMessageIDs := make([]string, 0, len(chats))
	for _, chat := range chats {
		chatIDs = append(chatIDs, chat.ID)
		if chat.LastMessageID != nil {
			lastMessageIDs = append(lastMessageIDs, *chat.LastMessageID)
		}
	}

	lastMessages, err := uc.MessageRepository.FindByIDsWithSender(ctx, uc.DB, lastMessageIDs)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	byID := make(map[string]*entity.Message, len(lastMessages))
	for i := range lastMessages {
		byID[lastMessages[i].ID] = &lastMessages[i]
	}

	unread, err := uc.MessageRepository.UnreadCounts(ctx, uc.DB, userID, chatIDs)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	chatResponses := make([]res.ChatResponse, 0, len(chats))
	for i := range chats {
		response := toChatResponse(&chats[i], userID)
		if chats[i].LastMessageID != nil {
			if message, ok := byID[*chats[i].LastMessageID]; ok {
				lastMessage := toMessageResponse(message)
				response.LastMessage = &lastMessage
			}
		}
		response.UnreadCount = unread[chats[i].ID]
		chatResponses = append(chatResponses, response)
	}

	uc.Log.Http.Trace.Trace().Str("userId", userID).Int("chatCount", len(chatResponses)).Msg("Chats retrieved")
	return chatResponses, nil
}

func (uc *ChatUsecaseImpl) DeactivateChat(ctx context.Context, chatID, userID string) error {
	chat, err := uc.AssertParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if err := uc.ChatRepository.Deactivate(ctx, uc.DB, chat.ID); err != nil {
		return apperror.Storage(err)
	}
	uc.Log.Http.Info.Info().Str("chatId", chat.ID).Str("userId", userID).Msg("Chat deactivated")
	return nil
}
