package usecase

import (
	"context"
	"gorm.io/gorm"
	"real-time-messenger/dto/res"
	"real-time-messenger/entity"
)

type ChatUsecase interface {
	FindOrCreatePrivateChat(ctx context.Context, userAID, userBID string) (*res.ChatResponse, error)
	AssertParticipant(ctx context.Context, chatID, userID string) (*entity.Chat, error)
	UpdateLastMessage(ctx context.Context, db *gorm.DB, chat *entity.Chat, message *entity.Message) error
	GetChatsByUser(ctx context.Context, userID string) ([]res.ChatResponse, error)
	DeactivateChat(ctx context.Context, chatID, userID string) error
}
