package usecase

import (
	"context"
	"real-time-messenger/dto/req"
	"real-time-messenger/dto/res"
)

type MessageUsecase interface {
	SendMessage(ctx context.Context, senderID string, request *req.SendMessageRequest) (*res.MessageResponse, error)
	GetMessagesByChatID(ctx context.Context, chatID, requesterID string, page, pageSize int) (*res.MessageListResponse, error)
	MarkAsRead(ctx context.Context, chatID, requesterID string, messageIDs []string) (int64, error)
	DeleteMessage(ctx context.Context, messageID, requesterID string) error
}
