package repository

import (
	"context"
	"gorm.io/gorm"
	"real-time-messenger/entity"
	"time"
)

type ChatRepository struct {
	Repository[entity.Chat]
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{}
}

func preloadParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Participants").Preload("Participants.User")
}

// FindByPairKey returns nil, nil when no active private chat exists for the pair.
func (repository ChatRepository) FindByPairKey(ctx context.Context, db *gorm.DB, pairKey string) (*entity.Chat, error) {
	var chats []entity.Chat
	result := preloadParticipants(db.WithContext(ctx)).
		Where("pair_key = ? AND is_active = ?", pairKey, true).
		Limit(1).
		Find(&chats)

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 || len(chats) == 0 {
		return nil, nil
	}
	return &chats[0], nil
}

func (repository ChatRepository) FindChatByID(ctx context.Context, db *gorm.DB, id string) (*entity.Chat, error) {
	var chat entity.Chat
	err := preloadParticipants(db.WithContext(ctx)).Where("id = ?", id).First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (repository ChatRepository) CreateChatWithParticipants(ctx context.Context, db *gorm.DB, chat *entity.Chat, participants []entity.ChatParticipant) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ChatID = chat.ID
		}
		return tx.Create(&participants).Error
	})
}

// FindAllByUserID lists the user's active chats, most recent activity first.
func (repository ChatRepository) FindAllByUserID(ctx context.Context, db *gorm.DB, userID string) ([]entity.Chat, error) {
	var chats []entity.Chat

	err := preloadParticipants(db.WithContext(ctx)).
		Model(&entity.Chat{}).
		Where("is_active = ?", true).
		Where("id IN (?)", db.Model(&entity.ChatParticipant{}).Select("chat_id").Where("user_id = ?", userID)).
		Order("last_message_time DESC").
		Find(&chats).Error

	if err != nil {
		return nil, err
	}

	return chats, nil
}

func (repository ChatRepository) UpdateLastMessage(ctx context.Context, db *gorm.DB, chatID, messageID string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&entity.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"last_message_id":   messageID,
			"last_message_time": at,
		}).Error
}

// Deactivate soft-removes a chat and releases its pair key for a future private chat.
func (repository ChatRepository) Deactivate(ctx context.Context, db *gorm.DB, chatID string) error {
	return db.WithContext(ctx).
		Model(&entity.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"is_active": false,
			"pair_key":  nil,
		}).Error
}

func (repository ChatRepository) CountActivePrivateChats(ctx context.Context, db *gorm.DB, pairKey string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&entity.Chat{}).
		Where("pair_key = ? AND is_active = ?", pairKey, true).
		Count(&count).Error
	return count, err
}
