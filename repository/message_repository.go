package repository

import (
	"context"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"real-time-messenger/entity"
	"time"
)

type MessageRepository struct {
	Repository[entity.Message]
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (repository MessageRepository) FindWithSender(ctx context.Context, db *gorm.DB, id string) (*entity.Message, error) {
	var message entity.Message
	err := db.WithContext(ctx).Preload("Sender").Where("id = ?", id).Take(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (repository MessageRepository) FindByIDsWithSender(ctx context.Context, db *gorm.DB, ids []string) ([]entity.Message, error) {
	var messages []entity.Message
	if len(ids) == 0 {
		return messages, nil
	}
	err := db.WithContext(ctx).Preload("Sender").Where("id IN ?", ids).Find(&messages).Error
	return messages, err
}

// FindPageByChatID returns one page of visible messages, newest page first, in chronological order.
func (repository MessageRepository) FindPageByChatID(ctx context.Context, db *gorm.DB, chatID string, page, pageSize int) ([]entity.Message, error) {
	var messages []entity.Message
	err := db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ? AND is_deleted = ?", chatID, false).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (repository MessageRepository) CountByChatID(ctx context.Context, db *gorm.DB, chatID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("chat_id = ? AND is_deleted = ?", chatID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flags unread messages received by receiverID in the chat and returns the ids it changed.
// An empty ids slice targets every unread message of the receiver in that chat.
func (repository MessageRepository) MarkRead(ctx context.Context, db *gorm.DB, chatID, receiverID string, ids []string, at time.Time) ([]string, error) {
	changed := make([]string, 0, len(ids))

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&entity.Message{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("chat_id = ? AND receiver_id = ? AND is_read = ?", chatID, receiverID, false)
		if len(ids) > 0 {
			query = query.Where("id IN ?", ids)
		}
		if err := query.Pluck("id", &changed).Error; err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}

		return tx.Model(&entity.Message{}).
			Where("id IN ?", changed).
			Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

func (repository MessageRepository) SoftDelete(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": at,
		}).Error
}

type unreadCount struct {
	ChatID string
	Total  int64
}

// UnreadCounts maps chat id to the number of visible unread messages addressed to receiverID.
func (repository MessageRepository) UnreadCounts(ctx context.Context, db *gorm.DB, receiverID string, chatIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(chatIDs))
	if len(chatIDs) == 0 {
		return counts, nil
	}

	var rows []unreadCount
	err := db.WithContext(ctx).
		Model(&entity.Message{}).
		Select("chat_id, COUNT(*) AS total").
		Where("receiver_id = ? AND is_read = ? AND is_deleted = ? AND chat_id IN ?", receiverID, false, false, chatIDs).
		Group("chat_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ChatID] = row.Total
	}
	return counts, nil
}
