package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"real-time-messenger/enum"
	"sort"
	"strings"
	"time"
)

type Chat struct {
	BaseEntity
	ChatType enum.ChatType `json:"chatType" gorm:"type:varchar(7);index"`
	Name     string        `json:"chatName,omitempty" gorm:"type:varchar(50)"`
	// PairKey is set only while a private chat is active; the unique index keeps
	// one active private chat per unordered pair.
	PairKey         *string   `json:"-" gorm:"type:varchar(255);uniqueIndex"`
	LastMessageID   *string   `json:"lastMessageId,omitempty" gorm:"type:varchar(255)"`
	LastMessageTime time.Time `json:"lastMessageTime" gorm:"index"`
	IsActive        bool      `json:"isActive" gorm:"default:true"`
	CreatedBy       string    `json:"createdBy" gorm:"type:varchar(255);index"`

	Participants []ChatParticipant `json:"participants" gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE;"`
}

type ChatParticipant struct {
	ID     string `gorm:"primaryKey;type:varchar(255)"`
	ChatID string `gorm:"type:varchar(255);not null;uniqueIndex:idx_chat_participant"`
	UserID string `gorm:"type:varchar(255);not null;uniqueIndex:idx_chat_participant;index"`

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
}

func (participant *ChatParticipant) BeforeCreate(tx *gorm.DB) error {
	if participant.ID == "" {
		participant.ID = uuid.New().String()
	}
	return nil
}

// PrivatePairKey canonicalises an unordered pair of user ids.
func PrivatePairKey(userAID, userBID string) string {
	ids := []string{userAID, userBID}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

func (chat *Chat) HasParticipant(userID string) bool {
	for _, participant := range chat.Participants {
		if participant.UserID == userID {
			return true
		}
	}
	return false
}

// OtherParticipants returns every participant except the given user.
func (chat *Chat) OtherParticipants(userID string) []ChatParticipant {
	others := make([]ChatParticipant, 0, len(chat.Participants))
	for _, participant := range chat.Participants {
		if participant.UserID != userID {
			others = append(others, participant)
		}
	}
	return others
}
