package entity

import (
	"real-time-messenger/enum"
	"time"
)

type Message struct {
	BaseEntity
	SenderID    string           `json:"senderId" gorm:"type:varchar(255);not null;index:idx_message_sender_receiver"`
	ReceiverID  string           `json:"receiverId" gorm:"type:varchar(255);not null;index:idx_message_sender_receiver"`
	ChatID      string           `json:"chatId" gorm:"type:varchar(255);not null;index"`
	Content     string           `json:"content,omitempty" gorm:"type:text"`
	MessageType enum.MessageType `json:"messageType" gorm:"type:varchar(10);default:'text'"`
	FileURL     string           `json:"fileUrl,omitempty" gorm:"type:text"`
	FileName    string           `json:"fileName,omitempty" gorm:"type:varchar(255)"`
	FileSize    int64            `json:"fileSize,omitempty"`
	IsDelivered bool             `json:"isDelivered" gorm:"default:false"`
	DeliveredAt *time.Time       `json:"deliveredAt,omitempty"`
	IsRead      bool             `json:"isRead" gorm:"default:false"`
	ReadAt      *time.Time       `json:"readAt,omitempty"`
	IsDeleted   bool             `json:"isDeleted" gorm:"default:false"`
	DeletedAt   *time.Time       `json:"deletedAt,omitempty"`

	Sender User `json:"-" gorm:"foreignKey:SenderID;references:ID"`
}
