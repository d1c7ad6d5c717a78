package res

import "time"

type ChatResponse struct {
	ChatId            string           `json:"chatId"`
	ChatType          string           `json:"chatType"`
	ChatName          string           `json:"chatName"`
	Participants      []UserProfile    `json:"participants"`
	OtherParticipants []UserProfile    `json:"otherParticipants"`
	LastMessage       *MessageResponse `json:"lastMessage,omitempty"`
	LastMessageTime   time.Time        `json:"lastMessageTime"`
	UnreadCount       int64            `json:"unreadCount"`
	CreatedBy         string           `json:"createdBy"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

type MessageResponse struct {
	MessageId   string      `json:"messageId"`
	ChatId      string      `json:"chatId"`
	Sender      UserProfile `json:"sender"`
	ReceiverId  string      `json:"receiverId"`
	Content     string      `json:"content,omitempty"`
	MessageType string      `json:"messageType"`
	FileURL     string      `json:"fileUrl,omitempty"`
	FileName    string      `json:"fileName,omitempty"`
	FileSize    int64       `json:"fileSize,omitempty"`
	IsDelivered bool        `json:"isDelivered"`
	DeliveredAt *time.Time  `json:"deliveredAt,omitempty"`
	IsRead      bool        `json:"isRead"`
	ReadAt      *time.Time  `json:"readAt,omitempty"`
	IsDeleted   bool        `json:"isDeleted"`
	DeletedAt   *time.Time  `json:"deletedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type MessageListResponse struct {
	ChatId     string            `json:"chatId"`
	Messages   []MessageResponse `json:"messages"`
	Pagination Pagination        `json:"pagination"`
}

type MarkReadResponse struct {
	ModifiedCount int64 `json:"modifiedCount"`
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPagination derives page counters for a total of items.
func NewPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}
