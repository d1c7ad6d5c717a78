package req

type PrivateChatRequest struct {
	ReceiverID string `json:"receiverId" validate:"required"`
}

type SendMessageRequest struct {
	ChatID      string `json:"chatId" validate:"required"`
	ReceiverID  string `json:"receiverId" validate:"required"`
	Content     string `json:"content" validate:"required_if=MessageType text"`
	MessageType string `json:"messageType" validate:"omitempty,oneof=text image video document audio"`
	FileURL     string `json:"fileUrl" validate:"required_unless=MessageType text"`
	FileName    string `json:"fileName" validate:"omitempty,max=255"`
	FileSize    int64  `json:"fileSize" validate:"gte=0"`
}

type MarkReadRequest struct {
	MessageIDs []string `json:"messageIds" validate:"omitempty,dive,required"`
}

type PageRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"limit"`
	Search   string `query:"search"`
}
