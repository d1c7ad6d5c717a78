package dto

import (
	"encoding/json"
	"time"

	"real-time-messenger/dto/res"
)

// Inbound socket events.
const (
	EventJoinChat    = "joinChat"
	EventLeaveChat   = "leaveChat"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
	EventMarkAsRead  = "markAsRead"
)

// Outbound socket events.
const (
	EventActiveUsers         = "activeUsers"
	EventUserOnline          = "userOnline"
	EventUserOffline         = "userOffline"
	EventUserJoinedChat      = "userJoinedChat"
	EventUserLeftChat        = "userLeftChat"
	EventNewMessage          = "newMessage"
	EventMessageNotification = "messageNotification"
	EventUserTyping          = "userTyping"
	EventUserStoppedTyping   = "userStoppedTyping"
	EventMessagesRead        = "messagesRead"
	EventError               = "error"
)

// Frame is the wire shape of every websocket text frame, both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ActiveUser struct {
	UserID   string          `json:"userId"`
	UserInfo res.UserProfile `json:"userInfo"`
}

type PresencePayload struct {
	UserID   string          `json:"userId"`
	UserInfo res.UserProfile `json:"userInfo"`
	LastSeen *time.Time      `json:"lastSeen,omitempty"`
}

type ChatPayload struct {
	ChatID string `json:"chatId"`
}

type MembershipPayload struct {
	UserID   string          `json:"userId"`
	UserInfo res.UserProfile `json:"userInfo"`
	ChatID   string          `json:"chatId"`
}

type TypingRequest struct {
	ChatID     string `json:"chatId"`
	ReceiverID string `json:"receiverId,omitempty"`
}

type TypingPayload struct {
	UserID   string           `json:"userId"`
	UserInfo *res.UserProfile `json:"userInfo,omitempty"`
	ChatID   string           `json:"chatId"`
}

type MarkAsReadRequest struct {
	ChatID     string   `json:"chatId"`
	MessageIDs []string `json:"messageIds"`
}

type NewMessagePayload struct {
	Message *res.MessageResponse `json:"message"`
	ChatID  string               `json:"chatId"`
}

type MessageNotificationPayload struct {
	Message *res.MessageResponse `json:"message"`
	ChatID  string               `json:"chatId"`
	Sender  res.UserProfile      `json:"sender"`
}

type MessagesReadPayload struct {
	MessageIDs []string `json:"messageIds"`
	ReadBy     string   `json:"readBy"`
	ChatID     string   `json:"chatId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
