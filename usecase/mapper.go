package usecase

import (
	"real-time-messenger/dto/res"
	"real-time-messenger/entity"
	"real-time-messenger/enum"
)

func toUserProfile(user *entity.User) res.UserProfile {
	return res.UserProfile{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		ProfilePicture: user.Avatar,
		IsOnline:       user.IsOnline,
		LastSeen:       user.LastSeen,
	}
}

func toUserResponse(user *entity.User) res.UserResponse {
	return res.UserResponse{
		UserProfile: toUserProfile(user),
		PhoneNumber: user.PhoneNumber,
		CreatedAt:   user.CreatedAt,
	}
}

// ToUserProfile exposes the public profile mapping to the gateway and presence packages.
func ToUserProfile(user *entity.User) res.UserProfile {
	return toUserProfile(user)
}

func toMessageResponse(message *entity.Message) res.MessageResponse {
	return res.MessageResponse{
		MessageId:   message.ID,
		ChatId:      message.ChatID,
		Sender:      toUserProfile(&message.Sender),
		ReceiverId:  message.ReceiverID,
		Content:     message.Content,
		MessageType: string(message.MessageType),
		FileURL:     message.FileURL,
		FileName:    message.FileName,
		FileSize:    message.FileSize,
		IsDelivered: message.IsDelivered,
		DeliveredAt: message.DeliveredAt,
		IsRead:      message.IsRead,
		ReadAt:      message.ReadAt,
		IsDeleted:   message.IsDeleted,
		DeletedAt:   message.DeletedAt,
		CreatedAt:   message.CreatedAt,
	}
}

func toChatResponse(chat *entity.Chat, viewerID string) res.ChatResponse {
	participants := make([]res.UserProfile, 0, len(chat.Participants))
	others := make([]res.UserProfile, 0, len(chat.Participants))
	for i := range chat.Participants {
		profile := toUserProfile(&chat.Participants[i].User)
		participants = append(participants, profile)
		if chat.Participants[i].UserID != viewerID {
			others = append(others, profile)
		}
	}

	chatName := chat.Name
	if chat.ChatType == enum.PRIVATE && len(others) > 0 {
		chatName = others[0].Name
	}

	return res.ChatResponse{
		ChatId:            chat.ID,
		ChatType:          string(chat.ChatType),
		ChatName:          chatName,
		Participants:      participants,
		OtherParticipants: others,
		LastMessageTime:   chat.LastMessageTime,
		CreatedBy:         chat.CreatedBy,
		CreatedAt:         chat.CreatedAt,
		UpdatedAt:         chat.UpdatedAt,
	}
}
