package usecase

import (
	"context"
	"real-time-messenger/dto/req"
	"real-time-messenger/dto/res"
)

type UserUsecase interface {
	GetUserByID(ctx context.Context, userID string) (res.UserResponse, error)
	GetAllUsers(ctx context.Context, requesterID string, request req.PageRequest) (res.UserListResponse, error)
	SearchUsers(ctx context.Context, requesterID, query string) ([]res.UserResponse, error)
	GetPresence(ctx context.Context, userID string) (res.PresenceResponse, error)
	UpdateProfile(ctx context.Context, userID string, request *req.EditProfileRequest) (res.UserResponse, error)
	DeactivateUser(ctx context.Context, userID string) error
}
