package usecase

import (
	"context"
	"real-time-messenger/dto/req"
	"real-time-messenger/dto/res"
)

type AuthUsecase interface {
	RegisterUser(ctx context.Context, request *req.RegisterRequest) (res.RegisterResponse, error)
	LoginUser(ctx context.Context, request *req.LoginRequest) (res.LoginResponse, error)
	LogoutUser(ctx context.Context, userID string) error
}
