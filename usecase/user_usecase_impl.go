package usecase

import (
	"context"
	"errors"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"real-time-messenger/apperror"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto/req"
	"real-time-messenger/dto/res"
	"real-time-messenger/entity"
	"real-time-messenger/repository"
	"strings"
)

const (
	defaultUserPageSize = 20
	maxUserPageSize     = 100
	searchResultLimit   = 20
	minSearchLength     = 2
)

type UserUsecaseImpl struct {
	*repository.UserRepository
	*validator.Validate
	*gorm.DB
	Log *logger.AppLogger
}

func NewUserUsecase(userRepository *repository.UserRepository, validate *validator.Validate, DB *gorm.DB, logger *logger.AppLogger) UserUsecase {
	return &UserUsecaseImpl{UserRepository: userRepository, Validate: validate, DB: DB, Log: logger}
}

func (uc *UserUsecaseImpl) findActive(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.UserRepository.FindActiveByID(ctx, uc.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			uc.Log.Http.Warning.Warn().
				Str("userId", userID).
				Msg("User not found")
			return nil, apperror.New(apperror.NotFound, "User not found")
		}
		uc.Log.Http.Error.Error().
			Err(err).
			Str("userId", userID).
			Msg("Failed to find user")
		return nil, apperror.Storage(err)
	}
	return user, nil
}

func (uc *UserUsecaseImpl) GetUserByID(ctx context.Context, userID string) (res.UserResponse, error) {
	uc.Log.Http.Trace.Trace().
		Str("userId", userID).
		Msg("Finding user by ID")

	user, err := uc.findActive(ctx, userID)
	if err != nil {
		return res.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (uc *UserUsecaseImpl) GetAllUsers(ctx context.Context, requesterID string, request req.PageRequest) (res.UserListResponse, error) {
	page, pageSize := request.Page, request.PageSize
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultUserPageSize
	case pageSize > maxUserPageSize:
		pageSize = maxUserPageSize
	}

	users, total, err := uc.UserRepository.FindPage(ctx, uc.DB, requesterID, request.Search, page, pageSize)
	if err != nil {
		uc.Log.Http.Error.Error().
			Err(err).
			Msg("Failed to get users")
		return res.UserListResponse{}, apperror.Storage(err)
	}

	userResponses := make([]res.UserResponse, 0, len(users))
	for i := range users {
		userResponses = append(userResponses, toUserResponse(&users[i]))
	}

	uc.Log.Http.Trace.Trace().
		Int("userCount", len(userResponses)).
		Int64("total", total).
		Msg("Users retrieved")

	return res.UserListResponse{
		Users:      userResponses,
		Pagination: res.NewPagination(page, pageSize, total),
	}, nil
}

func (uc *UserUsecaseImpl) SearchUsers(ctx context.Context, requesterID, query string) ([]res.UserResponse, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return nil, apperror.New(apperror.ValidationError, "Search query must be at least 2 characters")
	}

	users, err := uc.UserRepository.Search(ctx, uc.DB, requesterID, query, searchResultLimit)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	userResponses := make([]res.UserResponse, 0, len(users))
	for i := range users {
		userResponses = append(userResponses, toUserResponse(&users[i]))
	}
	return userResponses, nil
}

func (uc *UserUsecaseImpl) GetPresence(ctx context.Context, userID string) (res.PresenceResponse, error) {
	user, err := uc.findActive(ctx, userID)
	if err != nil {
		return res.PresenceResponse{}, err
	}
	return res.PresenceResponse{
		UserID:   user.ID,
		IsOnline: user.IsOnline,
		LastSeen: user.LastSeen,
	}, nil
}

func (uc *UserUsecaseImpl) UpdateProfile(ctx context.Context, userID string, request *req.EditProfileRequest) (res.UserResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		return res.UserResponse{}, apperror.FromValidation(err)
	}

	user, err := uc.findActive(ctx, userID)
	if err != nil {
		return res.UserResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(request.Email))
	conflict, err := uc.UserRepository.FindConflict(ctx, uc.DB, user.ID, email, request.PhoneNumber)
	if err != nil {
		return res.UserResponse{}, apperror.Storage(err)
	}
	if conflict != nil {
		uc.Log.Http.Warning.Warn().
			Str("userId", user.ID).
			Msg("Profile update conflicts with another user")
		return res.UserResponse{}, apperror.New(apperror.DuplicateKey, "Email or phone number already in use")
	}

	fields := make(map[string]interface{})
	if request.Name != "" {
		fields["name"] = request.Name
	}
	if email != "" {
		fields["email"] = email
	}
	if request.PhoneNumber != "" {
		fields["phone_number"] = request.PhoneNumber
	}
	if request.ProfilePicture != "" {
		fields["avatar"] = request.ProfilePicture
	}

	if err := uc.UserRepository.UpdateProfile(ctx, uc.DB, user.ID, fields); err != nil {
		uc.Log.Http.Error.Error().
			Err(err).
			Str("userId", user.ID).
			Msg("Failed to update profile")
		return res.UserResponse{}, apperror.Storage(err)
	}

	uc.Log.Http.Info.Info().
		Str("userId", user.ID).
		Int("fields", len(fields)).
		Msg("Profile updated")

	return uc.GetUserByID(ctx, user.ID)
}

func (uc *UserUsecaseImpl) DeactivateUser(ctx context.Context, userID string) error {
	if _, err := uc.findActive(ctx, userID); err != nil {
		return err
	}
	if err := uc.UserRepository.Deactivate(ctx, uc.DB, userID); err != nil {
		return apperror.Storage(err)
	}

	uc.Log.Http.Info.Info().
		Str("userId", userID).
		Msg("User deactivated")
	return nil
}
