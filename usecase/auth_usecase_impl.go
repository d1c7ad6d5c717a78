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
	"real-time-messenger/security"
	"strings"
	"time"
)

type AuthUsecaseImpl struct {
	*repository.AuthRepository
	*repository.UserRepository
	*validator.Validate
	*gorm.DB
	Log *logger.AppLogger
	*security.JWT
}

func NewAuthUsecase(authRepository *repository.AuthRepository, userRepository *repository.UserRepository, validate *validator.Validate, DB *gorm.DB, log *logger.AppLogger, JWT *security.JWT) AuthUsecase {
	return &AuthUsecaseImpl{
		AuthRepository: authRepository,
		UserRepository: userRepository,
		Validate:       validate,
		DB:             DB,
		Log:            log,
		JWT:            JWT,
	}
}

func (uc *AuthUsecaseImpl) LoginUser(ctx context.Context, request *req.LoginRequest) (res.LoginResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		uc.Log.Http.Warning.Warn().Err(err).Msg("Invalid login request")
		return res.LoginResponse{}, apperror.FromValidation(err)
	}

	identifier := strings.TrimSpace(request.Identifier)
	account, err := uc.AuthRepository.FindByIdentifier(ctx, uc.DB, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			uc.Log.Http.Warning.Warn().Str("identifier", identifier).Msg("Login with unknown identifier")
			return res.LoginResponse{}, apperror.New(apperror.Unauthenticated, "Invalid credentials")
		}
		uc.Log.Http.Error.Error().Err(err).Msg("Failed to find account")
		return res.LoginResponse{}, apperror.Storage(err)
	}

	if !security.ComparePassword(account.Password, request.Password) {
		uc.Log.Http.Warning.Warn().Str("accountId", account.ID).Msg("Password mismatch")
		return res.LoginResponse{}, apperror.New(apperror.Unauthenticated, "Invalid credentials")
	}
	if !account.User.IsActive {
		return res.LoginResponse{}, apperror.New(apperror.Unauthenticated, "Account is deactivated")
	}

	token, err := uc.JWT.GenerateToken(&account.User)
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Str("userId", account.User.ID).Msg("Failed to generate token")
		return res.LoginResponse{}, err
	}

	uc.Log.Http.Info.Info().Str("userId", account.User.ID).Msg("User logged in")

	return res.LoginResponse{
		Token: token,
		User:  toUserProfile(&account.User),
	}, nil
}

func (uc *AuthUsecaseImpl) RegisterUser(ctx context.Context, request *req.RegisterRequest) (res.RegisterResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		uc.Log.Http.Warning.Warn().Err(err).Msg("Invalid register request")
		return res.RegisterResponse{}, apperror.FromValidation(err)
	}

	request.Email = strings.ToLower(strings.TrimSpace(request.Email))

	taken, err := uc.AuthRepository.ExistsByUsername(ctx, uc.DB, request.Username)
	if err != nil {
		return res.RegisterResponse{}, apperror.Storage(err)
	}
	if taken {
		return res.RegisterResponse{}, apperror.New(apperror.DuplicateKey, "Username already taken")
	}

	conflict, err := uc.UserRepository.FindConflict(ctx, uc.DB, "", request.Email, request.PhoneNumber)
	if err != nil {
		return res.RegisterResponse{}, apperror.Storage(err)
	}
	if conflict != nil {
		return res.RegisterResponse{}, apperror.New(apperror.DuplicateKey, "Email or phone number already registered")
	}

	hashPassword, err := security.HashPassword(request.Password)
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Msg("Failed to hash password")
		return res.RegisterResponse{}, err
	}

	name := request.Name
	if name == "" {
		name = request.Username
	}
	now := time.Now()
	newAccount := &entity.Account{
		UserName: request.Username,
		Password: hashPassword,
		User: entity.User{
			Name:        name,
			Email:       request.Email,
			PhoneNumber: request.PhoneNumber,
			LastSeen:    &now,
			IsActive:    true,
		},
	}

	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return uc.AuthRepository.Save(ctx, tx, newAccount)
	})
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Str("username", request.Username).Msg("Failed to save account")
		return res.RegisterResponse{}, apperror.Storage(err)
	}

	token, err := uc.JWT.GenerateToken(&newAccount.User)
	if err != nil {
		return res.RegisterResponse{}, err
	}

	uc.Log.Http.Info.Info().Str("userId", newAccount.User.ID).Str("username", newAccount.UserName).Msg("User registered")

	return res.RegisterResponse{
		ID:       newAccount.ID,
		Username: newAccount.UserName,
		Email:    newAccount.User.Email,
		Token:    token,
		User:     toUserProfile(&newAccount.User),
	}, nil
}

func (uc *AuthUsecaseImpl) LogoutUser(ctx context.Context, userID string) error {
	if err := uc.UserRepository.UpdatePresence(ctx, uc.DB, userID, false, time.Now()); err != nil {
		return apperror.Storage(err)
	}
	uc.Log.Http.Info.Info().Str("userId", userID).Msg("User logged out")
	return nil
}
