package repository

import (
	"context"
	"gorm.io/gorm"
	"real-time-messenger/entity"
)

type AuthRepository struct {
	Repository[entity.Account]
}

func NewAuthRepository() *AuthRepository {
	return &AuthRepository{}
}

// FindByIdentifier resolves an account by username, or by the email or phone number of its user.
func (repository AuthRepository) FindByIdentifier(ctx context.Context, db *gorm.DB, identifier string) (entity.Account, error) {
	account := entity.Account{}
	err := db.WithContext(ctx).
		Preload("User").
		Where("user_name = ?", identifier).
		Or("id IN (?)", db.Model(&entity.User{}).Select("auth_id").Where("email = ? OR phone_number = ?", identifier, identifier)).
		First(&account).Error
	return account, err
}

func (repository AuthRepository) ExistsByUsername(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.Account{}).Where("user_name = ?", username).Count(&count).Error
	return count > 0, err
}
