package repository

import (
	"context"
	"gorm.io/gorm"
	"real-time-messenger/entity"
	"strings"
	"time"
)

type UserRepository struct {
	Repository[entity.User]
}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (repository UserRepository) FindActiveByID(ctx context.Context, db *gorm.DB, id string) (*entity.User, error) {
	var user entity.User
	err := db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).Take(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (repository UserRepository) FindActiveByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]entity.User, error) {
	var users []entity.User
	err := db.WithContext(ctx).Where("id IN ? AND is_active = ?", ids, true).Find(&users).Error
	return users, err
}

// FindConflict returns a user other than excludeID holding the email or phone number.
func (repository UserRepository) FindConflict(ctx context.Context, db *gorm.DB, excludeID, email, phone string) (*entity.User, error) {
	if email == "" && phone == "" {
		return nil, nil
	}
	query := db.WithContext(ctx).Model(&entity.User{})
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone_number = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		query = query.Where("phone_number = ?", phone)
	}

	var users []entity.User
	if err := query.Limit(1).Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (repository UserRepository) searchScope(db *gorm.DB, excludeID, search string) *gorm.DB {
	query := db.Model(&entity.User{}).Where("id <> ? AND is_active = ?", excludeID, true)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone_number LIKE ?", like, like, like)
	}
	return query
}

// FindPage lists active users except excludeID, newest first.
func (repository UserRepository) FindPage(ctx context.Context, db *gorm.DB, excludeID, search string, page, pageSize int) ([]entity.User, int64, error) {
	var total int64
	if err := repository.searchScope(db.WithContext(ctx), excludeID, search).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []entity.User
	err := repository.searchScope(db.WithContext(ctx), excludeID, search).
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&users).Error
	return users, total, err
}

func (repository UserRepository) Search(ctx context.Context, db *gorm.DB, excludeID, query string, limit int) ([]entity.User, error) {
	var users []entity.User
	err := repository.searchScope(db.WithContext(ctx), excludeID, query).
		Order("name ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (repository UserRepository) UpdatePresence(ctx context.Context, db *gorm.DB, id string, online bool, lastSeen time.Time) error {
	return db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_online": online,
			"last_seen": lastSeen,
		}).Error
}

func (repository UserRepository) UpdateProfile(ctx context.Context, db *gorm.DB, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Updates(fields).Error
}

func (repository UserRepository) Deactivate(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active": false,
			"is_online": false,
		}).Error
}
