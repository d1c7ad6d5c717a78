package repository

import (
	"context"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"real-time-messenger/entity"
)

type Repository[T any] struct {
	*gorm.DB
}

func (repo Repository[T]) Save(ctx context.Context, db *gorm.DB, entity *T) error {
	return db.WithContext(ctx).Create(entity).Error
}

func (repo Repository[T]) FindById(ctx context.Context, db *gorm.DB, entity *T, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Take(entity).Error
}

// GormConfig is shared by every dialect so table names and error translation match.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "t_",
			SingularTable: true,
		},
		TranslateError: true,
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Account{},
		&entity.User{},
		&entity.Chat{},
		&entity.ChatParticipant{},
		&entity.Message{},
	)
}
