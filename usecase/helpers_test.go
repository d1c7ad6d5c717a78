package usecase_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"real-time-messenger/config/logger"
	"real-time-messenger/entity"
	"real-time-messenger/repository"
	"real-time-messenger/usecase"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), repository.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *entity.User {
	t.Helper()

	user := &entity.User{
		Name:        name,
		Email:       name + "@example.com",
		PhoneNumber: uuid.NewString()[:12],
		AuthId:      uuid.NewString(),
		IsActive:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func deactivateUser(t *testing.T, db *gorm.DB, user *entity.User) {
	t.Helper()
	if err := db.Model(&entity.User{}).Where("id = ?", user.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate user: %v", err)
	}
}

type emitted struct {
	Channel string
	Event   string
	Data    interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []emitted
}

func (n *recordingNotifier) Emit(channel, event string, data interface{}, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, emitted{Channel: channel, Event: event, Data: data})
	return nil
}

func (n *recordingNotifier) find(channel, event string) []emitted {
	n.mu.Lock()
	defer n.mu.Unlock()
	var found []emitted
	for _, e := range n.events {
		if e.Channel == channel && e.Event == event {
			found = append(found, e)
		}
	}
	return found
}

type fixture struct {
	db       *gorm.DB
	chats    usecase.ChatUsecase
	messages usecase.MessageUsecase
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	log := logger.NewNopLogger()
	notifier := &recordingNotifier{}

	messageRepository := repository.NewMessageRepository()
	chats := usecase.NewChatUsecase(repository.NewChatRepository(), repository.NewUserRepository(), messageRepository, db, log)
	messages := usecase.NewMessageUsecase(messageRepository, chats, validator.New(), db, notifier, log)

	return &fixture{db: db, chats: chats, messages: messages, notifier: notifier}
}
