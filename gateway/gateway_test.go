package gateway_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"real-time-messenger/apperror"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto"
	"real-time-messenger/entity"
	"real-time-messenger/gateway"
	"real-time-messenger/hub"
	"real-time-messenger/hub/hubtest"
	"real-time-messenger/presence"
	"real-time-messenger/repository"
	"real-time-messenger/security"
	"real-time-messenger/session"
	"real-time-messenger/usecase"
)

type harness struct {
	db       *gorm.DB
	hub      *hub.Hub
	registry *session.Registry
	jwt      *security.JWT
	chats    usecase.ChatUsecase
	gateway  *gateway.Gateway
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), repository.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.NewNopLogger()
	h := hub.NewLocal(log)
	registry := session.NewRegistry()
	jwt := security.NewJWTWithSecret([]byte("gateway-secret"), time.Hour)
	users := repository.NewUserRepository()
	messageRepository := repository.NewMessageRepository()

	chats := usecase.NewChatUsecase(repository.NewChatRepository(), users, messageRepository, db, log)
	messages := usecase.NewMessageUsecase(messageRepository, chats, validator.New(), db, h, log)
	broadcaster := presence.NewBroadcaster(registry, h, users, db, nil, log)

	gw := gateway.New(gateway.Options{
		Hub:      h,
		Registry: registry,
		Presence: broadcaster,
		Chats:    chats,
		Messages: messages,
		Users:    users,
		DB:       db,
		JWT:      jwt,
		Log:      log,
	})

	return &harness{db: db, hub: h, registry: registry, jwt: jwt, chats: chats, gateway: gw}
}

func (h *harness) user(t *testing.T, name string) *entity.User {
	t.Helper()
	user := &entity.User{
		Name:        name,
		Email:       name + "@example.com",
		PhoneNumber: uuid.NewString()[:12],
		AuthId:      uuid.NewString(),
		IsActive:    true,
	}
	if err := h.db.Create(user).Error; err != nil {
		t.Fatal(err)
	}
	return user
}

func (h *harness) connect(t *testing.T, user *entity.User) (*gateway.Connection, *hubtest.Conn) {
	t.Helper()
	token, err := h.jwt.GenerateToken(user)
	if err != nil {
		t.Fatal(err)
	}
	profile, err := h.gateway.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate %s: %v", user.Name, err)
	}
	socket := &hubtest.Conn{}
	return h.gateway.Connect(context.Background(), hub.NewClient(user.ID, socket), profile), socket
}

func send(t *testing.T, h *harness, conn *gateway.Connection, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	frame, _ := json.Marshal(dto.Frame{Event: event, Data: raw})
	h.gateway.Dispatch(context.Background(), conn, frame)
}

func TestAuthenticateRejects(t *testing.T) {
	h := newHarness(t)
	gone := h.user(t, "gone")
	goneToken, _ := h.jwt.GenerateToken(gone)
	h.db.Model(&entity.User{}).Where("id = ?", gone.ID).Update("is_active", false)

	foreign, _ := security.NewJWTWithSecret([]byte("other"), time.Hour).GenerateToken(gone)

	for name, token := range map[string]string{
		"missing":  "",
		"garbage":  "not-a-token",
		"foreign":  foreign,
		"inactive": goneToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := h.gateway.Authenticate(context.Background(), token)
			if !apperror.Is(err, apperror.Unauthenticated) {
				t.Fatalf("expected Unauthenticated, got %v", err)
			}
		})
	}
}

func TestConversationFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")

	aliceConn, aliceSocket := h.connect(t, alice)

	var snapshot []dto.ActiveUser
	if !aliceSocket.Last(dto.EventActiveUsers, &snapshot) || len(snapshot) != 1 {
		t.Fatalf("alice snapshot = %+v", snapshot)
	}

	bobConn, bobSocket := h.connect(t, bob)

	var online dto.PresencePayload
	if !aliceSocket.Last(dto.EventUserOnline, &online) || online.UserID != bob.ID {
		t.Fatalf("alice did not see bob online: %v", aliceSocket.Events())
	}
	if !bobSocket.Last(dto.EventActiveUsers, &snapshot) || len(snapshot) != 2 {
		t.Fatalf("bob snapshot = %+v", snapshot)
	}

	chat, err := h.chats.FindOrCreatePrivateChat(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}

	send(t, h, aliceConn, dto.EventJoinChat, dto.ChatPayload{ChatID: chat.ChatId})
	send(t, h, bobConn, dto.EventJoinChat, dto.ChatPayload{ChatID: chat.ChatId})

	var joined dto.MembershipPayload
	if !aliceSocket.Last(dto.EventUserJoinedChat, &joined) || joined.UserID != bob.ID {
		t.Fatalf("alice did not see bob join: %v", aliceSocket.Events())
	}

	send(t, h, aliceConn, dto.EventSendMessage, map[string]interface{}{
		"chatId": chat.ChatId, "receiverId": bob.ID, "content": "hi bob", "messageType": "text",
	})

	var delivered dto.NewMessagePayload
	if !bobSocket.Last(dto.EventNewMessage, &delivered) || delivered.Message.Content != "hi bob" {
		t.Fatalf("bob did not receive newMessage: %v", bobSocket.Events())
	}
	if bobSocket.Count(dto.EventMessageNotification) != 1 {
		t.Errorf("bob notifications = %d", bobSocket.Count(dto.EventMessageNotification))
	}
	if aliceSocket.Count(dto.EventNewMessage) != 1 {
		t.Errorf("sender should see its own message on the chat channel")
	}

	send(t, h, bobConn, dto.EventTyping, dto.TypingRequest{ChatID: chat.ChatId, ReceiverID: alice.ID})
	var typing dto.TypingPayload
	if !aliceSocket.Last(dto.EventUserTyping, &typing) || typing.UserID != bob.ID || typing.UserInfo == nil {
		t.Fatalf("alice did not see typing: %v", aliceSocket.Events())
	}
	if bobSocket.Count(dto.EventUserTyping) != 0 {
		t.Error("typing must not echo to the sender")
	}
	send(t, h, bobConn, dto.EventStopTyping, dto.TypingRequest{ChatID: chat.ChatId})
	if aliceSocket.Count(dto.EventUserStoppedTyping) != 1 {
		t.Error("alice did not see stop typing")
	}

	send(t, h, bobConn, dto.EventMarkAsRead, dto.MarkAsReadRequest{ChatID: chat.ChatId, MessageIDs: []string{delivered.Message.MessageId}})
	var receipt dto.MessagesReadPayload
	if !aliceSocket.Last(dto.EventMessagesRead, &receipt) || receipt.ReadBy != bob.ID || len(receipt.MessageIDs) != 1 {
		t.Fatalf("alice did not get read receipt: %v", aliceSocket.Events())
	}

	send(t, h, bobConn, dto.EventLeaveChat, dto.ChatPayload{ChatID: chat.ChatId})
	if aliceSocket.Count(dto.EventUserLeftChat) != 1 {
		t.Error("alice did not see bob leave")
	}

	h.gateway.Disconnect(ctx, bobConn)
	var offline dto.PresencePayload
	if !aliceSocket.Last(dto.EventUserOffline, &offline) || offline.UserID != bob.ID || offline.LastSeen == nil {
		t.Fatalf("alice did not see bob offline: %v", aliceSocket.Events())
	}
	if h.registry.IsOnline(bob.ID) {
		t.Fatal("bob still registered")
	}
	if !bobSocket.Closed() {
		t.Error("disconnect should close the socket")
	}
	if h.hub.ChannelSize(chat.ChatId) != 1 {
		t.Errorf("chat channel size = %d, want 1", h.hub.ChannelSize(chat.ChatId))
	}
}

func TestScopedErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")
	carol := h.user(t, "carol")

	chat, err := h.chats.FindOrCreatePrivateChat(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}

	aliceConn, aliceSocket := h.connect(t, alice)
	carolConn, carolSocket := h.connect(t, carol)
	send(t, h, aliceConn, dto.EventJoinChat, dto.ChatPayload{ChatID: chat.ChatId})
	aliceSocket.Reset()

	send(t, h, carolConn, dto.EventJoinChat, dto.ChatPayload{ChatID: chat.ChatId})
	var failure dto.ErrorPayload
	if !carolSocket.Last(dto.EventError, &failure) || failure.Message == "" {
		t.Fatalf("carol should get an error: %v", carolSocket.Events())
	}
	if h.hub.InChannel(chat.ChatId, carolConn.Client) {
		t.Fatal("outsider joined the chat channel")
	}

	// typing into a channel never joined is dropped silently
	carolSocket.Reset()
	send(t, h, carolConn, dto.EventTyping, dto.TypingRequest{ChatID: chat.ChatId})
	if len(carolSocket.Frames()) != 0 || aliceSocket.Count(dto.EventUserTyping) != 0 {
		t.Fatal("typing relay must require channel membership")
	}

	send(t, h, aliceConn, dto.EventSendMessage, map[string]interface{}{
		"chatId": chat.ChatId, "receiverId": bob.ID, "messageType": "image",
	})
	if aliceSocket.Count(dto.EventError) != 1 {
		t.Fatalf("image without file should fail: %v", aliceSocket.Events())
	}

	h.gateway.Dispatch(ctx, aliceConn, []byte("{not json"))
	send(t, h, aliceConn, "selfDestruct", nil)
	if aliceSocket.Count(dto.EventError) != 3 {
		t.Fatalf("expected 3 errors, got %v", aliceSocket.Events())
	}
	if carolSocket.Count(dto.EventError) != 0 {
		t.Error("errors must stay scoped to the offending connection")
	}
	if aliceSocket.Closed() {
		t.Error("errors must not disconnect")
	}
}

func TestReplacedConnectionDoesNotGoOffline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")

	_, bobSocket := h.connect(t, bob)
	first, _ := h.connect(t, alice)
	second, secondSocket := h.connect(t, alice)

	if n := bobSocket.Count(dto.EventUserOnline); n != 1 {
		t.Fatalf("replacing connection re-announced alice: %d userOnline events", n)
	}
	var snapshot []dto.ActiveUser
	if !secondSocket.Last(dto.EventActiveUsers, &snapshot) || len(snapshot) != 2 {
		t.Fatalf("replacing connection snapshot = %+v", snapshot)
	}
	if secondSocket.Count(dto.EventUserOnline) != 0 {
		t.Error("replacing connection received its own userOnline")
	}
	bobSocket.Reset()

	h.gateway.Disconnect(ctx, first)
	if bobSocket.Count(dto.EventUserOffline) != 0 {
		t.Fatal("stale connection closing must not announce offline")
	}
	if !h.registry.IsOnline(alice.ID) {
		t.Fatal("newer connection should keep alice online")
	}

	h.gateway.Disconnect(ctx, second)
	if bobSocket.Count(dto.EventUserOffline) != 1 {
		t.Fatalf("expected one offline event, got %v", bobSocket.Events())
	}
}

func TestPresenceSymmetry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	watcher := h.user(t, "watcher")
	_, watcherSocket := h.connect(t, watcher)

	for i := 0; i < 3; i++ {
		user := h.user(t, fmt.Sprintf("user%d", i))
		conn, _ := h.connect(t, user)
		h.gateway.Disconnect(ctx, conn)
	}

	if on, off := watcherSocket.Count(dto.EventUserOnline), watcherSocket.Count(dto.EventUserOffline); on != 3 || off != 3 {
		t.Fatalf("online=%d offline=%d, want 3/3", on, off)
	}

	var stored entity.User
	h.db.Where("name = ?", "user0").Take(&stored)
	if stored.IsOnline {
		t.Fatal("disconnected user persisted as online")
	}
}

func presenceEvents(socket *hubtest.Conn) []string {
	var events []string
	for _, event := range socket.Events() {
		if event == dto.EventUserOnline || event == dto.EventUserOffline {
			events = append(events, event)
		}
	}
	return events
}

func TestReconnectDuringOfflineKeepsUserOnline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")

	_, bobSocket := h.connect(t, bob)
	first, _ := h.connect(t, alice)

	token, err := h.jwt.GenerateToken(alice)
	if err != nil {
		t.Fatal(err)
	}
	profile, err := h.gateway.Authenticate(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	bobSocket.Reset()

	// hold the offline write of the closing connection before it takes the db connection
	held := make(chan struct{})
	release := make(chan struct{})
	var armed atomic.Bool
	armed.Store(true)
	err = h.db.Callback().Update().Before("gorm:begin_transaction").Register("test:hold_offline", func(db *gorm.DB) {
		fields, ok := db.Statement.Dest.(map[string]interface{})
		if !ok {
			return
		}
		if online, _ := fields["is_online"].(bool); online {
			return
		}
		if armed.CompareAndSwap(true, false) {
			close(held)
			<-release
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	disconnected := make(chan struct{})
	go func() {
		h.gateway.Disconnect(ctx, first)
		close(disconnected)
	}()
	<-held

	reconnected := make(chan *gateway.Connection)
	go func() {
		reconnected <- h.gateway.Connect(ctx, hub.NewClient(alice.ID, &hubtest.Conn{}), profile)
	}()

	// give the reconnect room to overtake the pending offline announcement
	time.Sleep(50 * time.Millisecond)
	close(release)
	<-disconnected
	second := <-reconnected

	entry, ok := h.registry.Lookup(alice.ID)
	if !ok || entry.ConnectionID != second.Client.ID {
		t.Fatalf("registry entry = %+v, %v; want connection %s", entry, ok, second.Client.ID)
	}

	var stored entity.User
	if err := h.db.Take(&stored, "id = ?", alice.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !stored.IsOnline {
		t.Error("alice persisted offline while connected")
	}

	events := presenceEvents(bobSocket)
	if len(events) != 2 || events[0] != dto.EventUserOffline || events[1] != dto.EventUserOnline {
		t.Fatalf("bob saw presence %v, want [%s %s]", events, dto.EventUserOffline, dto.EventUserOnline)
	}
}

func TestSocketMarkAsReadWithoutIDsIsNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.user(t, "alice")
	bob := h.user(t, "bob")

	aliceConn, aliceSocket := h.connect(t, alice)
	bobConn, bobSocket := h.connect(t, bob)

	chat, err := h.chats.FindOrCreatePrivateChat(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	send(t, h, aliceConn, dto.EventJoinChat, dto.ChatPayload{ChatID: chat.ChatId})
	send(t, h, aliceConn, dto.EventSendMessage, map[string]interface{}{
		"chatId": chat.ChatId, "receiverId": bob.ID, "content": "unread", "messageType": "text",
	})

	send(t, h, bobConn, dto.EventMarkAsRead, map[string]interface{}{"chatId": chat.ChatId})
	send(t, h, bobConn, dto.EventMarkAsRead, dto.MarkAsReadRequest{ChatID: chat.ChatId, MessageIDs: []string{}})

	if n := aliceSocket.Count(dto.EventMessagesRead); n != 0 {
		t.Fatalf("empty markAsRead emitted %d receipts", n)
	}
	if n := bobSocket.Count(dto.EventError); n != 0 {
		t.Errorf("empty markAsRead reported %d errors", n)
	}

	var unread int64
	h.db.Model(&entity.Message{}).Where("chat_id = ? AND is_read = ?", chat.ChatId, false).Count(&unread)
	if unread != 1 {
		t.Fatalf("unread messages = %d, want 1", unread)
	}
}
