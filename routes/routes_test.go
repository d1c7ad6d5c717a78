package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"real-time-messenger/config"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto/res"
	"real-time-messenger/gateway"
	"real-time-messenger/handler"
	"real-time-messenger/hub"
	"real-time-messenger/middleware"
	"real-time-messenger/presence"
	"real-time-messenger/ratelimit"
	"real-time-messenger/repository"
	"real-time-messenger/routes"
	"real-time-messenger/security"
	"real-time-messenger/session"
	"real-time-messenger/storage"
	"real-time-messenger/usecase"
)

func newTestApp(t *testing.T) *fiber.App {
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

	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:7720")
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}

	log := logger.NewNopLogger()
	validate := validator.New()
	jwt := security.NewJWTWithSecret([]byte("routes-secret"), time.Hour)
	h := hub.NewLocal(log)
	registry := session.NewRegistry()

	userRepository := repository.NewUserRepository()
	chatRepository := repository.NewChatRepository()
	messageRepository := repository.NewMessageRepository()

	broadcaster := presence.NewBroadcaster(registry, h, userRepository, db, nil, log)
	authUsecase := usecase.NewAuthUsecase(repository.NewAuthRepository(), userRepository, validate, db, log, jwt)
	userUsecase := usecase.NewUserUsecase(userRepository, validate, db, log)
	chatUsecase := usecase.NewChatUsecase(chatRepository, userRepository, messageRepository, db, log)
	messageUsecase := usecase.NewMessageUsecase(messageRepository, chatUsecase, validate, db, h, log)
	gw := gateway.New(gateway.Options{
		Hub:      h,
		Registry: registry,
		Presence: broadcaster,
		Chats:    chatUsecase,
		Messages: messageUsecase,
		Users:    userRepository,
		DB:       db,
		JWT:      jwt,
		Log:      log,
	})

	app := fiber.New(fiber.Config{ErrorHandler: config.NewErrorHandler(log)})
	route := routes.ConfigRoute{
		App:              app,
		Middleware:       middleware.NewMiddleware(jwt, log, nil, ratelimit.LoginRule(5)),
		AuthHandler:      handler.NewAuthHandler(authUsecase, log),
		UserHandler:      handler.NewUserHandler(userUsecase, broadcaster, log),
		ChatHandler:      handler.NewChatHandler(chatUsecase, messageUsecase, log),
		UploadHandler:    handler.NewUploadHandler(store, log),
		OpsHandler:       handler.NewOpsHandler(db, registry, log),
		WebSocketHandler: handler.NewWebSocketHandler(gw, log, 25*time.Second, time.Minute),
		UploadDir:        store.Dir(),
	}
	route.GetRoute()
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		request.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return send(t, app, request)
}

func send(t *testing.T, app *fiber.App, request *http.Request) (*http.Response, []byte) {
	t.Helper()
	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", request.Method, request.URL.Path, err)
	}
	defer response.Body.Close()
	raw, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return response, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var envelope res.CommonResponse[T]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return envelope.Data
}

func registerUser(t *testing.T, app *fiber.App, username string) res.RegisterResponse {
	t.Helper()
	response, raw := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":    username,
		"phoneNumber": "08" + uuid.NewString()[:10],
		"email":       username + "@example.com",
		"password":    "secret123",
	})
	if response.StatusCode != fiber.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, response.StatusCode, raw)
	}
	return decode[res.RegisterResponse](t, raw)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	response, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/auth/me", "", nil)
	if response.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("no token: status %d", response.StatusCode)
	}

	response, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
	if response.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("bad token: status %d", response.StatusCode)
	}

	response, _ = doJSON(t, app, fiber.MethodGet, "/ws", "", nil)
	if response.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("plain GET /ws: status %d", response.StatusCode)
	}
}

func TestRegisterLoginAndProfile(t *testing.T) {
	app := newTestApp(t)
	alice := registerUser(t, app, "alice")

	response, raw := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": "alice@example.com",
		"password":   "secret123",
	})
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("login: status %d body %s", response.StatusCode, raw)
	}
	login := decode[res.LoginResponse](t, raw)

	response, raw = doJSON(t, app, fiber.MethodGet, "/api/v1/auth/me", login.Token, nil)
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("me: status %d body %s", response.StatusCode, raw)
	}
	if me := decode[res.UserResponse](t, raw); me.ID != alice.User.ID {
		t.Fatalf("me returned %q, want %q", me.ID, alice.User.ID)
	}

	response, raw = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "wrong-password",
	})
	if response.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("bad password: status %d body %s", response.StatusCode, raw)
	}
	var failure res.ErrorResponse
	if err := json.Unmarshal(raw, &failure); err != nil || failure.Error != "Invalid credentials" {
		t.Fatalf("unexpected error body %s", raw)
	}

	response, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":    "alice",
		"phoneNumber": "0899999999",
		"email":       "other@example.com",
		"password":    "secret123",
	})
	if response.StatusCode != fiber.StatusConflict {
		t.Fatalf("duplicate username: status %d", response.StatusCode)
	}
}

func TestChatAndMessageRoutes(t *testing.T) {
	app := newTestApp(t)
	alice := registerUser(t, app, "alice")
	bob := registerUser(t, app, "bob")

	response, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/chats/private", alice.Token, map[string]string{"receiverId": alice.User.ID})
	if response.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("self chat: status %d", response.StatusCode)
	}

	response, raw := doJSON(t, app, fiber.MethodPost, "/api/v1/chats/private", alice.Token, map[string]string{"receiverId": bob.User.ID})
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("create chat: status %d body %s", response.StatusCode, raw)
	}
	chat := decode[*res.ChatResponse](t, raw)

	response, raw = doJSON(t, app, fiber.MethodPost, "/api/v1/messages", alice.Token, map[string]string{
		"chatId":      chat.ChatId,
		"receiverId":  bob.User.ID,
		"content":     "  hello bob  ",
		"messageType": "text",
	})
	if response.StatusCode != fiber.StatusCreated {
		t.Fatalf("send: status %d body %s", response.StatusCode, raw)
	}
	sent := decode[*res.MessageResponse](t, raw)
	if sent.Content != "hello bob" || !sent.IsDelivered {
		t.Fatalf("unexpected message %+v", sent)
	}

	response, raw = doJSON(t, app, fiber.MethodGet, "/api/v1/chats", bob.Token, nil)
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("list chats: status %d body %s", response.StatusCode, raw)
	}
	chats := decode[[]res.ChatResponse](t, raw)
	if len(chats) != 1 || chats[0].UnreadCount != 1 {
		t.Fatalf("unexpected chat list %+v", chats)
	}

	response, raw = doJSON(t, app, fiber.MethodPut, "/api/v1/chats/"+chat.ChatId+"/read", bob.Token, map[string]interface{}{})
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("mark read: status %d body %s", response.StatusCode, raw)
	}
	if marked := decode[res.MarkReadResponse](t, raw); marked.ModifiedCount != 1 {
		t.Fatalf("modified %d, want 1", marked.ModifiedCount)
	}

	response, raw = doJSON(t, app, fiber.MethodGet, "/api/v1/chats/"+chat.ChatId+"/messages?page=1&limit=10", bob.Token, nil)
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("history: status %d body %s", response.StatusCode, raw)
	}
	history := decode[*res.MessageListResponse](t, raw)
	if len(history.Messages) != 1 || !history.Messages[0].IsRead || history.Pagination.TotalItems != 1 {
		t.Fatalf("unexpected history %+v", history)
	}

	carol := registerUser(t, app, "carol")
	response, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/chats/"+chat.ChatId+"/messages", carol.Token, nil)
	if response.StatusCode != fiber.StatusForbidden {
		t.Fatalf("outsider history: status %d", response.StatusCode)
	}

	response, _ = doJSON(t, app, fiber.MethodDelete, "/api/v1/messages/"+sent.MessageId, bob.Token, nil)
	if response.StatusCode != fiber.StatusForbidden {
		t.Fatalf("delete by receiver: status %d", response.StatusCode)
	}
	response, _ = doJSON(t, app, fiber.MethodDelete, "/api/v1/messages/"+sent.MessageId, alice.Token, nil)
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("delete by sender: status %d", response.StatusCode)
	}
}

func TestUsersAndPresenceRoutes(t *testing.T) {
	app := newTestApp(t)
	alice := registerUser(t, app, "alice")
	bob := registerUser(t, app, "bobby")

	response, raw := doJSON(t, app, fiber.MethodGet, "/api/v1/users?page=1&limit=10", alice.Token, nil)
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("list users: status %d body %s", response.StatusCode, raw)
	}
	list := decode[res.UserListResponse](t, raw)
	if len(list.Users) != 1 || list.Users[0].ID != bob.User.ID {
		t.Fatalf("unexpected user list %+v", list.Users)
	}

	response, raw = doJSON(t, app, fiber.MethodGet, "/api/v1/users/search?query=bo", alice.Token, nil)
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("search: status %d body %s", response.StatusCode, raw)
	}
	if found := decode[[]res.UserResponse](t, raw); len(found) != 1 {
		t.Fatalf("search found %d users", len(found))
	}

	response, raw = doJSON(t, app, fiber.MethodGet, "/api/v1/users/"+bob.User.ID+"/presence", alice.Token, nil)
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("presence: status %d body %s", response.StatusCode, raw)
	}
	if presence := decode[res.PresenceResponse](t, raw); presence.IsOnline {
		t.Fatal("bob has no connection and must be offline")
	}

	response, _ = doJSON(t, app, fiber.MethodDelete, "/api/v1/auth/me", bob.Token, nil)
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("deactivate: status %d", response.StatusCode)
	}
	response, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/users/"+bob.User.ID, alice.Token, nil)
	if response.StatusCode != fiber.StatusNotFound {
		t.Fatalf("deactivated user lookup: status %d", response.StatusCode)
	}
}

func TestUploadRoute(t *testing.T) {
	app := newTestApp(t)
	alice := registerUser(t, app, "alice")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

	upload := func(kind string) (*http.Response, []byte) {
		body := new(bytes.Buffer)
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", "cat.png")
		if err != nil {
			t.Fatalf("CreateFormFile() error: %v", err)
		}
		_, _ = part.Write(png)
		_ = writer.Close()

		request := httptest.NewRequest(fiber.MethodPost, "/api/v1/upload/"+kind, body)
		request.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
		request.Header.Set(fiber.HeaderAuthorization, "Bearer "+alice.Token)
		return send(t, app, request)
	}

	response, raw := upload("image")
	if response.StatusCode != fiber.StatusCreated {
		t.Fatalf("upload image: status %d body %s", response.StatusCode, raw)
	}
	uploaded := decode[res.UploadResponse](t, raw)
	if uploaded.MessageType != "image" || uploaded.FileSize != int64(len(png)) {
		t.Fatalf("unexpected upload %+v", uploaded)
	}

	response, _ = upload("video")
	if response.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("png as video: status %d", response.StatusCode)
	}

	response, _ = upload("spreadsheet")
	if response.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("unknown kind: status %d", response.StatusCode)
	}
}

func TestHealthRoute(t *testing.T) {
	app := newTestApp(t)

	response, raw := doJSON(t, app, fiber.MethodGet, "/health", "", nil)
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("health: status %d body %s", response.StatusCode, raw)
	}
	if health := decode[handler.HealthResponse](t, raw); health.Database != "up" {
		t.Fatalf("database = %q", health.Database)
	}

	response, _ = doJSON(t, app, fiber.MethodGet, "/metrics", "", nil)
	if response.StatusCode != fiber.StatusOK {
		t.Fatalf("metrics: status %d", response.StatusCode)
	}
}
