// Package gateway authenticates websocket connections and routes their
// inbound events to the chat, message and presence components.
package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"real-time-messenger/apperror"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto"
	"real-time-messenger/dto/req"
	"real-time-messenger/dto/res"
	"real-time-messenger/hub"
	"real-time-messenger/metrics"
	"real-time-messenger/presence"
	"real-time-messenger/ratelimit"
	"real-time-messenger/repository"
	"real-time-messenger/security"
	"real-time-messenger/session"
	"real-time-messenger/usecase"
)

type Options struct {
	Hub         *hub.Hub
	Registry    *session.Registry
	Presence    *presence.Broadcaster
	Chats       usecase.ChatUsecase
	Messages    usecase.MessageUsecase
	Users       *repository.UserRepository
	DB          *gorm.DB
	JWT         *security.JWT
	Limiter     *ratelimit.Limiter
	MessageRule ratelimit.Rule
	Log         *logger.AppLogger
}

type Gateway struct {
	hub         *hub.Hub
	registry    *session.Registry
	presence    *presence.Broadcaster
	chats       usecase.ChatUsecase
	messages    usecase.MessageUsecase
	users       *repository.UserRepository
	db          *gorm.DB
	jwt         *security.JWT
	limiter     *ratelimit.Limiter
	messageRule ratelimit.Rule
	log         *logger.AppLogger
}

func New(options Options) *Gateway {
	return &Gateway{
		hub:         options.Hub,
		registry:    options.Registry,
		presence:    options.Presence,
		chats:       options.Chats,
		messages:    options.Messages,
		users:       options.Users,
		db:          options.DB,
		jwt:         options.JWT,
		limiter:     options.Limiter,
		messageRule: options.MessageRule,
		log:         options.Log,
	}
}

// Connection is an authenticated client together with the profile it announced.
type Connection struct {
	Client  *hub.Client
	Profile res.UserProfile
}

// Authenticate resolves a handshake token to an active user's public profile.
func (g *Gateway) Authenticate(ctx context.Context, token string) (res.UserProfile, error) {
	if token == "" {
		return res.UserProfile{}, apperror.New(apperror.Unauthenticated, "Authentication token required")
	}

	userID, err := g.jwt.GetUserIdFromToken(token)
	if err != nil {
		return res.UserProfile{}, apperror.Wrap(apperror.Unauthenticated, "Invalid token", err)
	}

	user, err := g.users.FindActiveByID(ctx, g.db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return res.UserProfile{}, apperror.New(apperror.Unauthenticated, "User not found or inactive")
	}
	if err != nil {
		return res.UserProfile{}, apperror.Storage(err)
	}
	return usecase.ToUserProfile(user), nil
}

// Connect makes an authenticated client active: it joins the user's personal
// channel, announces the user online and sends the online snapshot. A connection
// replacing a live one only receives the snapshot.
func (g *Gateway) Connect(ctx context.Context, client *hub.Client, profile res.UserProfile) *Connection {
	g.hub.Register(client)
	g.hub.Join(client.UserID, client)
	metrics.WSConnections.Inc()

	unlock := g.registry.LockUser(client.UserID)
	if replaced := g.registry.Register(client.UserID, client.ID, profile); replaced != "" {
		// the user never went offline, peers already saw userOnline
		g.log.WS.Info.Info().Str("userId", client.UserID).Str("replaced", replaced).Msg("newer connection replaced registry entry")
	} else {
		g.presence.AnnounceOnline(ctx, client, profile)
	}
	unlock()

	if err := g.presence.SnapshotFor(client); err != nil {
		g.log.WS.Warning.Warn().Err(err).Str("userId", client.UserID).Msg("failed to send active users")
	}

	g.log.WS.Info.Info().Str("userId", client.UserID).Str("clientId", client.ID).Msg("client connected")
	return &Connection{Client: client, Profile: profile}
}

// Disconnect drops every subscription of the connection and announces the user
// offline unless a newer connection already replaced this one.
func (g *Gateway) Disconnect(ctx context.Context, conn *Connection) {
	g.hub.Unregister(conn.Client)

	unlock := g.registry.LockUser(conn.Client.UserID)
	if g.registry.Unregister(conn.Client.UserID, conn.Client.ID) {
		g.presence.AnnounceOffline(ctx, conn.Client, conn.Profile)
	}
	unlock()

	metrics.WSConnections.Dec()
	_ = conn.Client.Close()

	g.log.WS.Info.Info().Str("userId", conn.Client.UserID).Str("clientId", conn.Client.ID).Msg("client disconnected")
}

// Dispatch decodes one inbound frame and handles it to completion. Failures are
// reported to this connection only as an error event.
func (g *Gateway) Dispatch(ctx context.Context, conn *Connection, raw []byte) {
	var frame dto.Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		g.fail(conn, "invalid", apperror.New(apperror.ValidationError, "Malformed frame"))
		return
	}

	var err error
	switch frame.Event {
	case dto.EventJoinChat:
		err = g.joinChat(ctx, conn, frame.Data)
	case dto.EventLeaveChat:
		g.leaveChat(conn, frame.Data)
	case dto.EventSendMessage:
		err = g.sendMessage(ctx, conn, frame.Data)
	case dto.EventTyping:
		err = g.typing(ctx, conn, frame.Data, true)
	case dto.EventStopTyping:
		err = g.typing(ctx, conn, frame.Data, false)
	case dto.EventMarkAsRead:
		err = g.markAsRead(ctx, conn, frame.Data)
	default:
		g.fail(conn, "unknown", apperror.New(apperror.ValidationError, "Unknown event "+frame.Event))
		return
	}

	metrics.WSEventsTotal.WithLabelValues(frame.Event).Inc()
	if err != nil {
		g.fail(conn, frame.Event, err)
	}
}

func (g *Gateway) joinChat(ctx context.Context, conn *Connection, data json.RawMessage) error {
	var payload dto.ChatPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	if payload.ChatID == "" {
		return apperror.New(apperror.ValidationError, "Chat ID is required")
	}

	if _, err := g.chats.AssertParticipant(ctx, payload.ChatID, conn.Client.UserID); err != nil {
		return err
	}

	g.hub.Join(payload.ChatID, conn.Client)
	membership := dto.MembershipPayload{UserID: conn.Client.UserID, UserInfo: conn.Profile, ChatID: payload.ChatID}
	return g.hub.Emit(payload.ChatID, dto.EventUserJoinedChat, membership, conn.Client.ID)
}

func (g *Gateway) leaveChat(conn *Connection, data json.RawMessage) {
	var payload dto.ChatPayload
	if decode(data, &payload) != nil || payload.ChatID == "" {
		return
	}
	if !g.hub.InChannel(payload.ChatID, conn.Client) {
		return
	}

	g.hub.Leave(payload.ChatID, conn.Client)
	membership := dto.MembershipPayload{UserID: conn.Client.UserID, UserInfo: conn.Profile, ChatID: payload.ChatID}
	if err := g.hub.Emit(payload.ChatID, dto.EventUserLeftChat, membership, conn.Client.ID); err != nil {
		g.log.WS.Warning.Warn().Err(err).Str("chatId", payload.ChatID).Msg("failed to announce leave")
	}
}

func (g *Gateway) sendMessage(ctx context.Context, conn *Connection, data json.RawMessage) error {
	if err := g.allow(ctx, conn); err != nil {
		return err
	}

	var request req.SendMessageRequest
	if err := decode(data, &request); err != nil {
		return err
	}
	_, err := g.messages.SendMessage(ctx, conn.Client.UserID, &request)
	return err
}

// typing relays to the other members of a chat channel the sender has joined;
// anything else is dropped without an error.
func (g *Gateway) typing(ctx context.Context, conn *Connection, data json.RawMessage, started bool) error {
	var request dto.TypingRequest
	if err := decode(data, &request); err != nil {
		return err
	}
	if request.ChatID == "" || !g.hub.InChannel(request.ChatID, conn.Client) {
		return nil
	}

	if !started {
		payload := dto.TypingPayload{UserID: conn.Client.UserID, ChatID: request.ChatID}
		return g.hub.Emit(request.ChatID, dto.EventUserStoppedTyping, payload, conn.Client.ID)
	}

	if err := g.allow(ctx, conn); err != nil {
		return err
	}
	profile := conn.Profile
	payload := dto.TypingPayload{UserID: conn.Client.UserID, UserInfo: &profile, ChatID: request.ChatID}
	return g.hub.Emit(request.ChatID, dto.EventUserTyping, payload, conn.Client.ID)
}

func (g *Gateway) markAsRead(ctx context.Context, conn *Connection, data json.RawMessage) error {
	var request dto.MarkAsReadRequest
	if err := decode(data, &request); err != nil {
		return err
	}
	if request.ChatID == "" {
		return apperror.New(apperror.ValidationError, "Chat ID is required")
	}
	if len(request.MessageIDs) == 0 {
		return nil
	}
	_, err := g.messages.MarkAsRead(ctx, request.ChatID, conn.Client.UserID, request.MessageIDs)
	return err
}

func (g *Gateway) allow(ctx context.Context, conn *Connection) error {
	allowed, _ := g.limiter.Allow(ctx, conn.Client.UserID, g.messageRule)
	if !allowed {
		return apperror.New(apperror.RateLimited, "Too many events, slow down")
	}
	return nil
}

func (g *Gateway) fail(conn *Connection, event string, err error) {
	metrics.WSErrorsTotal.WithLabelValues(event).Inc()

	if apperror.KindOf(err) == "" || apperror.Is(err, apperror.StorageError) {
		g.log.WS.Error.Error().Err(err).Str("event", event).Str("userId", conn.Client.UserID).Msg("event failed")
	} else {
		g.log.WS.Trace.Trace().Err(err).Str("event", event).Str("userId", conn.Client.UserID).Msg("event rejected")
	}

	if writeErr := conn.Client.Emit(dto.EventError, dto.ErrorPayload{Message: apperror.Message(err)}); writeErr != nil {
		g.log.WS.Warning.Warn().Err(writeErr).Str("userId", conn.Client.UserID).Msg("failed to report error")
	}
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return apperror.New(apperror.ValidationError, "Payload is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperror.Wrap(apperror.ValidationError, "Invalid payload", err)
	}
	return nil
}
