// Package presence announces users going online and offline and answers
// whether a user currently holds a connection.
package presence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"real-time-messenger/config/logger"
	"real-time-messenger/dto"
	"real-time-messenger/dto/res"
	"real-time-messenger/hub"
	"real-time-messenger/repository"
	"real-time-messenger/session"
)

// Fanout delivers an event to every connected client except one.
type Fanout interface {
	Broadcast(event string, data interface{}, exceptClientID string) error
}

type Broadcaster struct {
	registry *session.Registry
	fanout   Fanout
	users    *repository.UserRepository
	db       *gorm.DB
	mirror   Mirror
	log      *logger.AppLogger
}

// NewBroadcaster builds a broadcaster; mirror may be nil when Redis is not configured.
func NewBroadcaster(registry *session.Registry, fanout Fanout, users *repository.UserRepository, db *gorm.DB, mirror Mirror, log *logger.AppLogger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		fanout:   fanout,
		users:    users,
		db:       db,
		mirror:   mirror,
		log:      log,
	}
}

// AnnounceOnline persists the online flag and tells every other client that the user connected.
func (b *Broadcaster) AnnounceOnline(ctx context.Context, client *hub.Client, profile res.UserProfile) {
	now := time.Now()
	b.persist(ctx, client.UserID, true, now)

	if b.mirror != nil {
		if err := b.mirror.SetOnline(ctx, client.UserID); err != nil {
			b.log.WS.Warning.Warn().Err(err).Str("userId", client.UserID).Msg("presence mirror update failed")
		}
	}

	profile.IsOnline = true
	profile.LastSeen = &now
	payload := dto.PresencePayload{UserID: client.UserID, UserInfo: profile}
	if err := b.fanout.Broadcast(dto.EventUserOnline, payload, client.ID); err != nil {
		b.log.WS.Warning.Warn().Err(err).Str("userId", client.UserID).Msg("failed to broadcast userOnline")
	}

	b.log.WS.Info.Info().Str("userId", client.UserID).Msg("user online")
}

// AnnounceOffline persists the offline flag with lastSeen and tells every other client.
func (b *Broadcaster) AnnounceOffline(ctx context.Context, client *hub.Client, profile res.UserProfile) {
	now := time.Now()
	b.persist(ctx, client.UserID, false, now)

	if b.mirror != nil {
		if err := b.mirror.SetOffline(ctx, client.UserID); err != nil {
			b.log.WS.Warning.Warn().Err(err).Str("userId", client.UserID).Msg("presence mirror update failed")
		}
	}

	profile.IsOnline = false
	profile.LastSeen = &now
	payload := dto.PresencePayload{UserID: client.UserID, UserInfo: profile, LastSeen: &now}
	if err := b.fanout.Broadcast(dto.EventUserOffline, payload, client.ID); err != nil {
		b.log.WS.Warning.Warn().Err(err).Str("userId", client.UserID).Msg("failed to broadcast userOffline")
	}

	b.log.WS.Info.Info().Str("userId", client.UserID).Msg("user offline")
}

// SnapshotFor sends the connecting client the users currently online on this instance.
func (b *Broadcaster) SnapshotFor(client *hub.Client) error {
	return client.Emit(dto.EventActiveUsers, b.registry.ListOnline())
}

// IsOnline consults the local registry first and then the shared mirror.
func (b *Broadcaster) IsOnline(ctx context.Context, userID string) bool {
	if b.registry.IsOnline(userID) {
		return true
	}
	if b.mirror == nil {
		return false
	}
	online, err := b.mirror.IsOnline(ctx, userID)
	if err != nil {
		b.log.WS.Warning.Warn().Err(err).Str("userId", userID).Msg("presence mirror lookup failed")
		return false
	}
	return online
}

func (b *Broadcaster) persist(ctx context.Context, userID string, online bool, at time.Time) {
	if err := b.users.UpdatePresence(ctx, b.db, userID, online, at); err != nil {
		b.log.WS.Error.Error().Err(err).Str("userId", userID).Bool("online", online).Msg("failed to persist presence")
	}
}
