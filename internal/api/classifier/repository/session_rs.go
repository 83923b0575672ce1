package classifierRepository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"LedgerBot/internal/api/classifier"
	"LedgerBot/internal/entity"
	contextPkg "LedgerBot/pkg/context"
)

// sessionRepository stores one pending session per (chat, user) key as a
// JSON value. Expiry is checked lazily on read against created_at plus the
// session's own TTL; the Redis key TTL is only a garbage-collection backstop.
type sessionRepository struct {
	client *redis.Client
	log    *logrus.Logger
}

func (r *sessionRepository) GetSession(c context.Context, key string) (entity.PendingSession, error) {
	requestID := contextPkg.GetRequestID(c)

	raw, err := r.client.Get(c, sessionKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return entity.PendingSession{}, classifier.ErrSessionNotFound
	}
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"key":        key,
		}).Error("GetSession redis err")
		return entity.PendingSession{}, err
	}

	var session entity.PendingSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"key":        key,
		}).Error("GetSession unmarshal err")
		return entity.PendingSession{}, err
	}

	if session.IsExpired(time.Now()) {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"key":        key,
		}).Debug("GetSession found expired session, discarding")
		_ = r.client.Del(c, sessionKeyPrefix+key).Err()
		return entity.PendingSession{}, classifier.ErrSessionNotFound
	}

	return session, nil
}

func (r *sessionRepository) SaveSession(c context.Context, session entity.PendingSession) error {
	requestID := contextPkg.GetRequestID(c)

	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}

	key := sessionKeyPrefix + entity.PendingKey(session.UserID, session.ChatID)

	// Backstop expiry at twice the logical TTL so stale values cannot
	// accumulate even if never read again.
	backstop := 2 * time.Duration(session.TTLSeconds) * time.Second

	if err := r.client.Set(c, key, string(raw), backstop).Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"key":        key,
		}).Error("SaveSession redis err")
		return err
	}

	return nil
}

func (r *sessionRepository) DeleteSession(c context.Context, key string) error {
	requestID := contextPkg.GetRequestID(c)

	if err := r.client.Del(c, sessionKeyPrefix+key).Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"key":        key,
		}).Error("DeleteSession redis err")
		return err
	}

	return nil
}

// SetPromptMessageID records the transport ID of the prompt we sent, so
// group replies quoting the prompt can be matched back to the session.
func (r *sessionRepository) SetPromptMessageID(c context.Context, key string, messageID string) error {
	session, err := r.GetSession(c, key)
	if err != nil {
		return err
	}

	session.PromptMessageID = messageID
	return r.SaveSession(c, session)
}

func (r *sessionRepository) CountSessions(c context.Context) (int64, error) {
	requestID := contextPkg.GetRequestID(c)

	var count int64
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(c, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("CountSessions redis err")
			return 0, err
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return count, nil
}
