package classifierRepository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	contextPkg "LedgerBot/pkg/context"
)

// dedupRepository drops transport redeliveries: a message ID is processed
// only the first time it is seen inside the window.
type dedupRepository struct {
	client *redis.Client
	log    *logrus.Logger
}

func (r *dedupRepository) MarkSeen(c context.Context, messageID string, window time.Duration) (bool, error) {
	requestID := contextPkg.GetRequestID(c)

	first, err := r.client.SetNX(c, dedupKeyPrefix+messageID, 1, window).Result()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"message_id": messageID,
		}).Error("MarkSeen redis err")
		return false, err
	}

	return first, nil
}
