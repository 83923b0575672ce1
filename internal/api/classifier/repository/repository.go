package classifierRepository

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"LedgerBot/internal/entity"
)

const (
	patternHashKey   = "classifier:patterns"
	sessionKeyPrefix = "classifier:session:"
	dedupKeyPrefix   = "classifier:dedup:"
)

func New(client *redis.Client, log *logrus.Logger) Repository {
	return &repository{
		client: client,
		log:    log,
	}
}

type repository struct {
	client *redis.Client
	log    *logrus.Logger
}

type Repository interface {
	NewClient() (Client, error)
}

func (r *repository) NewClient() (Client, error) {
	return Client{
		Pattern: &patternRepository{client: r.client, log: r.log},
		Session: &sessionRepository{client: r.client, log: r.log},
		Dedup:   &dedupRepository{client: r.client, log: r.log},
	}, nil
}

type Client struct {
	Pattern interface {
		GetPattern(c context.Context, template string) (entity.LearnedPattern, error)
		ListPatterns(c context.Context) ([]entity.LearnedPattern, error)
		SavePattern(c context.Context, pattern entity.LearnedPattern) error
		PurgePatterns(c context.Context) error
		CountPatterns(c context.Context) (int64, error)
	}

	Session interface {
		GetSession(c context.Context, key string) (entity.PendingSession, error)
		SaveSession(c context.Context, session entity.PendingSession) error
		DeleteSession(c context.Context, key string) error
		SetPromptMessageID(c context.Context, key string, messageID string) error
		CountSessions(c context.Context) (int64, error)
	}

	Dedup interface {
		MarkSeen(c context.Context, messageID string, window time.Duration) (bool, error)
	}
}
