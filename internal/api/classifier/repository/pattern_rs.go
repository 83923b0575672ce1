package classifierRepository

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"LedgerBot/internal/api/classifier"
	"LedgerBot/internal/entity"
	contextPkg "LedgerBot/pkg/context"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// patternRepository keeps learned patterns in a single Redis hash keyed by
// template. One hash keeps the whole set enumerable for the admin surface.
type patternRepository struct {
	client *redis.Client
	log    *logrus.Logger
}

func (r *patternRepository) GetPattern(c context.Context, template string) (entity.LearnedPattern, error) {
	requestID := contextPkg.GetRequestID(c)

	raw, err := r.client.HGet(c, patternHashKey, template).Result()
	if errors.Is(err, redis.Nil) {
		return entity.LearnedPattern{}, classifier.ErrPatternNotFound
	}
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"template":   template,
		}).Error("GetPattern redis err")
		return entity.LearnedPattern{}, err
	}

	var pattern entity.LearnedPattern
	if err := json.Unmarshal([]byte(raw), &pattern); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"template":   template,
		}).Error("GetPattern unmarshal err")
		return entity.LearnedPattern{}, err
	}

	return pattern, nil
}

func (r *patternRepository) ListPatterns(c context.Context) ([]entity.LearnedPattern, error) {
	requestID := contextPkg.GetRequestID(c)

	raw, err := r.client.HGetAll(c, patternHashKey).Result()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListPatterns redis err")
		return nil, err
	}

	patterns := make([]entity.LearnedPattern, 0, len(raw))
	for template, value := range raw {
		var pattern entity.LearnedPattern
		if err := json.Unmarshal([]byte(value), &pattern); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
				"template":   template,
			}).Warn("ListPatterns skipping corrupt pattern record")
			continue
		}
		patterns = append(patterns, pattern)
	}

	return patterns, nil
}

func (r *patternRepository) SavePattern(c context.Context, pattern entity.LearnedPattern) error {
	requestID := contextPkg.GetRequestID(c)

	raw, err := json.Marshal(pattern)
	if err != nil {
		return err
	}

	if err := r.client.HSet(c, patternHashKey, pattern.Template, string(raw)).Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"template":   pattern.Template,
		}).Error("SavePattern redis err")
		return err
	}

	return nil
}

func (r *patternRepository) PurgePatterns(c context.Context) error {
	requestID := contextPkg.GetRequestID(c)

	if err := r.client.Del(c, patternHashKey).Err(); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("PurgePatterns redis err")
		return err
	}

	return nil
}

func (r *patternRepository) CountPatterns(c context.Context) (int64, error) {
	return r.client.HLen(c, patternHashKey).Result()
}
