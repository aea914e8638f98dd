package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"yt-notify/internal/channel"
	"yt-notify/internal/domain"
	"yt-notify/pkg/redis"
)

// RedisStatsService stores channel counters in a Redis hash and caches the
// latest content of each channel
type RedisStatsService struct {
	redis  *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(redisClient *redis.Client, logger *zap.Logger) *RedisStatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStatsService{
		redis:  redisClient,
		logger: logger,
		now:    time.Now,
	}
}

// OnPublish counts the publication and caches it as the channel's latest content
func (s *RedisStatsService) OnPublish(ctx context.Context, pub domain.Publication) error {
	payload, err := json.Marshal(pub.Content)
	if err != nil {
		return fmt.Errorf("marshal latest content: %w", err)
	}

	kb := s.redis.KeyBuilder
	statsKey := kb.KeyChannelStats(pub.Channel)

	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, statsKey, redis.FieldPublished, 1)
	pipe.HSet(ctx, statsKey, redis.FieldLastUpdated, s.now().UTC().Format(time.RFC3339))
	pipe.Expire(ctx, statsKey, redis.TTLChannelStats)
	pipe.Set(ctx, kb.KeyChannelLatest(pub.Channel), payload, redis.TTLChannelLatest)
	pipe.SAdd(ctx, kb.KeyChannelsKnown(), pub.Channel)

	if err := s.redis.Exec(ctx, pipe); err != nil {
		s.logger.Warn("Failed to record publication",
			zap.String("channel", pub.Channel),
			zap.Int("seq", pub.Seq),
			zap.Error(err))
		return fmt.Errorf("record publication: %w", err)
	}

	return nil
}

// RecordRound adds delivered and failed counts; skipped rounds bump the skipped counter
func (s *RedisStatsService) RecordRound(ctx context.Context, channelName string, result channel.Result) error {
	statsKey := s.redis.KeyBuilder.KeyChannelStats(channelName)

	pipe := s.redis.Pipeline()
	if result.Skipped() {
		pipe.HIncrBy(ctx, statsKey, redis.FieldSkipped, 1)
	} else {
		pipe.HIncrBy(ctx, statsKey, redis.FieldDelivered, int64(result.Delivered))
		pipe.HIncrBy(ctx, statsKey, redis.FieldFailed, int64(result.Failed))
	}
	pipe.HSet(ctx, statsKey, redis.FieldLastUpdated, s.now().UTC().Format(time.RFC3339))
	pipe.Expire(ctx, statsKey, redis.TTLChannelStats)

	if err := s.redis.Exec(ctx, pipe); err != nil {
		s.logger.Warn("Failed to record notification round",
			zap.String("channel", channelName),
			zap.String("status", result.Status.String()),
			zap.Error(err))
		return fmt.Errorf("record round: %w", err)
	}

	return nil
}

// GetStats reads the counters and the cached latest content
func (s *RedisStatsService) GetStats(ctx context.Context, channelName string) (*domain.ChannelStats, error) {
	kb := s.redis.KeyBuilder

	fields, err := s.redis.HGetAll(ctx, kb.KeyChannelStats(channelName))
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}

	stats := &domain.ChannelStats{
		Channel:   channelName,
		Published: parseCounter(fields[redis.FieldPublished]),
		Delivered: parseCounter(fields[redis.FieldDelivered]),
		Failed:    parseCounter(fields[redis.FieldFailed]),
		Skipped:   parseCounter(fields[redis.FieldSkipped]),
	}
	if ts, err := time.Parse(time.RFC3339, fields[redis.FieldLastUpdated]); err == nil {
		stats.LastUpdated = ts
	}

	cached, err := s.redis.Get(ctx, kb.KeyChannelLatest(channelName))
	switch {
	case err == nil:
		var latest domain.Content
		if jsonErr := json.Unmarshal([]byte(cached), &latest); jsonErr == nil {
			stats.Latest = &latest
		} else {
			s.logger.Warn("Latest content cache corrupted",
				zap.String("channel", channelName),
				zap.Error(jsonErr))
		}
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("Latest content cache error",
			zap.String("channel", channelName),
			zap.Error(err))
	}

	return stats, nil
}

func parseCounter(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
