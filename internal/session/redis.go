package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

// RedisStore keeps session state in Redis so multiple gateway instances can
// serve the same user flow.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisStore connects to Redis using the configured URL and verifies the
// connection before returning.
func NewRedisStore(cfg domain.SessionConfig, logger *logrus.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.MaxRetries = cfg.MaxRetries
	opts.PoolSize = cfg.PoolSize
	opts.PoolTimeout = cfg.PoolTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"addr":      opts.Addr,
		"pool_size": opts.PoolSize,
		"ttl":       cfg.TTL.String(),
	}).Info("Connected to Redis session store")

	return &RedisStore{
		client: client,
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

func (s *RedisStore) SavePrediction(ctx context.Context, token string, result *domain.PredictionResult) error {
	return s.set(ctx, prefixResult+token, result)
}

func (s *RedisStore) GetPrediction(ctx context.Context, token string) (*domain.PredictionResult, bool, error) {
	var result domain.PredictionResult
	ok, err := s.get(ctx, prefixResult+token, &result)
	if err != nil || !ok {
		return nil, false, err
	}
	return &result, true, nil
}

func (s *RedisStore) SavePatients(ctx context.Context, token string, patients []domain.PatientRecord) error {
	return s.set(ctx, prefixPatients+token, patients)
}

func (s *RedisStore) GetPatients(ctx context.Context, token string) ([]domain.PatientRecord, bool, error) {
	var patients []domain.PatientRecord
	ok, err := s.get(ctx, prefixPatients+token, &patients)
	if err != nil || !ok {
		return nil, false, err
	}
	return patients, true, nil
}

func (s *RedisStore) SaveUpload(ctx context.Context, upload *domain.Upload) error {
	return s.set(ctx, prefixUpload+upload.Token, upload)
}

func (s *RedisStore) GetUpload(ctx context.Context, token string) (*domain.Upload, bool, error) {
	var upload domain.Upload
	ok, err := s.get(ctx, prefixUpload+token, &upload)
	if err != nil || !ok {
		return nil, false, err
	}
	return &upload, true, nil
}

func (s *RedisStore) BeginSubmission(ctx context.Context, key string) (bool, error) {
	acquired, err := s.client.SetNX(ctx, prefixBusy+key, time.Now().Format(time.RFC3339), busyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire submission marker: %w", err)
	}
	return acquired, nil
}

func (s *RedisStore) EndSubmission(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, prefixBusy+key).Err(); err != nil {
		return fmt.Errorf("failed to release submission marker: %w", err)
	}
	return nil
}

// Close closes the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) set(ctx context.Context, key string, v interface{}) error {
	env, err := wrap(v, s.ttl)
	if err != nil {
		return fmt.Errorf("failed to marshal session entry: %w", err)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal session envelope: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session entry: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"key": key,
		"ttl": s.ttl.String(),
	}).Debug("Stored session entry")

	return nil
}

func (s *RedisStore) get(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session entry: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Corrupted entries are deleted and treated as absent.
		s.logger.WithField("key", key).Warn("Deleting corrupted session entry")
		s.client.Del(ctx, key)
		return false, nil
	}

	if env.expired() {
		s.client.Del(ctx, key)
		return false, nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		s.logger.WithField("key", key).Warn("Deleting undecodable session entry")
		s.client.Del(ctx, key)
		return false, nil
	}

	return true, nil
}
