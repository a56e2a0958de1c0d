package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

// MemoryStore is the single-instance fallback when no Redis URL is
// configured. Entries are bounded by an LRU cache and aged by the envelope
// expiry, so semantics match the Redis store apart from cross-instance
// visibility.
type MemoryStore struct {
	cache  *lru.Cache
	ttl    time.Duration
	logger *logrus.Logger

	mu   sync.Mutex
	busy map[string]time.Time
}

// NewMemoryStore builds an in-process store with at most size entries.
func NewMemoryStore(size int, ttl time.Duration, logger *logrus.Logger) (*MemoryStore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"size": size,
		"ttl":  ttl.String(),
	}).Info("Using in-memory session store")

	return &MemoryStore{
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		busy:   make(map[string]time.Time),
	}, nil
}

func (s *MemoryStore) SavePrediction(ctx context.Context, token string, result *domain.PredictionResult) error {
	return s.set(prefixResult+token, result)
}

func (s *MemoryStore) GetPrediction(ctx context.Context, token string) (*domain.PredictionResult, bool, error) {
	var result domain.PredictionResult
	ok, err := s.get(prefixResult+token, &result)
	if err != nil || !ok {
		return nil, false, err
	}
	return &result, true, nil
}

func (s *MemoryStore) SavePatients(ctx context.Context, token string, patients []domain.PatientRecord) error {
	return s.set(prefixPatients+token, patients)
}

func (s *MemoryStore) GetPatients(ctx context.Context, token string) ([]domain.PatientRecord, bool, error) {
	var patients []domain.PatientRecord
	ok, err := s.get(prefixPatients+token, &patients)
	if err != nil || !ok {
		return nil, false, err
	}
	return patients, true, nil
}

func (s *MemoryStore) SaveUpload(ctx context.Context, upload *domain.Upload) error {
	return s.set(prefixUpload+upload.Token, upload)
}

func (s *MemoryStore) GetUpload(ctx context.Context, token string) (*domain.Upload, bool, error) {
	var upload domain.Upload
	ok, err := s.get(prefixUpload+token, &upload)
	if err != nil || !ok {
		return nil, false, err
	}
	return &upload, true, nil
}

func (s *MemoryStore) BeginSubmission(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline, ok := s.busy[key]; ok && time.Now().Before(deadline) {
		return false, nil
	}
	s.busy[key] = time.Now().Add(busyTTL)
	return true, nil
}

func (s *MemoryStore) EndSubmission(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, key)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) set(key string, v interface{}) error {
	env, err := wrap(v, s.ttl)
	if err != nil {
		return fmt.Errorf("failed to marshal session entry: %w", err)
	}
	s.cache.Add(key, env)
	return nil
}

func (s *MemoryStore) get(key string, out interface{}) (bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return false, nil
	}

	env, ok := v.(*envelope)
	if !ok {
		s.cache.Remove(key)
		return false, nil
	}

	if env.expired() {
		s.cache.Remove(key)
		return false, nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		s.logger.WithField("key", key).Warn("Deleting undecodable session entry")
		s.cache.Remove(key)
		return false, nil
	}

	return true, nil
}
