// Package session implements the transient handoff store between the intake
// and presentation flows. It replaces the browser-local storage of the
// original product: one writer produces an entry under a token, one reader
// consumes it, and entries expire rather than persist.
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

// Key prefixes for the store namespaces.
const (
	prefixResult   = "cardio:result:"
	prefixPatients = "cardio:patients:"
	prefixUpload   = "cardio:upload:"
	prefixBusy     = "cardio:busy:"
)

// busyTTL bounds how long an in-flight submission marker can block retries
// if a submission never settles.
const busyTTL = 90 * time.Second

// Store is the transient handoff store. Get methods report absence via the
// boolean, not an error; absence is an expected navigation outcome.
type Store interface {
	SavePrediction(ctx context.Context, token string, result *domain.PredictionResult) error
	GetPrediction(ctx context.Context, token string) (*domain.PredictionResult, bool, error)

	SavePatients(ctx context.Context, token string, patients []domain.PatientRecord) error
	GetPatients(ctx context.Context, token string) ([]domain.PatientRecord, bool, error)

	SaveUpload(ctx context.Context, upload *domain.Upload) error
	GetUpload(ctx context.Context, token string) (*domain.Upload, bool, error)

	// BeginSubmission acquires the per-key in-flight marker. It returns
	// false when a submission for the key is already outstanding.
	BeginSubmission(ctx context.Context, key string) (bool, error)
	EndSubmission(ctx context.Context, key string) error

	Close() error
}

// envelope wraps every stored value with its cache metadata, mirroring the
// wire format used for Redis so both implementations age entries the same
// way.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func wrap(v interface{}, ttl time.Duration) (*envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &envelope{
		Data:      data,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func (e *envelope) expired() bool {
	return time.Now().After(e.ExpiresAt)
}
