// Package predictor is the outbound client for the external CardioPredict
// scoring service.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

// ErrUnavailable is returned when the circuit breaker is open. It is still
// terminal for the attempt: the gateway never retries on the caller's behalf.
var ErrUnavailable = errors.New("prediction service unavailable")

// Config represents configuration for the prediction service client
type Config struct {
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit int           `json:"rate_limit"` // requests per second
}

// Client issues single and batch prediction requests. All failures are hard:
// a non-success status, a malformed body or an open breaker abort the flow
// with no retry and no partial acceptance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewClient creates a new prediction service client
func NewClient(config Config, logger *logrus.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:5000"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CardioPredict",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:   breaker,
		logger:    logger,
	}
}

type predictionPayload struct {
	RiskLevel   string  `json:"risk_level"`
	Probability float64 `json:"probability"`
	RiskScore   int     `json:"risk_score"`
}

type predictResponse struct {
	Success    bool              `json:"success"`
	Prediction predictionPayload `json:"prediction"`
	Error      string            `json:"error"`
}

type batchRow struct {
	PatientID   string  `json:"patient_id"`
	Age         int     `json:"age"`
	Gender      string  `json:"gender"`
	RiskLevel   string  `json:"risk_level"`
	Probability float64 `json:"probability"`
	RiskScore   int     `json:"risk_score"`
}

type batchResponse struct {
	Success       bool       `json:"success"`
	TotalPatients int        `json:"total_patients"`
	Processed     int        `json:"processed"`
	Errors        int        `json:"errors"`
	Results       []batchRow `json:"results"`
	Error         string     `json:"error"`
}

// BatchResult is the parsed outcome of a batch prediction.
type BatchResult struct {
	TotalPatients int                    `json:"total_patients"`
	Processed     int                    `json:"processed"`
	Failed        int                    `json:"failed"`
	Patients      []domain.PatientRecord `json:"patients"`
}

// Predict scores one health record via POST /predict.
func (c *Client) Predict(ctx context.Context, record *domain.HealthRecord) (*domain.PredictionResult, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	raw, err := c.execute(ctx, "/predict", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var resp predictResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed prediction response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("prediction rejected: %s", resp.Error)
	}

	risk, err := domain.ParseRiskLevel(resp.Prediction.RiskLevel)
	if err != nil {
		return nil, fmt.Errorf("malformed prediction response: %w", err)
	}
	if resp.Prediction.Probability < 0 || resp.Prediction.Probability > 1 {
		return nil, fmt.Errorf("malformed prediction response: probability %v out of range", resp.Prediction.Probability)
	}

	c.logger.WithFields(logrus.Fields{
		"risk_level":  risk.String(),
		"probability": resp.Prediction.Probability,
	}).Info("Received prediction")

	return &domain.PredictionResult{
		RiskLevel:    risk,
		Probability:  resp.Prediction.Probability,
		RiskScore:    resp.Prediction.RiskScore,
		SourceRecord: *record,
	}, nil
}

// PredictBatch scores an uploaded CSV via multipart POST /predict-csv.
func (c *Client) PredictBatch(ctx context.Context, filename string, content []byte) (*BatchResult, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}

	raw, err := c.execute(ctx, "/predict-csv", writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var resp batchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed batch response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("batch prediction rejected: %s", resp.Error)
	}

	patients := make([]domain.PatientRecord, 0, len(resp.Results))
	for _, row := range resp.Results {
		risk, err := domain.ParseRiskLevel(row.RiskLevel)
		if err != nil {
			return nil, fmt.Errorf("malformed batch response: %w", err)
		}
		if row.Probability < 0 || row.Probability > 1 {
			return nil, fmt.Errorf("malformed batch response: probability %v out of range", row.Probability)
		}
		patients = append(patients, domain.PatientRecord{
			ID:          row.PatientID,
			Age:         row.Age,
			Gender:      row.Gender,
			RiskLevel:   risk,
			Probability: row.Probability,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"total":     resp.TotalPatients,
		"processed": resp.Processed,
		"failed":    resp.Errors,
	}).Info("Received batch prediction")

	return &BatchResult{
		TotalPatients: resp.TotalPatients,
		Processed:     resp.Processed,
		Failed:        resp.Errors,
		Patients:      patients,
	}, nil
}

// execute issues one POST through the circuit breaker and returns the raw
// response body of a 2xx response.
func (c *Client) execute(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("prediction service returned status %d: %s", resp.StatusCode, upstreamError(raw))
		}
		return raw, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
		}
		return nil, err
	}

	return result.([]byte), nil
}

// upstreamError extracts the service's error message from a failure body,
// falling back to the raw text.
func upstreamError(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return string(raw)
}
