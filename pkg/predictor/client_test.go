package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func testRecord() *domain.HealthRecord {
	return &domain.HealthRecord{
		Age:                    55,
		Sex:                    domain.SexMale,
		Height:                 175,
		Weight:                 82,
		Systolic:               140,
		Diastolic:              90,
		TotalCholesterol:       235,
		HDL:                    38,
		FastingBloodSugar:      118,
		Smoking:                domain.FlagYes,
		Diabetes:               domain.FlagNo,
		FamilyHistory:          domain.FlagYes,
		PhysicalActivity:       domain.ActivityLow,
		AbdominalCircumference: 102,
	}
}

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url}, testLogger())
}

func TestClient_Predict(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"prediction": map[string]interface{}{
				"risk_level":  "medium",
				"probability": 0.45,
				"risk_score":  45,
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Predict(context.Background(), testRecord())
	require.NoError(t, err)

	assert.Equal(t, "/predict", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "male", gotBody["sex"])
	assert.Equal(t, float64(55), gotBody["age"])

	assert.Equal(t, domain.RiskMedium, result.RiskLevel)
	assert.Equal(t, 0.45, result.Probability)
	assert.Equal(t, 45, result.RiskScore)
	assert.Equal(t, *testRecord(), result.SourceRecord)
}

func TestClient_PredictUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model unavailable"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Predict(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestClient_PredictMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Predict(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed prediction response")
}

func TestClient_PredictUnknownRiskLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"prediction": map[string]interface{}{
				"risk_level":  "catastrophic",
				"probability": 0.9,
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Predict(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed prediction response")
}

func TestClient_PredictRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "Missing required field: age",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Predict(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required field")
}

func TestClient_PredictBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	for i := 0; i < 5; i++ {
		_, err := client.Predict(context.Background(), testRecord())
		require.Error(t, err)
	}

	// After enough consecutive failures the breaker trips and fails fast.
	_, err := client.Predict(context.Background(), testRecord())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_PredictBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict-csv", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "patients.csv", header.Filename)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"total_patients": 3,
			"processed":      2,
			"errors":         1,
			"results": []map[string]interface{}{
				{"patient_id": "P001", "age": 55, "gender": "male", "risk_level": "high", "probability": 0.78, "risk_score": 80},
				{"patient_id": "P002", "age": 42, "gender": "female", "risk_level": "low", "probability": 0.15, "risk_score": 15},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.PredictBatch(context.Background(), "patients.csv", []byte("age,sex\n55,male"))
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalPatients)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Patients, 2)
	assert.Equal(t, "P001", result.Patients[0].ID)
	assert.Equal(t, domain.RiskHigh, result.Patients[0].RiskLevel)
	assert.Equal(t, 0.15, result.Patients[1].Probability)
}

func TestClient_PredictBatchProbabilityOutOfRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"total_patients": 1,
			"processed":      1,
			"errors":         0,
			"results": []map[string]interface{}{
				{"patient_id": "P001", "age": 55, "gender": "male", "risk_level": "high", "probability": 78, "risk_score": 80},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.PredictBatch(context.Background(), "patients.csv", []byte("age,sex\n55,male"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestClient_PredictBatchRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "File must be a CSV",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.PredictBatch(context.Background(), "patients.csv", []byte("bogus"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File must be a CSV")
}
