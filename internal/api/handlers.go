package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
	"github.com/cardiopredict/cardiopredict-gateway/internal/service"
	"github.com/cardiopredict/cardiopredict-gateway/internal/session"
	"github.com/cardiopredict/cardiopredict-gateway/pkg/predictor"
)

// maxUploadBytes caps accepted batch files.
const maxUploadBytes = 5 << 20

// errorDisplayLimit is how many validation errors a response carries; the
// rest are reported as a remaining count.
const errorDisplayLimit = 5

// Redirect targets for flows entered without their session state.
const (
	assessPath = "/predict"
	uploadPath = "/hospital-upload"
)

// Predictor is the outbound prediction service surface the handlers need.
type Predictor interface {
	Predict(ctx context.Context, record *domain.HealthRecord) (*domain.PredictionResult, error)
	PredictBatch(ctx context.Context, filename string, content []byte) (*predictor.BatchResult, error)
}

// Handlers carries the request handlers and their dependencies.
type Handlers struct {
	logger      *logrus.Logger
	intake      *service.IntakeService
	recommender *service.RecommendationEngine
	dashboard   *service.DashboardService
	validator   *service.CSVValidator
	store       session.Store
	predictor   Predictor
}

// NewHandlers wires the handler set.
func NewHandlers(
	logger *logrus.Logger,
	intake *service.IntakeService,
	recommender *service.RecommendationEngine,
	dashboard *service.DashboardService,
	validator *service.CSVValidator,
	store session.Store,
	pred Predictor,
) *Handlers {
	return &Handlers{
		logger:      logger,
		intake:      intake,
		recommender: recommender,
		dashboard:   dashboard,
		validator:   validator,
		store:       store,
		predictor:   pred,
	}
}

// HandleHealth handles health check requests
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
	})
}

// HandleAssess validates a single intake form, scores it against the
// prediction service and stores the result under a fresh token.
func (h *Handlers) HandleAssess(c *gin.Context) {
	var raw map[string]string
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "request body must be a JSON object of form fields", err.Error())
		return
	}

	record, fieldErrs := h.intake.ParseRecord(raw)
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  h.gatewayError(c, domain.ErrValidation, "one or more fields failed validation", ""),
			"fields": fieldErrs,
		})
		return
	}

	key := "assess:" + h.clientKey(c)
	acquired, err := h.store.BeginSubmission(c.Request.Context(), key)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to check submission state", err.Error())
		return
	}
	if !acquired {
		h.respondError(c, http.StatusConflict, domain.ErrBusy, "an assessment is already being processed for this client", "")
		return
	}
	defer h.store.EndSubmission(c.Request.Context(), key)

	result, err := h.predictor.Predict(c.Request.Context(), record)
	if err != nil {
		h.upstreamFailure(c, err)
		return
	}

	token := uuid.NewString()
	if err := h.store.SavePrediction(c.Request.Context(), token, result); err != nil {
		h.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to store assessment result", err.Error())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"token":      token,
		"risk_level": result.RiskLevel.String(),
	}).Info("Assessment completed")

	c.JSON(http.StatusOK, gin.H{
		"token":               token,
		"risk_level":          result.RiskLevel,
		"probability_percent": service.ProbabilityPercent(result.Probability),
	})
}

// HandleResults renders the stored assessment for a token. A missing or
// expired token redirects back to the intake flow.
func (h *Handlers) HandleResults(c *gin.Context) {
	token := c.Param("token")

	result, ok, err := h.store.GetPrediction(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to load assessment result", err.Error())
		return
	}
	if !ok {
		c.Redirect(http.StatusSeeOther, assessPath)
		return
	}

	display := service.DisplayForRisk(result.RiskLevel)
	groups := h.recommender.Evaluate(&result.SourceRecord, result.RiskLevel)

	c.JSON(http.StatusOK, gin.H{
		"risk_level":          result.RiskLevel,
		"display":             display,
		"probability_percent": service.ProbabilityPercent(result.Probability),
		"bmi":                 strconv.FormatFloat(result.SourceRecord.BMI(), 'f', 1, 64),
		"recommendations":     groups,
		"record":              result.SourceRecord,
	})
}

// HandleBMI computes the live BMI readout for the intake form.
func (h *Handlers) HandleBMI(c *gin.Context) {
	var req struct {
		Height string `json:"height"`
		Weight string `json:"weight"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "request body must contain height and weight", err.Error())
		return
	}

	bmi, ok := h.intake.DeriveBMI(req.Height, req.Weight)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"available": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "bmi": bmi})
}

// HandleBatchValidate accepts a CSV upload, checks it row by row and stores
// it with its validation outcome for a later submit.
func (h *Handlers) HandleBatchValidate(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.respondError(c, http.StatusBadRequest, domain.ErrFileRejected, "request must contain a file field", err.Error())
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" {
		h.respondError(c, http.StatusBadRequest, domain.ErrFileRejected, "only .csv files are accepted", header.Filename)
		return
	}
	if header.Size > maxUploadBytes {
		h.respondError(c, http.StatusBadRequest, domain.ErrFileRejected, "file exceeds the maximum upload size", strconv.FormatInt(header.Size, 10))
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to read uploaded file", err.Error())
		return
	}
	if int64(len(content)) > maxUploadBytes {
		h.respondError(c, http.StatusBadRequest, domain.ErrFileRejected, "file exceeds the maximum upload size", "")
		return
	}

	validationErrs := h.validator.Validate(bytes.NewReader(content))

	upload := &domain.Upload{
		Token:     uuid.NewString(),
		Filename:  header.Filename,
		SizeBytes: int64(len(content)),
		Content:   content,
		Status:    domain.UploadValidated,
		Errors:    validationErrs,
		CreatedAt: time.Now(),
	}
	if len(validationErrs) > 0 {
		upload.Status = domain.UploadErrored
	}

	if err := h.store.SaveUpload(c.Request.Context(), upload); err != nil {
		h.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to store upload", err.Error())
		return
	}

	shown, remaining := service.TruncateErrors(validationErrs, errorDisplayLimit)

	h.logger.WithFields(logrus.Fields{
		"token":    upload.Token,
		"filename": upload.Filename,
		"status":   upload.Status,
		"errors":   len(validationErrs),
	}).Info("Batch file validated")

	c.JSON(http.StatusOK, gin.H{
		"token":            upload.Token,
		"filename":         upload.Filename,
		"size_bytes":       upload.SizeBytes,
		"status":           upload.Status,
		"errors":           shown,
		"remaining_errors": remaining,
	})
}

// HandleBatchSubmit forwards a previously validated upload to the prediction
// service and stores the scored patients under a dashboard token.
func (h *Handlers) HandleBatchSubmit(c *gin.Context) {
	token := c.Param("token")

	upload, ok, err := h.store.GetUpload(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to load upload", err.Error())
		return
	}
	if !ok {
		c.Redirect(http.StatusSeeOther, uploadPath)
		return
	}
	if upload.Status != domain.UploadValidated {
		h.respondError(c, http.StatusConflict, domain.ErrValidation, "upload has not passed validation", string(upload.Status))
		return
	}

	key := "batch:" + token
	acquired, err := h.store.BeginSubmission(c.Request.Context(), key)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to check submission state", err.Error())
		return
	}
	if !acquired {
		h.respondError(c, http.StatusConflict, domain.ErrBusy, "this upload is already being processed", "")
		return
	}
	// The batch run must settle even if the caller disconnects mid-flight,
	// so the scoring call and the result save are detached from request
	// cancellation.
	ctx := context.WithoutCancel(c.Request.Context())
	defer h.store.EndSubmission(ctx, key)

	result, err := h.predictor.PredictBatch(ctx, upload.Filename, upload.Content)
	if err != nil {
		h.upstreamFailure(c, err)
		return
	}

	dashboardToken := uuid.NewString()
	if err := h.store.SavePatients(ctx, dashboardToken, result.Patients); err != nil {
		h.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to store batch results", err.Error())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"upload_token":    token,
		"dashboard_token": dashboardToken,
		"total_patients":  result.TotalPatients,
		"processed":       result.Processed,
		"failed":          result.Failed,
	}).Info("Batch submission completed")

	c.JSON(http.StatusOK, gin.H{
		"dashboard_token": dashboardToken,
		"total_patients":  result.TotalPatients,
		"processed":       result.Processed,
		"failed":          result.Failed,
	})
}

// HandleDashboard returns the aggregated view of a batch run, optionally
// filtered to one risk level via the risk query parameter.
func (h *Handlers) HandleDashboard(c *gin.Context) {
	token := c.Param("token")

	patients, ok, err := h.store.GetPatients(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to load batch results", err.Error())
		return
	}
	if !ok {
		c.Redirect(http.StatusSeeOther, uploadPath)
		return
	}

	filter := c.DefaultQuery("risk", service.FilterAll)
	filtered, err := h.dashboard.Filter(patients, filter)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "invalid risk filter", filter)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":    h.dashboard.Stats(patients),
		"filter":   filter,
		"patients": filtered,
	})
}

// HandleDashboardExport streams the (optionally filtered) batch results as a
// dated CSV attachment.
func (h *Handlers) HandleDashboardExport(c *gin.Context) {
	token := c.Param("token")

	patients, ok, err := h.store.GetPatients(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "failed to load batch results", err.Error())
		return
	}
	if !ok {
		c.Redirect(http.StatusSeeOther, uploadPath)
		return
	}

	filter := c.DefaultQuery("risk", service.FilterAll)
	filtered, err := h.dashboard.Filter(patients, filter)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "invalid risk filter", filter)
		return
	}

	filename := h.dashboard.ExportFilename(time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(h.dashboard.ExportCSV(filtered)))
}

// HandleTemplate serves the downloadable intake template CSV.
func (h *Handlers) HandleTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="`+service.SampleCSVFilename+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(service.SampleCSV))
}

// clientKey identifies the submitting client for the in-flight gate.
func (h *Handlers) clientKey(c *gin.Context) string {
	if token := c.GetHeader("X-Client-Token"); token != "" {
		return token
	}
	return c.ClientIP()
}

func (h *Handlers) upstreamFailure(c *gin.Context, err error) {
	message := "prediction service request failed"
	if errors.Is(err, predictor.ErrUnavailable) {
		message = "prediction service is unavailable"
	}
	h.logger.WithError(err).Warn("Prediction service call failed")
	h.respondError(c, http.StatusBadGateway, domain.ErrUpstream, message, err.Error())
}

func (h *Handlers) gatewayError(c *gin.Context, code, message, details string) *domain.GatewayError {
	return domain.NewGatewayError(code, message, details, c.GetString("request_id"))
}

func (h *Handlers) respondError(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, gin.H{"error": h.gatewayError(c, code, message, details)})
}
