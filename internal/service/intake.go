package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

// RecordColumns lists the canonical field names in submission order. The CSV
// header and the form payload both use these names.
var RecordColumns = []string{
	"age",
	"sex",
	"height",
	"weight",
	"systolic",
	"diastolic",
	"total_cholesterol",
	"hdl",
	"fasting_blood_sugar",
	"smoking",
	"diabetes",
	"family_history",
	"physical_activity",
	"abdominal_circumference",
}

// IntakeService coerces raw string fields into a validated HealthRecord and
// derives the BMI display value.
type IntakeService struct {
	logger *logrus.Logger
}

// NewIntakeService creates a new intake service
func NewIntakeService(logger *logrus.Logger) *IntakeService {
	return &IntakeService{logger: logger}
}

// ParseRecord coerces and range-checks every required field. All failing
// fields are reported so the caller can surface them together; a record is
// returned only when the error list is empty.
func (s *IntakeService) ParseRecord(raw map[string]string) (*domain.HealthRecord, []domain.FieldError) {
	var errs []domain.FieldError
	rec := &domain.HealthRecord{}

	rec.Age = s.intField(raw, "age", 1, 120, &errs)
	rec.Height = s.floatField(raw, "height", 50, 250, &errs)
	rec.Weight = s.floatField(raw, "weight", 20, 300, &errs)
	rec.Systolic = s.intField(raw, "systolic", 70, 250, &errs)
	rec.Diastolic = s.intField(raw, "diastolic", 40, 150, &errs)
	rec.TotalCholesterol = s.floatField(raw, "total_cholesterol", 80, 500, &errs)
	rec.HDL = s.floatField(raw, "hdl", 10, 150, &errs)
	rec.FastingBloodSugar = s.floatField(raw, "fasting_blood_sugar", 40, 500, &errs)
	rec.AbdominalCircumference = s.floatField(raw, "abdominal_circumference", 40, 200, &errs)

	rec.Sex = domain.Sex(s.enumField(raw, "sex", []string{"male", "female"}, &errs))
	rec.Smoking = domain.Flag(s.enumField(raw, "smoking", []string{"yes", "no"}, &errs))
	rec.Diabetes = domain.Flag(s.enumField(raw, "diabetes", []string{"yes", "no"}, &errs))
	rec.FamilyHistory = domain.Flag(s.enumField(raw, "family_history", []string{"yes", "no"}, &errs))
	rec.PhysicalActivity = domain.ActivityLevel(s.enumField(raw, "physical_activity", []string{"low", "moderate", "high"}, &errs))

	if len(errs) > 0 {
		s.logger.WithField("failed_fields", len(errs)).Debug("Record rejected by intake validation")
		return nil, errs
	}

	return rec, nil
}

// DeriveBMI computes the one-decimal BMI display value from raw form input.
// The value is withheld (ok=false) when either input is absent, non-numeric,
// or the height is not positive.
func (s *IntakeService) DeriveBMI(height, weight string) (string, bool) {
	h, err := strconv.ParseFloat(strings.TrimSpace(height), 64)
	if err != nil || h <= 0 {
		return "", false
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(weight), 64)
	if err != nil {
		return "", false
	}

	m := h / 100
	bmi := w / (m * m)
	return strconv.FormatFloat(bmi, 'f', 1, 64), true
}

func (s *IntakeService) intField(raw map[string]string, name string, min, max int, errs *[]domain.FieldError) int {
	value, ok := raw[name]
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		*errs = append(*errs, *domain.NewFieldError(name, "field is required", value))
		return 0
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, *domain.NewFieldError(name, "must be a whole number", value))
		return 0
	}
	if n < min || n > max {
		*errs = append(*errs, *domain.NewFieldError(name, fmt.Sprintf("must be between %d and %d", min, max), value))
		return 0
	}
	return n
}

func (s *IntakeService) floatField(raw map[string]string, name string, min, max float64, errs *[]domain.FieldError) float64 {
	value, ok := raw[name]
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		*errs = append(*errs, *domain.NewFieldError(name, "field is required", value))
		return 0
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, *domain.NewFieldError(name, "must be a number", value))
		return 0
	}
	if f < min || f > max {
		*errs = append(*errs, *domain.NewFieldError(name, fmt.Sprintf("must be between %g and %g", min, max), value))
		return 0
	}
	return f
}

func (s *IntakeService) enumField(raw map[string]string, name string, allowed []string, errs *[]domain.FieldError) string {
	value, ok := raw[name]
	value = strings.ToLower(strings.TrimSpace(value))
	if !ok || value == "" {
		*errs = append(*errs, *domain.NewFieldError(name, "field is required", value))
		return ""
	}

	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	*errs = append(*errs, *domain.NewFieldError(name, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")), value))
	return ""
}
