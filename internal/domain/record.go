package domain

import (
	"fmt"
	"strings"
)

// RiskLevel is the three-level cardiovascular risk taxonomy returned by the
// prediction service.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ParseRiskLevel parses a risk level string from the prediction service.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	default:
		return "", fmt.Errorf("unknown risk level: %q", s)
	}
}

// String returns the wire representation of the risk level.
func (r RiskLevel) String() string {
	return string(r)
}

// Valid reports whether the risk level is one of the three known values.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Sex is the patient sex as accepted by the prediction service.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Flag is a yes/no categorical field (smoking, diabetes, family history).
type Flag string

const (
	FlagYes Flag = "yes"
	FlagNo  Flag = "no"
)

// Bool reports whether the flag is set.
func (f Flag) Bool() bool {
	return f == FlagYes
}

// ActivityLevel is the self-reported physical activity level.
type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

// HealthRecord is one individual's intake record, coerced from form or CSV
// input. JSON field names mirror the prediction service's request schema.
type HealthRecord struct {
	Age                    int           `json:"age"`
	Sex                    Sex           `json:"sex"`
	Height                 float64       `json:"height"`
	Weight                 float64       `json:"weight"`
	Systolic               int           `json:"systolic"`
	Diastolic              int           `json:"diastolic"`
	TotalCholesterol       float64       `json:"total_cholesterol"`
	HDL                    float64       `json:"hdl"`
	FastingBloodSugar      float64       `json:"fasting_blood_sugar"`
	Smoking                Flag          `json:"smoking"`
	Diabetes               Flag          `json:"diabetes"`
	FamilyHistory          Flag          `json:"family_history"`
	PhysicalActivity       ActivityLevel `json:"physical_activity"`
	AbdominalCircumference float64       `json:"abdominal_circumference"`
}

// BMI returns weight / (height/100)^2 for a validated record. Height is
// guaranteed positive by intake validation.
func (h *HealthRecord) BMI() float64 {
	m := h.Height / 100
	return h.Weight / (m * m)
}
