package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RiskLevel
		wantErr bool
	}{
		{"Low", "low", RiskLow, false},
		{"Medium", "medium", RiskMedium, false},
		{"High", "high", RiskHigh, false},
		{"Upper case", "HIGH", RiskHigh, false},
		{"Surrounding whitespace", " medium ", RiskMedium, false},
		{"Empty", "", "", true},
		{"Unknown", "severe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRiskLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRiskLevelValid(t *testing.T) {
	assert.True(t, RiskLow.Valid())
	assert.True(t, RiskMedium.Valid())
	assert.True(t, RiskHigh.Valid())
	assert.False(t, RiskLevel("unknown").Valid())
	assert.False(t, RiskLevel("").Valid())
}

func TestFlagBool(t *testing.T) {
	assert.True(t, FlagYes.Bool())
	assert.False(t, FlagNo.Bool())
	assert.False(t, Flag("").Bool())
}

func TestHealthRecordBMI(t *testing.T) {
	rec := &HealthRecord{Height: 175, Weight: 70}
	assert.InDelta(t, 22.857, rec.BMI(), 0.001)

	rec = &HealthRecord{Height: 160, Weight: 80}
	assert.InDelta(t, 31.25, rec.BMI(), 0.001)
}
