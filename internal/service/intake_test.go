package service

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests
	return logger
}

func validRaw() map[string]string {
	return map[string]string{
		"age":                     "55",
		"sex":                     "male",
		"height":                  "175",
		"weight":                  "82",
		"systolic":                "140",
		"diastolic":               "90",
		"total_cholesterol":       "235",
		"hdl":                     "38",
		"fasting_blood_sugar":     "118",
		"smoking":                 "yes",
		"diabetes":                "no",
		"family_history":          "yes",
		"physical_activity":       "low",
		"abdominal_circumference": "102",
	}
}

func TestIntakeService_ParseRecord(t *testing.T) {
	svc := NewIntakeService(testLogger())

	rec, errs := svc.ParseRecord(validRaw())
	require.Empty(t, errs)
	require.NotNil(t, rec)
	assert.Equal(t, 55, rec.Age)
	assert.Equal(t, domain.SexMale, rec.Sex)
	assert.Equal(t, 175.0, rec.Height)
	assert.Equal(t, domain.FlagYes, rec.Smoking)
	assert.Equal(t, domain.ActivityLow, rec.PhysicalActivity)
	assert.Equal(t, 235.0, rec.TotalCholesterol)
}

func TestIntakeService_ParseRecordRejections(t *testing.T) {
	svc := NewIntakeService(testLogger())

	tests := []struct {
		name  string
		field string
		value string
	}{
		{"Age below range", "age", "0"},
		{"Age above range", "age", "121"},
		{"Age not a number", "age", "fifty"},
		{"Height below range", "height", "30"},
		{"Weight above range", "weight", "400"},
		{"Systolic below range", "systolic", "60"},
		{"Diastolic above range", "diastolic", "180"},
		{"Cholesterol above range", "total_cholesterol", "900"},
		{"Sex unknown", "sex", "other"},
		{"Smoking unknown", "smoking", "sometimes"},
		{"Activity unknown", "physical_activity", "none"},
		{"Required field empty", "hdl", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw[tt.field] = tt.value

			rec, errs := svc.ParseRecord(raw)
			assert.Nil(t, rec)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestIntakeService_ParseRecordMissingField(t *testing.T) {
	svc := NewIntakeService(testLogger())

	raw := validRaw()
	delete(raw, "systolic")

	rec, errs := svc.ParseRecord(raw)
	assert.Nil(t, rec)
	require.Len(t, errs, 1)
	assert.Equal(t, "systolic", errs[0].Field)
	assert.Equal(t, "field is required", errs[0].Message)
}

func TestIntakeService_ParseRecordCollectsAllErrors(t *testing.T) {
	svc := NewIntakeService(testLogger())

	raw := validRaw()
	raw["age"] = "abc"
	raw["sex"] = "unknown"
	raw["weight"] = "1000"

	rec, errs := svc.ParseRecord(raw)
	assert.Nil(t, rec)
	assert.Len(t, errs, 3)
}

func TestIntakeService_DeriveBMI(t *testing.T) {
	svc := NewIntakeService(testLogger())

	tests := []struct {
		name     string
		height   string
		weight   string
		want     string
		withheld bool
	}{
		{"Typical values", "175", "70", "22.9", false},
		{"One decimal rounding", "180", "81", "25.0", false},
		{"Overweight", "160", "80", "31.2", false},
		{"Missing height", "", "70", "", true},
		{"Missing weight", "175", "", "", true},
		{"Non-numeric height", "tall", "70", "", true},
		{"Non-numeric weight", "175", "heavy", "", true},
		{"Zero height", "0", "70", "", true},
		{"Negative height", "-175", "70", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := svc.DeriveBMI(tt.height, tt.weight)
			if tt.withheld {
				assert.False(t, ok)
				assert.Empty(t, got)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
