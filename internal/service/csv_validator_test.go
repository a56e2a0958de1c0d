package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

func newValidator() *CSVValidator {
	logger := testLogger()
	return NewCSVValidator(logger, NewIntakeService(logger))
}

func TestCSVValidator_SampleTemplatePasses(t *testing.T) {
	v := newValidator()
	errs := v.Validate(strings.NewReader(SampleCSV))
	assert.Empty(t, errs)
}

func TestCSVValidator_MissingColumns(t *testing.T) {
	v := newValidator()

	csv := "age,sex,height\n55,male,175"
	errs := v.Validate(strings.NewReader(csv))
	require.NotEmpty(t, errs)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		assert.Equal(t, 0, e.Row)
		assert.Equal(t, "missing required column", e.Message)
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "weight")
	assert.Contains(t, fields, "fasting_blood_sugar")
	assert.NotContains(t, fields, "age")
}

func TestCSVValidator_RowErrorsCarryRowNumbers(t *testing.T) {
	v := newValidator()

	header := strings.Join(RecordColumns, ",")
	good := "42,female,165,68,120,80,182,55,88,no,no,no,moderate,78"
	badAge := "500,female,165,68,120,80,182,55,88,no,no,no,moderate,78"
	badSmoking := "42,female,165,68,120,80,182,55,88,maybe,no,no,moderate,78"

	csv := strings.Join([]string{header, good, badAge, badSmoking}, "\n")
	errs := v.Validate(strings.NewReader(csv))
	require.Len(t, errs, 2)

	assert.Equal(t, 2, errs[0].Row)
	assert.Equal(t, "age", errs[0].Field)
	assert.Equal(t, 3, errs[1].Row)
	assert.Equal(t, "smoking", errs[1].Field)
}

func TestCSVValidator_RaggedRow(t *testing.T) {
	v := newValidator()

	header := strings.Join(RecordColumns, ",")
	short := "42,female,165"
	csv := header + "\n" + short

	errs := v.Validate(strings.NewReader(csv))
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Row)
	assert.Contains(t, errs[0].Message, "columns")
}

func TestCSVValidator_EmptyFile(t *testing.T) {
	v := newValidator()

	errs := v.Validate(strings.NewReader(""))
	require.Len(t, errs, 1)
	assert.Equal(t, "file is empty", errs[0].Message)
}

func TestCSVValidator_HeaderOnly(t *testing.T) {
	v := newValidator()

	errs := v.Validate(strings.NewReader(strings.Join(RecordColumns, ",")))
	require.Len(t, errs, 1)
	assert.Equal(t, "file contains no patient rows", errs[0].Message)
}

func TestTruncateErrors(t *testing.T) {
	errs := make([]domain.ValidationError, 8)
	for i := range errs {
		errs[i] = domain.ValidationError{Row: i + 1, Field: "age", Message: "bad"}
	}

	shown, remaining := TruncateErrors(errs, 5)
	assert.Len(t, shown, 5)
	assert.Equal(t, 3, remaining)
	assert.Equal(t, 1, shown[0].Row)

	shown, remaining = TruncateErrors(errs[:3], 5)
	assert.Len(t, shown, 3)
	assert.Equal(t, 0, remaining)
}
