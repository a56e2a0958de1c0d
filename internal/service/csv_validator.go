package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

// CSVValidator performs the superficial pre-submission pass over an uploaded
// batch file: the header must carry the canonical columns and every row must
// pass the same coercion and range checks as the individual form.
type CSVValidator struct {
	logger *logrus.Logger
	intake *IntakeService
}

// NewCSVValidator creates a new CSV validator
func NewCSVValidator(logger *logrus.Logger, intake *IntakeService) *CSVValidator {
	return &CSVValidator{logger: logger, intake: intake}
}

// Validate checks an uploaded CSV and returns the full error list. An empty
// list means the file may proceed to submission. Header errors use row 0;
// data rows are numbered from 1.
func (v *CSVValidator) Validate(r io.Reader) []domain.ValidationError {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return []domain.ValidationError{{Row: 0, Field: "", Message: fmt.Sprintf("file is not valid CSV: %v", err)}}
	}
	if len(rows) == 0 {
		return []domain.ValidationError{{Row: 0, Field: "", Message: "file is empty"}}
	}

	header := rows[0]
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var errs []domain.ValidationError
	for _, col := range RecordColumns {
		if _, ok := index[col]; !ok {
			errs = append(errs, domain.ValidationError{Row: 0, Field: col, Message: "missing required column"})
		}
	}
	if len(errs) > 0 {
		// Rows cannot be mapped without the full header.
		return errs
	}

	if len(rows) == 1 {
		return []domain.ValidationError{{Row: 0, Field: "", Message: "file contains no patient rows"}}
	}

	for i, row := range rows[1:] {
		rowNum := i + 1
		if len(row) != len(header) {
			errs = append(errs, domain.ValidationError{
				Row:     rowNum,
				Field:   "",
				Message: fmt.Sprintf("expected %d columns, got %d", len(header), len(row)),
			})
			continue
		}

		raw := make(map[string]string, len(RecordColumns))
		for _, col := range RecordColumns {
			raw[col] = row[index[col]]
		}

		if _, fieldErrs := v.intake.ParseRecord(raw); len(fieldErrs) > 0 {
			for _, fe := range fieldErrs {
				errs = append(errs, domain.ValidationError{Row: rowNum, Field: fe.Field, Message: fe.Message})
			}
		}
	}

	v.logger.WithFields(logrus.Fields{
		"rows":   len(rows) - 1,
		"errors": len(errs),
	}).Info("Completed CSV validation pass")

	return errs
}

// TruncateErrors returns the first limit errors plus the count of the
// remainder, for bounded display.
func TruncateErrors(errs []domain.ValidationError, limit int) ([]domain.ValidationError, int) {
	if len(errs) <= limit {
		return errs, 0
	}
	return errs[:limit], len(errs) - limit
}
