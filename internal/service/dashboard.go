package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

// FilterAll selects every patient regardless of risk level.
const FilterAll = "all"

// ExportHeader is the fixed header row of the dashboard CSV export.
const ExportHeader = "Patient ID,Age,Gender,Risk Level,Probability"

// RiskStats summarizes a patient collection in a single pass. Percentages
// are pre-formatted to one decimal, with "0" when the collection is empty.
type RiskStats struct {
	Total     int    `json:"total"`
	High      int    `json:"high"`
	Medium    int    `json:"medium"`
	Low       int    `json:"low"`
	HighPct   string `json:"high_pct"`
	MediumPct string `json:"medium_pct"`
	LowPct    string `json:"low_pct"`
}

// DashboardService aggregates, filters and exports scored patient records.
type DashboardService struct {
	logger *logrus.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(logger *logrus.Logger) *DashboardService {
	return &DashboardService{logger: logger}
}

// Stats computes the per-category counts and percentages.
func (s *DashboardService) Stats(patients []domain.PatientRecord) RiskStats {
	stats := RiskStats{Total: len(patients)}
	for _, p := range patients {
		switch p.RiskLevel {
		case domain.RiskHigh:
			stats.High++
		case domain.RiskMedium:
			stats.Medium++
		case domain.RiskLow:
			stats.Low++
		}
	}

	stats.HighPct = percentOfTotal(stats.High, stats.Total)
	stats.MediumPct = percentOfTotal(stats.Medium, stats.Total)
	stats.LowPct = percentOfTotal(stats.Low, stats.Total)
	return stats
}

// percentOfTotal formats count/total as a one-decimal percentage, guarding
// the empty collection.
func percentOfTotal(count, total int) string {
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%.1f", float64(count)/float64(total)*100)
}

// Filter returns the subset of patients matching the filter value ("all" or
// one risk level), preserving order. The input collection is never mutated.
func (s *DashboardService) Filter(patients []domain.PatientRecord, filter string) ([]domain.PatientRecord, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" || filter == FilterAll {
		out := make([]domain.PatientRecord, len(patients))
		copy(out, patients)
		return out, nil
	}

	risk, err := domain.ParseRiskLevel(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid risk filter: %w", err)
	}

	out := make([]domain.PatientRecord, 0, len(patients))
	for _, p := range patients {
		if p.RiskLevel == risk {
			out = append(out, p)
		}
	}
	return out, nil
}

// ExportCSV renders the currently filtered view as CSV: the fixed header plus
// one row per record, probabilities as one-decimal percentages. Pure function
// of its input; no backend round-trip.
func (s *DashboardService) ExportCSV(patients []domain.PatientRecord) string {
	var b strings.Builder
	b.WriteString(ExportHeader)
	for _, p := range patients {
		b.WriteString(fmt.Sprintf("\n%s,%d,%s,%s,%.1f%%", p.ID, p.Age, p.Gender, p.RiskLevel, p.Probability*100))
	}
	return b.String()
}

// ExportFilename builds the dated attachment name for an export.
func (s *DashboardService) ExportFilename(now time.Time) string {
	return fmt.Sprintf("cardio_risk_results_%s.csv", now.Format("2006-01-02"))
}
