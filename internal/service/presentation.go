package service

import (
	"math"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

// RiskDisplay maps a risk level onto its visual category, badge label and
// summary message for the results view.
type RiskDisplay struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Message  string `json:"message"`
}

// DisplayForRisk returns the deterministic display configuration for a risk
// level. Unknown levels get the fallback treatment rather than an error.
func DisplayForRisk(risk domain.RiskLevel) RiskDisplay {
	switch risk {
	case domain.RiskLow:
		return RiskDisplay{
			Category: "low",
			Label:    "Low Risk",
			Message:  "Your cardiovascular risk is low. Keep up the good work with your healthy lifestyle!",
		}
	case domain.RiskMedium:
		return RiskDisplay{
			Category: "medium",
			Label:    "Medium Risk",
			Message:  "Your cardiovascular risk is moderate. Consider making some lifestyle changes to improve your health.",
		}
	case domain.RiskHigh:
		return RiskDisplay{
			Category: "high",
			Label:    "High Risk",
			Message:  "Your cardiovascular risk is elevated. We strongly recommend consulting with a healthcare provider soon.",
		}
	default:
		return RiskDisplay{
			Category: "unknown",
			Label:    "Unknown Risk",
			Message:  "Unable to determine risk level.",
		}
	}
}

// ProbabilityPercent converts a probability in [0,1] to the integer
// percentage used for display and progress fill, rounding half away from
// zero (0.455 renders as 46%).
func ProbabilityPercent(p float64) int {
	return int(math.Round(p * 100))
}
