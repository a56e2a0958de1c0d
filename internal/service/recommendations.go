package service

import (
	"github.com/sirupsen/logrus"

	"github.com/cardiopredict/cardiopredict-gateway/internal/domain"
)

// RecommendationCategory groups recommendation items for display.
type RecommendationCategory string

const (
	CategoryDiet      RecommendationCategory = "diet"
	CategoryLifestyle RecommendationCategory = "lifestyle"
	CategoryMedical   RecommendationCategory = "medical"
)

// RecommendationGroup is one rendered category of recommendation items.
type RecommendationGroup struct {
	Category RecommendationCategory `json:"category"`
	Title    string                 `json:"title"`
	Items    []string               `json:"items"`
}

// recommendationRule emits its items when the predicate holds. Rules are
// additive and evaluated in fixed order; no rule removes items.
type recommendationRule struct {
	category RecommendationCategory
	when     func(rec *domain.HealthRecord, risk domain.RiskLevel) bool
	items    []string
}

// RecommendationEngine derives canned health recommendations from a record
// and its computed risk level.
type RecommendationEngine struct {
	logger *logrus.Logger
	rules  []recommendationRule
	titles map[RecommendationCategory]string
}

// NewRecommendationEngine creates a new recommendation engine
func NewRecommendationEngine(logger *logrus.Logger) *RecommendationEngine {
	e := &RecommendationEngine{
		logger: logger,
		titles: map[RecommendationCategory]string{
			CategoryDiet:      "Diet Recommendations",
			CategoryLifestyle: "Lifestyle Changes",
			CategoryMedical:   "Medical Advice",
		},
	}
	e.initializeRules()
	return e
}

func always(*domain.HealthRecord, domain.RiskLevel) bool { return true }

// initializeRules registers every rule in evaluation order. Ordering is part
// of the contract: items render in the order their rules appear here.
func (e *RecommendationEngine) initializeRules() {
	e.rules = []recommendationRule{
		// Diet
		{CategoryDiet, func(r *domain.HealthRecord, _ domain.RiskLevel) bool { return r.TotalCholesterol > 200 }, []string{
			"Limit saturated fats and cholesterol-rich foods",
			"Increase fiber intake with whole grains and vegetables",
		}},
		{CategoryDiet, func(r *domain.HealthRecord, _ domain.RiskLevel) bool { return r.FastingBloodSugar > 100 }, []string{
			"Reduce sugar and refined carbohydrate intake",
			"Choose low glycemic index foods",
		}},
		{CategoryDiet, always, []string{
			"Eat more fruits, vegetables, and lean proteins",
			"Reduce sodium intake to control blood pressure",
		}},
		{CategoryDiet, func(r *domain.HealthRecord, _ domain.RiskLevel) bool { return r.BMI() > 25 }, []string{
			"Consider portion control to achieve healthy weight",
		}},

		// Lifestyle
		{CategoryLifestyle, func(r *domain.HealthRecord, _ domain.RiskLevel) bool { return r.Smoking.Bool() }, []string{
			"Quit smoking - this is the most important change you can make",
			"Seek support through smoking cessation programs",
		}},
		{CategoryLifestyle, func(r *domain.HealthRecord, _ domain.RiskLevel) bool { return r.PhysicalActivity == domain.ActivityLow }, []string{
			"Start with 30 minutes of moderate exercise 5 days a week",
			"Include both cardio and strength training activities",
		}},
		{CategoryLifestyle, always, []string{
			"Manage stress through relaxation techniques or meditation",
			"Ensure adequate sleep (7-9 hours per night)",
			"Monitor your blood pressure regularly at home",
		}},

		// Medical
		{CategoryMedical, func(_ *domain.HealthRecord, risk domain.RiskLevel) bool { return risk == domain.RiskHigh }, []string{
			"Schedule an appointment with a cardiologist soon",
			"Discuss medication options with your healthcare provider",
		}},
		{CategoryMedical, func(_ *domain.HealthRecord, risk domain.RiskLevel) bool { return risk == domain.RiskMedium }, []string{
			"Consult with your primary care physician",
			"Consider more frequent health check-ups",
		}},
		{CategoryMedical, always, []string{
			"Get regular cardiovascular health screenings",
			"Keep track of your blood pressure and cholesterol levels",
		}},
		{CategoryMedical, func(r *domain.HealthRecord, _ domain.RiskLevel) bool { return r.Systolic > 130 || r.Diastolic > 80 }, []string{
			"Discuss blood pressure management with your doctor",
		}},
		{CategoryMedical, always, []string{
			"Consider cardiac stress tests if recommended by your doctor",
		}},
	}
}

// Evaluate runs every rule in order and returns the three category groups.
// The derivation is pure: same record and risk level always yield the same
// ordered items.
func (e *RecommendationEngine) Evaluate(rec *domain.HealthRecord, risk domain.RiskLevel) []RecommendationGroup {
	items := map[RecommendationCategory][]string{}
	for _, rule := range e.rules {
		if rule.when(rec, risk) {
			items[rule.category] = append(items[rule.category], rule.items...)
		}
	}

	groups := make([]RecommendationGroup, 0, 3)
	for _, cat := range []RecommendationCategory{CategoryDiet, CategoryLifestyle, CategoryMedical} {
		groups = append(groups, RecommendationGroup{
			Category: cat,
			Title:    e.titles[cat],
			Items:    items[cat],
		})
	}

	e.logger.WithFields(logrus.Fields{
		"risk_level": risk.String(),
		"diet":       len(items[CategoryDiet]),
		"lifestyle":  len(items[CategoryLifestyle]),
		"medical":    len(items[CategoryMedical]),
	}).Debug("Derived recommendations")

	return groups
}
