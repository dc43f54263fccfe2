package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// PeriodLabelPattern accepts semester ("Fall 2024") and month ("2025-03", "March 2025") labels.
	// Commas are excluded because list values from the environment are comma separated.
	PeriodLabelPattern = `^[A-Za-z0-9][A-Za-z0-9 ./\-]*[A-Za-z0-9]$`

	// PeriodLabelMaxLength matches the widest label the history tables are expected to hold
	PeriodLabelMaxLength = 32
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	PeriodLabel *regexp.Regexp
}{
	PeriodLabel: regexp.MustCompile(PeriodLabelPattern),
}

// PeriodLabelTag is the struct tag registered by RegisterRules
const PeriodLabelTag = "period_label"

// ValidPeriodLabel reports whether label can be used as a history period
func ValidPeriodLabel(label string) bool {
	return len(label) <= PeriodLabelMaxLength && CompiledPatterns.PeriodLabel.MatchString(label)
}

// RegisterRules adds the custom rules to v
func RegisterRules(v *validator.Validate) error {
	return v.RegisterValidation(PeriodLabelTag, func(fl validator.FieldLevel) bool {
		return ValidPeriodLabel(fl.Field().String())
	})
}
