package persona

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jonathan/persona-engine/internal/logger"
)

// Recommended minimums for generated personas.
const (
	MaxNameLength        = 60
	MinJobTitles         = 10
	MinExcludedJobTitles = 3
)

// ValidTiers are the recognised priority tiers.
var ValidTiers = []string{"tier_1", "tier_2", "tier_3"}

// Warning is a non-fatal data-quality finding about one persona.
type Warning struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("persona %d: %s: %s", w.Index, w.Field, w.Message)
}

// Check returns the data-quality warnings for the persona at position index.
func Check(index int, r Record) []Warning {
	var warnings []Warning
	add := func(field, format string, args ...any) {
		warnings = append(warnings, Warning{Index: index, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if n := utf8.RuneCountInString(String(r, FieldName)); n > MaxNameLength {
		add(FieldName, "name is %d characters, recommended maximum is %d", n, MaxNameLength)
	}
	if n := len(Strings(r, FieldJobTitles)); n < MinJobTitles {
		add(FieldJobTitles, "%d job titles, recommended minimum is %d", n, MinJobTitles)
	}
	if n := len(Strings(r, FieldExcludedJobTitles)); n < MinExcludedJobTitles {
		add(FieldExcludedJobTitles, "%d excluded job titles, recommended minimum is %d", n, MinExcludedJobTitles)
	}
	if tier := String(r, FieldTier); !validTier(tier) {
		add(FieldTier, "tier %q is not one of tier_1, tier_2, tier_3", tier)
	}
	return warnings
}

// CheckAll runs Check over a batch and logs every warning. Warnings never fail the caller.
func CheckAll(ctx context.Context, log logger.Logger, records []Record) []Warning {
	var all []Warning
	for i, r := range records {
		for _, w := range Check(i, r) {
			log.Warn(ctx, "persona data quality",
				logger.Int("index", w.Index),
				logger.String("field", w.Field),
				logger.String("detail", w.Message),
			)
			all = append(all, w)
		}
	}
	return all
}

func validTier(tier string) bool {
	for _, t := range ValidTiers {
		if t == tier {
			return true
		}
	}
	return false
}
