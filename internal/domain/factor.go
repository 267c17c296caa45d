package domain

import "strings"

// FactorCategory groups emotional-factor tags by where the obstacle comes from.
type FactorCategory string

const (
	FactorNone        FactorCategory = "none"
	FactorAcademic    FactorCategory = "academic"
	FactorNonAcademic FactorCategory = "non_academic"
	FactorUnknown     FactorCategory = "unknown"
)

// AcademicPanicButtons are the academic-origin challenge tags.
var AcademicPanicButtons = []string{
	"MISSED CLASSES",
	"BACKLOGS",
	"LACK OF MOTIVATION",
	"NOT UNDERSTANDING",
	"BAD MARKS",
}

// NonAcademicPanicButtons are the non-academic-origin challenge tags.
var NonAcademicPanicButtons = []string{
	"EMOTIONAL FACTORS",
	"PROCRASTINATE",
	"LOST INTEREST",
	"LACK OF FOCUS",
	"GOALS NOT ACHIEVED",
	"LACK OF DISCIPLINE",
}

// ClassifyFactor places a tag in one of the two vocabularies. Matching is
// case-insensitive and ignores surrounding whitespace.
func ClassifyFactor(tag string) FactorCategory {
	normalized := strings.ToUpper(strings.TrimSpace(tag))
	if normalized == "" {
		return FactorNone
	}
	for _, t := range AcademicPanicButtons {
		if t == normalized {
			return FactorAcademic
		}
	}
	for _, t := range NonAcademicPanicButtons {
		if t == normalized {
			return FactorNonAcademic
		}
	}
	return FactorUnknown
}
