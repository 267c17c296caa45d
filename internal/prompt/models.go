package prompt

import "github.com/kapu/student-insights-go/internal/domain"

// NarrativePromptData fills the narrative templates. Column positions are
// 1-based and derived from the table's pair count.
type NarrativePromptData struct {
	Context string
	Pairs   int

	LastSubjectColumn int
	FlagColumn        int
	RateColumn        int
	FactorColumn      int

	// FlagItem is the list number of the first trailing column; the subject
	// entry is omitted when there are no pairs.
	FlagItem int

	AcademicPanicButtons    []string
	NonAcademicPanicButtons []string
}

// NewNarrativePromptData lays out the column guide for a table with the given
// number of subject pairs.
func NewNarrativePromptData(context string, pairs int) NarrativePromptData {
	if pairs < 0 {
		pairs = 0
	}
	last := domain.LeadingColumns + 2*pairs
	return NarrativePromptData{
		Context:                 context,
		Pairs:                   pairs,
		LastSubjectColumn:       last,
		FlagColumn:              last + 1,
		RateColumn:              last + 2,
		FactorColumn:            last + 3,
		FlagItem:                flagItem(pairs),
		AcademicPanicButtons:    domain.AcademicPanicButtons,
		NonAcademicPanicButtons: domain.NonAcademicPanicButtons,
	}
}

func flagItem(pairs int) int {
	if pairs > 0 {
		return 3
	}
	return 2
}

// NarrativeTemplate picks the template for a selection.
func NarrativeTemplate(multi bool) TemplateName {
	if multi {
		return TemplateNarrativeMultiple
	}
	return TemplateNarrativeSingle
}
