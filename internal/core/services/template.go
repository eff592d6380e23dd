package services

import (
	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// BuildDraft completes a partial draft with the link of the top result.
// It never mutates its inputs.
func BuildDraft(fields domain.PartialHandoverDraft, top *domain.Result) (domain.HandoverDraft, domain.HandoverMetadata) {
	autoFilled := make([]string, 0, len(fields.AutoFilledFields)+1)
	autoFilled = append(autoFilled, fields.AutoFilledFields...)

	draft := domain.HandoverDraft{
		System:          fields.System,
		FaultCode:       fields.FaultCode,
		Symptoms:        fields.Symptoms,
		ActionsTaken:    fields.ActionsTaken,
		DurationMinutes: copyInt(fields.DurationMinutes),
		Confidence:      fields.Confidence,
	}

	meta := domain.HandoverMetadata{
		TotalFields: domain.TotalHandoverFields,
		Confidence:  fields.Confidence,
	}

	if top != nil && top.Links.Primary != "" {
		draft.LinkedDocument = top.Links.Primary
		autoFilled = append(autoFilled, domain.FieldLinkedDocument)
		meta.LinkedResultID = top.ID
		meta.LinkedSourceKind = top.SourceKind
	}

	draft.AutoFilledFields = autoFilled
	meta.AutoFilledFields = append([]string(nil), autoFilled...)
	meta.AutoFilledCount = len(autoFilled)

	return draft, meta
}

// attachHints sets a result-scoped draft on every materialised result
func attachHints(set *domain.ResultSet, fields domain.PartialHandoverDraft) {
	for _, band := range [][]domain.Result{set.Primary, set.Secondary, set.Tertiary} {
		for i := range band {
			hint, _ := BuildDraft(fields, &band[i])
			band[i].HandoverHint = &hint
		}
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
