package domain

import "time"

// VerificationReport is the exported snapshot of a shop's review state.
type VerificationReport struct {
	Shop        Shop             `json:"shop"`
	Progress    ProgressReport   `json:"progress"`
	Documents   []DocumentRecord `json:"documents"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// RequiredDocument is a checklist row for a category.
type RequiredDocument struct {
	Type        DocumentType `json:"type"`
	DisplayName string       `json:"display_name"`
}

func RequiredDocuments(set DocumentTypeSet) []RequiredDocument {
	out := make([]RequiredDocument, 0, set.Len())
	for _, t := range set.Sorted() {
		out = append(out, RequiredDocument{Type: t, DisplayName: t.DisplayName()})
	}
	return out
}
