package domain

// NotUploaded marks a required document type with no record yet.
const NotUploaded VerificationStatus = "NOT_UPLOADED"

type ProgressReport struct {
	UploadedCount       int                                 `json:"uploaded_count"`
	VerifiedCount       int                                 `json:"verified_count"`
	TotalRequired       int                                 `json:"total_required"`
	CompletionPct       float64                             `json:"completion_pct"`
	VerifiedPct         float64                             `json:"verified_pct"`
	Missing             []DocumentType                      `json:"missing"`
	PerTypeStatus       map[DocumentType]VerificationStatus `json:"per_type_status"`
	AllRequiredVerified bool                                `json:"all_required_verified"`
}

// MissingSet returns the missing types as a set.
func (p ProgressReport) MissingSet() DocumentTypeSet {
	return NewDocumentTypeSet(p.Missing...)
}

// ComputeProgress aggregates the latest record of each type against the required set.
// Types outside the required set appear in PerTypeStatus but not in the counts.
func ComputeProgress(required DocumentTypeSet, records []DocumentRecord) ProgressReport {
	latest := LatestByType(records)
	report := ProgressReport{
		TotalRequired: required.Len(),
		Missing:       []DocumentType{},
		PerTypeStatus: make(map[DocumentType]VerificationStatus, len(latest)+required.Len()),
	}

	for _, t := range required.Sorted() {
		rec, ok := latest[t]
		if !ok {
			report.Missing = append(report.Missing, t)
			report.PerTypeStatus[t] = NotUploaded
			continue
		}
		report.UploadedCount++
		if rec.VerificationStatus == VerificationVerified {
			report.VerifiedCount++
		}
		report.PerTypeStatus[t] = rec.VerificationStatus
	}
	for t, rec := range latest {
		if !required.Contains(t) {
			report.PerTypeStatus[t] = rec.VerificationStatus
		}
	}

	if report.TotalRequired > 0 {
		total := float64(report.TotalRequired)
		report.CompletionPct = float64(report.UploadedCount) / total * 100
		report.VerifiedPct = float64(report.VerifiedCount) / total * 100
		report.AllRequiredVerified = report.VerifiedCount == report.TotalRequired
	}
	return report
}
