package domain

type UploadState string

const (
	UploadStarting     UploadState = "STARTING"
	UploadTransferring UploadState = "TRANSFERRING"
	UploadComplete     UploadState = "COMPLETE"
	UploadFailed       UploadState = "FAILED"
	UploadCancelled    UploadState = "CANCELLED"
)

func (s UploadState) Terminal() bool {
	return s == UploadComplete || s == UploadFailed || s == UploadCancelled
}

// UploadProgress is one observation of a running transfer.
type UploadProgress struct {
	BytesSent  int64       `json:"bytes_sent"`
	BytesTotal int64       `json:"bytes_total"`
	State      UploadState `json:"state"`
}

// Percent mirrors the rounding used by upload progress bars.
func (p UploadProgress) Percent() int {
	if p.BytesTotal <= 0 {
		return 0
	}
	return int((p.BytesSent*100 + p.BytesTotal/2) / p.BytesTotal)
}
