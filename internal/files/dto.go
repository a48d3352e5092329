package files

import "time"

// UploadView is the outward-facing representation of an upload record.
type UploadView struct {
	DocumentID string    `json:"documentId"`
	FileName   string    `json:"fileName"`
	FileKey    string    `json:"fileKey"`
	S3URL      string    `json:"s3Url"`
	FileSize   int64     `json:"fileSize"`
	MimeType   string    `json:"mimeType"`
	UploadDate time.Time `json:"uploadDate"`
	Shared     bool      `json:"shared"`
}

func toView(rec UploadRecord, shared bool) UploadView {
	return UploadView{
		DocumentID: rec.DocumentID,
		FileName:   rec.FileName,
		FileKey:    rec.StorageKey,
		S3URL:      rec.StorageURL,
		FileSize:   rec.SizeBytes,
		MimeType:   rec.MimeType,
		UploadDate: rec.UploadedAt,
		Shared:     shared,
	}
}

func toViews(recs []UploadRecord, shared bool) []UploadView {
	out := make([]UploadView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toView(rec, shared))
	}
	return out
}
