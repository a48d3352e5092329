package files

import "time"

// UploadRecord represents one stored file and its metadata.
// DocumentID is minted at upload time and never changes; only FileName
// may be edited afterwards.
type UploadRecord struct {
	DocumentID string
	OwnerToken string
	StorageKey string
	StorageURL string
	FileName   string
	SizeBytes  int64
	MimeType   string
	UploadedAt time.Time
	Resources  ProviderResources
}

// ProviderResources holds the assistant-provider identifiers persisted
// after a document's first question. The in-process cache is rebuilt from
// these after a restart; they are the durable copy.
type ProviderResources struct {
	FileID        string
	VectorStoreID string
	AssistantID   string
	ThreadID      string
}

// Provisioned reports whether the document already has provider-side
// resources that can be reused instead of re-ingesting the file.
func (p ProviderResources) Provisioned() bool {
	return p.FileID != "" && p.VectorStoreID != "" && p.AssistantID != ""
}
