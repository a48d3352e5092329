package assistant

import (
	"context"
	"io"
)

// Run statuses reported by the provider.
const (
	RunStatusQueued     = "queued"
	RunStatusInProgress = "in_progress"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
	RunStatusCancelled  = "cancelled"
	RunStatusExpired    = "expired"
)

// RunTerminal reports whether a run status is final.
func RunTerminal(status string) bool {
	switch status {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// File is a document uploaded to the provider for retrieval.
type File struct {
	ID string
}

// VectorStore is the provider-side index built from uploaded files.
type VectorStore struct {
	ID     string
	Status string
}

// Assistant is a configured retrieval agent bound to a vector store.
type Assistant struct {
	ID string
}

// Thread is a persistent conversation.
type Thread struct {
	ID string
}

// RunError carries provider-reported failure detail for a run.
type RunError struct {
	Code    string
	Message string
}

// Run is one execution of an assistant over a thread.
type Run struct {
	ID        string
	Status    string
	LastError *RunError
}

// Citation is a file reference attached to an answer fragment.
type Citation struct {
	FileID string `json:"fileId"`
	Quote  string `json:"quote,omitempty"`
}

// Message is one entry in a thread. Text holds the concatenated text
// content of the message.
type Message struct {
	ID        string
	Role      string
	Text      string
	Citations []Citation
}

// Provider abstracts the hosted assistants backend.
type Provider interface {
	// UploadFile pushes document bytes to the provider for retrieval use.
	UploadFile(ctx context.Context, fileName string, r io.Reader) (File, error)
	// CreateVectorStore builds an index over the given files. Indexing is
	// asynchronous; poll GetVectorStore until Status is "completed".
	CreateVectorStore(ctx context.Context, name string, fileIDs []string) (VectorStore, error)
	GetVectorStore(ctx context.Context, vectorStoreID string) (VectorStore, error)
	// CreateAssistant configures a retrieval agent over the vector store.
	CreateAssistant(ctx context.Context, model, instructions, vectorStoreID string) (Assistant, error)
	CreateThread(ctx context.Context) (Thread, error)
	// AddMessage appends a user message to the thread.
	AddMessage(ctx context.Context, threadID, text string) (Message, error)
	// CreateRun starts the assistant on the thread. Runs are asynchronous;
	// poll GetRun until RunTerminal reports true.
	CreateRun(ctx context.Context, threadID, assistantID string) (Run, error)
	GetRun(ctx context.Context, threadID, runID string) (Run, error)
	// ListMessages returns the thread's messages, newest first.
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}
