package qa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"docqa-backend/internal/assistant"
	"docqa-backend/internal/files"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/storage/object"
	"docqa-backend/internal/shared/telemetry"
)

const assistantInstructions = "You are a helpful assistant that answers questions about the uploaded document. " +
	"Answer questions truthfully and directly based on the document content. " +
	"If information is not in the document, admit that you don't know rather than making up an answer. " +
	"When relevant, cite specific sections or pages from the document."

var (
	vectorStorePoll = pollConfig{Interval: time.Second, MaxAttempts: 30}
	runPoll         = pollConfig{Interval: time.Second, MaxAttempts: 60}
)

// Answer is the result of one question against one document.
type Answer struct {
	DocumentID string
	Question   string
	Text       string
	Citations  []assistant.Citation
	ThreadID   string
}

// Service orchestrates document question answering: it provisions provider
// resources for a document on first use, keeps them warm in the cache, and
// runs each question through the provider's thread/run lifecycle.
type Service struct {
	Files    files.Repo
	Store    object.ObjectStore
	Provider assistant.Provider
	// Cache may be nil, which disables resource reuse across requests
	// within a process; persisted ids still avoid re-provisioning.
	Cache *ResourceCache
	Model string

	// Poll budgets are swappable in tests.
	StorePoll *pollConfig
	RunPoll   *pollConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// docLock returns the mutex serializing provisioning for one document.
// Concurrent first questions against the same document would otherwise
// each provision a full set of provider resources.
func (s *Service) docLock(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := s.locks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[documentID] = lock
	}
	return lock
}

func (s *Service) storePollConfig() pollConfig {
	if s.StorePoll != nil {
		return *s.StorePoll
	}
	return vectorStorePoll
}

func (s *Service) runPollConfig() pollConfig {
	if s.RunPoll != nil {
		return *s.RunPoll
	}
	return runPoll
}

// Ask answers a question about a document the caller can read.
func (s *Service) Ask(ctx context.Context, callerToken, callerPhone, documentID, question string) (Answer, error) {
	if documentID == "" || question == "" {
		return Answer{}, ErrInvalidInput
	}

	rec, err := s.Files.GetByDocumentID(ctx, documentID)
	if err != nil {
		return Answer{}, err
	}
	if rec.OwnerToken != callerToken {
		shared, err := s.sharedWithCaller(ctx, documentID, callerPhone)
		if err != nil {
			return Answer{}, err
		}
		if !shared {
			return Answer{}, files.ErrNotFound
		}
	}

	metrics.IncQuestionAsked()
	start := metrics.NowMillis()

	entry, err := s.resources(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			metrics.IncQuestionTimedOut()
		} else {
			metrics.IncQuestionFailed()
		}
		return Answer{}, err
	}

	answer, err := s.runQuestion(ctx, entry, question)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			metrics.IncQuestionTimedOut()
		} else {
			metrics.IncQuestionFailed()
		}
		return Answer{}, err
	}

	metrics.IncQuestionAnswered()
	metrics.ObserveAnswerDurationMs(metrics.NowMillis() - start)

	answer.DocumentID = documentID
	answer.Question = question
	return answer, nil
}

func (s *Service) sharedWithCaller(ctx context.Context, documentID, phone string) (bool, error) {
	if phone == "" {
		return false, nil
	}
	shared, err := s.Files.ListSharedWith(ctx, phone)
	if err != nil {
		return false, err
	}
	for _, rec := range shared {
		if rec.DocumentID == documentID {
			return true, nil
		}
	}
	return false, nil
}

// resources returns warm provider resources for the document, provisioning
// them on first use. A cache miss for a document with persisted ids opens a
// fresh thread rather than re-provisioning the index.
func (s *Service) resources(ctx context.Context, rec files.UploadRecord) (CacheEntry, error) {
	lock := s.docLock(rec.DocumentID)
	lock.Lock()
	defer lock.Unlock()

	if s.Cache != nil {
		if entry, ok := s.Cache.Get(rec.DocumentID); ok {
			return entry, nil
		}
	}

	if rec.Resources.Provisioned() {
		thread, err := s.Provider.CreateThread(ctx)
		if err != nil {
			return CacheEntry{}, err
		}
		entry := CacheEntry{
			VectorStoreID: rec.Resources.VectorStoreID,
			AssistantID:   rec.Resources.AssistantID,
			ThreadID:      thread.ID,
		}
		if s.Cache != nil {
			s.Cache.Put(rec.DocumentID, entry)
		}
		return entry, nil
	}

	entry, err := s.provision(ctx, rec)
	if err != nil {
		return CacheEntry{}, err
	}
	if s.Cache != nil {
		s.Cache.Put(rec.DocumentID, entry)
	}
	return entry, nil
}

func (s *Service) provision(ctx context.Context, rec files.UploadRecord) (CacheEntry, error) {
	blob, err := s.Store.Open(ctx, rec.StorageKey)
	if err != nil {
		return CacheEntry{}, fmt.Errorf("open stored document: %w", err)
	}
	defer blob.Close()

	scratch, err := os.CreateTemp("", "docqa-*")
	if err != nil {
		return CacheEntry{}, err
	}
	defer os.Remove(scratch.Name())
	defer scratch.Close()

	if _, err := io.Copy(scratch, blob); err != nil {
		return CacheEntry{}, fmt.Errorf("stage document: %w", err)
	}
	if _, err := scratch.Seek(0, io.SeekStart); err != nil {
		return CacheEntry{}, err
	}

	file, err := s.Provider.UploadFile(ctx, rec.FileName, scratch)
	if err != nil {
		return CacheEntry{}, fmt.Errorf("upload to provider: %w", err)
	}

	store, err := s.Provider.CreateVectorStore(ctx, rec.FileName, []string{file.ID})
	if err != nil {
		return CacheEntry{}, fmt.Errorf("create vector store: %w", err)
	}

	err = poll(ctx, s.storePollConfig(), func(ctx context.Context) (bool, error) {
		current, err := s.Provider.GetVectorStore(ctx, store.ID)
		if err != nil {
			return false, err
		}
		switch current.Status {
		case "completed":
			return true, nil
		case "expired", "failed":
			return false, fmt.Errorf("vector store %s: %s", store.ID, current.Status)
		}
		return false, nil
	})
	if err != nil {
		return CacheEntry{}, err
	}

	agent, err := s.Provider.CreateAssistant(ctx, s.Model, assistantInstructions, store.ID)
	if err != nil {
		return CacheEntry{}, fmt.Errorf("create assistant: %w", err)
	}

	thread, err := s.Provider.CreateThread(ctx)
	if err != nil {
		return CacheEntry{}, err
	}

	res := files.ProviderResources{
		FileID:        file.ID,
		VectorStoreID: store.ID,
		AssistantID:   agent.ID,
		ThreadID:      thread.ID,
	}
	if err := s.Files.SetProviderResources(ctx, rec.DocumentID, res); err != nil {
		telemetry.Warn("qa.persist_resources_failed", map[string]any{
			"document_id": rec.DocumentID,
			"error":       err.Error(),
		})
	}

	metrics.IncDocumentProvisioned()
	telemetry.Info("qa.document_provisioned", map[string]any{
		"document_id":     rec.DocumentID,
		"vector_store_id": store.ID,
		"assistant_id":    agent.ID,
	})

	return CacheEntry{
		VectorStoreID: store.ID,
		AssistantID:   agent.ID,
		ThreadID:      thread.ID,
	}, nil
}

func (s *Service) runQuestion(ctx context.Context, entry CacheEntry, question string) (Answer, error) {
	if _, err := s.Provider.AddMessage(ctx, entry.ThreadID, question); err != nil {
		return Answer{}, fmt.Errorf("add message: %w", err)
	}

	run, err := s.Provider.CreateRun(ctx, entry.ThreadID, entry.AssistantID)
	if err != nil {
		return Answer{}, fmt.Errorf("create run: %w", err)
	}

	err = poll(ctx, s.runPollConfig(), func(ctx context.Context) (bool, error) {
		current, err := s.Provider.GetRun(ctx, entry.ThreadID, run.ID)
		if err != nil {
			return false, err
		}
		if !assistant.RunTerminal(current.Status) {
			return false, nil
		}
		if current.Status != assistant.RunStatusCompleted {
			failed := &RunFailedError{Status: current.Status}
			if current.LastError != nil {
				failed.Code = current.LastError.Code
				failed.Detail = current.LastError.Message
			}
			return false, failed
		}
		return true, nil
	})
	if err != nil {
		return Answer{}, err
	}

	messages, err := s.Provider.ListMessages(ctx, entry.ThreadID)
	if err != nil {
		return Answer{}, fmt.Errorf("list messages: %w", err)
	}
	for _, msg := range messages {
		if msg.Role != "assistant" || msg.Text == "" {
			continue
		}
		return Answer{
			Text:      msg.Text,
			Citations: msg.Citations,
			ThreadID:  entry.ThreadID,
		}, nil
	}
	return Answer{}, ErrNoAnswer
}
