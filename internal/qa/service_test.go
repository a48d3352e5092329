package qa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"docqa-backend/internal/assistant"
	"docqa-backend/internal/files"
	localstore "docqa-backend/internal/shared/storage/object/local"
)

type fakeProvider struct {
	mu            sync.Mutex
	uploads       int
	storesCreated int
	assistants    int
	threads       int
	runsCreated   int
	storeStatuses []string
	runStatuses   []string
	runError      *assistant.RunError
	answer        string
	citations     []assistant.Citation
}

func (p *fakeProvider) UploadFile(ctx context.Context, fileName string, r io.Reader) (assistant.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := io.Copy(io.Discard, r); err != nil {
		return assistant.File{}, err
	}
	p.uploads++
	return assistant.File{ID: fmt.Sprintf("file-%d", p.uploads)}, nil
}

func (p *fakeProvider) CreateVectorStore(ctx context.Context, name string, fileIDs []string) (assistant.VectorStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.storesCreated++
	return assistant.VectorStore{ID: fmt.Sprintf("vs-%d", p.storesCreated), Status: "in_progress"}, nil
}

func (p *fakeProvider) GetVectorStore(ctx context.Context, vectorStoreID string) (assistant.VectorStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	status := "completed"
	if len(p.storeStatuses) > 0 {
		status = p.storeStatuses[0]
		p.storeStatuses = p.storeStatuses[1:]
	}
	return assistant.VectorStore{ID: vectorStoreID, Status: status}, nil
}

func (p *fakeProvider) CreateAssistant(ctx context.Context, model, instructions, vectorStoreID string) (assistant.Assistant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assistants++
	return assistant.Assistant{ID: fmt.Sprintf("asst-%d", p.assistants)}, nil
}

func (p *fakeProvider) CreateThread(ctx context.Context) (assistant.Thread, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.threads++
	return assistant.Thread{ID: fmt.Sprintf("thread-%d", p.threads)}, nil
}

func (p *fakeProvider) AddMessage(ctx context.Context, threadID, text string) (assistant.Message, error) {
	return assistant.Message{ID: "msg-user", Role: "user", Text: text}, nil
}

func (p *fakeProvider) CreateRun(ctx context.Context, threadID, assistantID string) (assistant.Run, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runsCreated++
	return assistant.Run{ID: fmt.Sprintf("run-%d", p.runsCreated), Status: assistant.RunStatusQueued}, nil
}

func (p *fakeProvider) GetRun(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	status := assistant.RunStatusCompleted
	if len(p.runStatuses) > 0 {
		status = p.runStatuses[0]
		p.runStatuses = p.runStatuses[1:]
	}
	run := assistant.Run{ID: runID, Status: status}
	if status != assistant.RunStatusCompleted {
		run.LastError = p.runError
	}
	return run, nil
}

func (p *fakeProvider) ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error) {
	answer := p.answer
	if answer == "" {
		answer = "The document says hello."
	}
	return []assistant.Message{
		{ID: "msg-answer", Role: "assistant", Text: answer, Citations: p.citations},
		{ID: "msg-user", Role: "user", Text: "question"},
	}, nil
}

type qaFixture struct {
	svc      *Service
	repo     *files.MemoryRepo
	provider *fakeProvider
}

func newQAFixture(t *testing.T, provider *fakeProvider) *qaFixture {
	t.Helper()
	repo := files.NewMemoryRepo()
	store := localstore.New(t.TempDir())

	if _, _, err := store.Save(context.Background(), "uploads/1-notes.txt", strings.NewReader("hello world")); err != nil {
		t.Fatalf("seed blob: %v", err)
	}
	rec := files.UploadRecord{
		DocumentID: "document_abc",
		OwnerToken: "user_owner",
		StorageKey: "uploads/1-notes.txt",
		FileName:   "notes.txt",
		SizeBytes:  11,
		UploadedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	fast := pollConfig{Interval: time.Millisecond, MaxAttempts: 5, Sleep: instantSleep}
	svc := &Service{
		Files:     repo,
		Store:     store,
		Provider:  provider,
		Cache:     NewResourceCache(24*time.Hour, nil),
		Model:     "gpt-4-turbo-preview",
		StorePoll: &fast,
		RunPoll:   &fast,
	}
	return &qaFixture{svc: svc, repo: repo, provider: provider}
}

func TestAskProvisionsOnFirstUse(t *testing.T) {
	provider := &fakeProvider{
		storeStatuses: []string{"in_progress", "completed"},
		citations:     []assistant.Citation{{FileID: "file-1", Quote: "hello"}},
	}
	f := newQAFixture(t, provider)

	answer, err := f.svc.Ask(context.Background(), "user_owner", "+1555", "document_abc", "What does it say?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Text == "" {
		t.Fatal("expected answer text")
	}
	if answer.ThreadID == "" {
		t.Fatal("expected thread id in answer")
	}
	if len(answer.Citations) != 1 || answer.Citations[0].FileID != "file-1" {
		t.Fatalf("unexpected citations: %+v", answer.Citations)
	}

	if provider.uploads != 1 || provider.storesCreated != 1 || provider.assistants != 1 {
		t.Fatalf("unexpected provisioning counts: uploads=%d stores=%d assistants=%d",
			provider.uploads, provider.storesCreated, provider.assistants)
	}

	rec, err := f.repo.GetByDocumentID(context.Background(), "document_abc")
	if err != nil {
		t.Fatalf("GetByDocumentID: %v", err)
	}
	if !rec.Resources.Provisioned() {
		t.Fatalf("expected persisted provider resources, got %+v", rec.Resources)
	}
}

func TestAskReusesCachedResources(t *testing.T) {
	provider := &fakeProvider{}
	f := newQAFixture(t, provider)

	first, err := f.svc.Ask(context.Background(), "user_owner", "+1555", "document_abc", "q1")
	if err != nil {
		t.Fatalf("first Ask: %v", err)
	}
	second, err := f.svc.Ask(context.Background(), "user_owner", "+1555", "document_abc", "q2")
	if err != nil {
		t.Fatalf("second Ask: %v", err)
	}

	if provider.uploads != 1 || provider.assistants != 1 {
		t.Fatalf("expected no re-provisioning: uploads=%d assistants=%d", provider.uploads, provider.assistants)
	}
	if provider.threads != 1 {
		t.Fatalf("expected one thread for a warm cache, got %d", provider.threads)
	}
	if first.ThreadID != second.ThreadID {
		t.Fatalf("expected same thread, got %q then %q", first.ThreadID, second.ThreadID)
	}
}

func TestAskCacheMissWithPersistedIDsOpensNewThread(t *testing.T) {
	provider := &fakeProvider{}
	f := newQAFixture(t, provider)

	res := files.ProviderResources{
		FileID:        "file-old",
		VectorStoreID: "vs-old",
		AssistantID:   "asst-old",
		ThreadID:      "thread-old",
	}
	if err := f.repo.SetProviderResources(context.Background(), "document_abc", res); err != nil {
		t.Fatalf("SetProviderResources: %v", err)
	}

	answer, err := f.svc.Ask(context.Background(), "user_owner", "+1555", "document_abc", "q")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if provider.uploads != 0 || provider.storesCreated != 0 || provider.assistants != 0 {
		t.Fatalf("expected no re-provisioning: uploads=%d stores=%d assistants=%d",
			provider.uploads, provider.storesCreated, provider.assistants)
	}
	if provider.threads != 1 {
		t.Fatalf("expected one fresh thread, got %d", provider.threads)
	}
	if answer.ThreadID == "thread-old" {
		t.Fatal("expected a new thread, not the persisted one")
	}
}

func TestAskRunFailureReturnsDetail(t *testing.T) {
	provider := &fakeProvider{
		runStatuses: []string{assistant.RunStatusInProgress, assistant.RunStatusFailed},
		runError:    &assistant.RunError{Code: "rate_limit_exceeded", Message: "quota exhausted"},
	}
	f := newQAFixture(t, provider)

	_, err := f.svc.Ask(context.Background(), "user_owner", "+1555", "document_abc", "q")
	var failed *RunFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected RunFailedError, got %v", err)
	}
	if failed.Status != assistant.RunStatusFailed || failed.Detail != "quota exhausted" {
		t.Fatalf("unexpected failure detail: %+v", failed)
	}
}

func TestAskRunTimeout(t *testing.T) {
	provider := &fakeProvider{
		runStatuses: []string{
			assistant.RunStatusInProgress, assistant.RunStatusInProgress,
			assistant.RunStatusInProgress, assistant.RunStatusInProgress,
			assistant.RunStatusInProgress, assistant.RunStatusInProgress,
		},
	}
	f := newQAFixture(t, provider)

	_, err := f.svc.Ask(context.Background(), "user_owner", "+1555", "document_abc", "q")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestAskUnknownDocument(t *testing.T) {
	f := newQAFixture(t, &fakeProvider{})

	_, err := f.svc.Ask(context.Background(), "user_owner", "+1555", "document_missing", "q")
	if !errors.Is(err, files.ErrNotFound) {
		t.Fatalf("expected files.ErrNotFound, got %v", err)
	}
}

func TestAskSharedDocumentAllowed(t *testing.T) {
	provider := &fakeProvider{}
	f := newQAFixture(t, provider)

	if err := f.repo.Share(context.Background(), "document_abc", "+1666"); err != nil {
		t.Fatalf("Share: %v", err)
	}

	if _, err := f.svc.Ask(context.Background(), "user_other", "+1666", "document_abc", "q"); err != nil {
		t.Fatalf("Ask as share recipient: %v", err)
	}

	_, err := f.svc.Ask(context.Background(), "user_stranger", "+1777", "document_abc", "q")
	if !errors.Is(err, files.ErrNotFound) {
		t.Fatalf("expected files.ErrNotFound for stranger, got %v", err)
	}
}

func TestConcurrentFirstAskProvisionsOnce(t *testing.T) {
	provider := &fakeProvider{}
	f := newQAFixture(t, provider)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Ask(context.Background(), "user_owner", "+1555", "document_abc", "q")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Ask %d: %v", i, err)
		}
	}
	if provider.uploads != 1 || provider.storesCreated != 1 || provider.assistants != 1 {
		t.Fatalf("expected single provisioning run: uploads=%d stores=%d assistants=%d",
			provider.uploads, provider.storesCreated, provider.assistants)
	}
}
