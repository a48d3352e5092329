package bootstrap

import (
	"context"
	"errors"
	"io"

	"docqa-backend/internal/assistant"
)

var errProviderUnconfigured = errors.New("OPENAI_API_KEY is not set")

// unconfiguredProvider stands in when no API key is configured in dev, so
// the server can still serve uploads and auth.
type unconfiguredProvider struct{}

func (unconfiguredProvider) UploadFile(context.Context, string, io.Reader) (assistant.File, error) {
	return assistant.File{}, errProviderUnconfigured
}

func (unconfiguredProvider) CreateVectorStore(context.Context, string, []string) (assistant.VectorStore, error) {
	return assistant.VectorStore{}, errProviderUnconfigured
}

func (unconfiguredProvider) GetVectorStore(context.Context, string) (assistant.VectorStore, error) {
	return assistant.VectorStore{}, errProviderUnconfigured
}

func (unconfiguredProvider) CreateAssistant(context.Context, string, string, string) (assistant.Assistant, error) {
	return assistant.Assistant{}, errProviderUnconfigured
}

func (unconfiguredProvider) CreateThread(context.Context) (assistant.Thread, error) {
	return assistant.Thread{}, errProviderUnconfigured
}

func (unconfiguredProvider) AddMessage(context.Context, string, string) (assistant.Message, error) {
	return assistant.Message{}, errProviderUnconfigured
}

func (unconfiguredProvider) CreateRun(context.Context, string, string) (assistant.Run, error) {
	return assistant.Run{}, errProviderUnconfigured
}

func (unconfiguredProvider) GetRun(context.Context, string, string) (assistant.Run, error) {
	return assistant.Run{}, errProviderUnconfigured
}

func (unconfiguredProvider) ListMessages(context.Context, string) ([]assistant.Message, error) {
	return nil, errProviderUnconfigured
}

var _ assistant.Provider = unconfiguredProvider{}
