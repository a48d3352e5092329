package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"docqa-backend/internal/assistant"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements assistant.Provider against the OpenAI Assistants v2 API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI assistants client.
func NewClient(apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type errorEnvelope struct {
	Error *apiError `json:"error,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return fmt.Errorf("openai request timeout: %w", err)
		}
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		return fmt.Errorf("openai error: %s (%s)", env.Error.Message, env.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("openai error: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("openai response parse: %w", err)
	}
	return nil
}

type fileResponse struct {
	ID string `json:"id"`
}

// UploadFile pushes document bytes with purpose "assistants".
func (c *Client) UploadFile(ctx context.Context, fileName string, r io.Reader) (assistant.File, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("purpose", "assistants"); err != nil {
		return assistant.File{}, err
	}
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return assistant.File{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return assistant.File{}, err
	}
	if err := w.Close(); err != nil {
		return assistant.File{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return assistant.File{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var parsed fileResponse
	if err := c.send(req, &parsed); err != nil {
		return assistant.File{}, err
	}
	if parsed.ID == "" {
		return assistant.File{}, fmt.Errorf("openai response missing file id")
	}
	return assistant.File{ID: parsed.ID}, nil
}

type vectorStoreRequest struct {
	Name    string   `json:"name"`
	FileIDs []string `json:"file_ids"`
}

type vectorStoreResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateVectorStore builds an index over the given files.
func (c *Client) CreateVectorStore(ctx context.Context, name string, fileIDs []string) (assistant.VectorStore, error) {
	var parsed vectorStoreResponse
	err := c.do(ctx, http.MethodPost, "/vector_stores", vectorStoreRequest{
		Name:    name,
		FileIDs: fileIDs,
	}, &parsed)
	if err != nil {
		return assistant.VectorStore{}, err
	}
	return assistant.VectorStore{ID: parsed.ID, Status: parsed.Status}, nil
}

// GetVectorStore fetches indexing status for a vector store.
func (c *Client) GetVectorStore(ctx context.Context, vectorStoreID string) (assistant.VectorStore, error) {
	var parsed vectorStoreResponse
	if err := c.do(ctx, http.MethodGet, "/vector_stores/"+vectorStoreID, nil, &parsed); err != nil {
		return assistant.VectorStore{}, err
	}
	return assistant.VectorStore{ID: parsed.ID, Status: parsed.Status}, nil
}

type assistantRequest struct {
	Name          string              `json:"name"`
	Instructions  string              `json:"instructions"`
	Model         string              `json:"model"`
	Tools         []assistantTool     `json:"tools"`
	ToolResources *assistantResources `json:"tool_resources,omitempty"`
}

type assistantTool struct {
	Type string `json:"type"`
}

type assistantResources struct {
	FileSearch fileSearchResources `json:"file_search"`
}

type fileSearchResources struct {
	VectorStoreIDs []string `json:"vector_store_ids"`
}

type assistantResponse struct {
	ID string `json:"id"`
}

// CreateAssistant configures a file_search agent over the vector store.
func (c *Client) CreateAssistant(ctx context.Context, model, instructions, vectorStoreID string) (assistant.Assistant, error) {
	var parsed assistantResponse
	err := c.do(ctx, http.MethodPost, "/assistants", assistantRequest{
		Name:         "Document Assistant",
		Instructions: instructions,
		Model:        model,
		Tools:        []assistantTool{{Type: "file_search"}},
		ToolResources: &assistantResources{
			FileSearch: fileSearchResources{VectorStoreIDs: []string{vectorStoreID}},
		},
	}, &parsed)
	if err != nil {
		return assistant.Assistant{}, err
	}
	return assistant.Assistant{ID: parsed.ID}, nil
}

type threadResponse struct {
	ID string `json:"id"`
}

// CreateThread opens a new empty conversation.
func (c *Client) CreateThread(ctx context.Context) (assistant.Thread, error) {
	var parsed threadResponse
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &parsed); err != nil {
		return assistant.Thread{}, err
	}
	return assistant.Thread{ID: parsed.ID}, nil
}

type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	ID      string           `json:"id"`
	Role    string           `json:"role"`
	Content []messageContent `json:"content"`
}

type messageContent struct {
	Type string `json:"type"`
	Text *struct {
		Value       string `json:"value"`
		Annotations []struct {
			Type         string `json:"type"`
			Text         string `json:"text"`
			FileCitation *struct {
				FileID string `json:"file_id"`
				Quote  string `json:"quote"`
			} `json:"file_citation,omitempty"`
		} `json:"annotations"`
	} `json:"text,omitempty"`
}

// AddMessage appends a user message to the thread.
func (c *Client) AddMessage(ctx context.Context, threadID, text string) (assistant.Message, error) {
	var parsed messageResponse
	err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", messageRequest{
		Role:    "user",
		Content: text,
	}, &parsed)
	if err != nil {
		return assistant.Message{}, err
	}
	return toMessage(parsed), nil
}

type runRequest struct {
	AssistantID string `json:"assistant_id"`
}

type runResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error,omitempty"`
}

// CreateRun starts the assistant on the thread.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (assistant.Run, error) {
	var parsed runResponse
	err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", runRequest{
		AssistantID: assistantID,
	}, &parsed)
	if err != nil {
		return assistant.Run{}, err
	}
	return toRun(parsed), nil
}

// GetRun fetches the current status of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	var parsed runResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &parsed); err != nil {
		return assistant.Run{}, err
	}
	return toRun(parsed), nil
}

type messageListResponse struct {
	Data []messageResponse `json:"data"`
}

// ListMessages returns the thread's messages, newest first.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error) {
	var parsed messageListResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages", nil, &parsed); err != nil {
		return nil, err
	}
	out := make([]assistant.Message, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		out = append(out, toMessage(m))
	}
	return out, nil
}

func toRun(parsed runResponse) assistant.Run {
	run := assistant.Run{ID: parsed.ID, Status: parsed.Status}
	if parsed.LastError != nil {
		run.LastError = &assistant.RunError{
			Code:    parsed.LastError.Code,
			Message: parsed.LastError.Message,
		}
	}
	return run
}

func toMessage(parsed messageResponse) assistant.Message {
	msg := assistant.Message{ID: parsed.ID, Role: parsed.Role}
	var b strings.Builder
	for _, content := range parsed.Content {
		if content.Type != "text" || content.Text == nil {
			continue
		}
		b.WriteString(content.Text.Value)
		for _, ann := range content.Text.Annotations {
			if ann.FileCitation == nil {
				continue
			}
			msg.Citations = append(msg.Citations, assistant.Citation{
				FileID: ann.FileCitation.FileID,
				Quote:  ann.FileCitation.Quote,
			})
		}
	}
	msg.Text = b.String()
	return msg
}

var _ assistant.Provider = (*Client)(nil)
