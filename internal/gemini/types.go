package gemini

import (
	"encoding/json"
	"strings"

	"emailwriter/internal/models"
)

// FileSearchStore is a remote store of indexed documents.
// Counters are int64 values rendered as strings by the API.
type FileSearchStore struct {
	Name                  string `json:"name"`
	DisplayName           string `json:"displayName,omitempty"`
	CreateTime            string `json:"createTime,omitempty"`
	UpdateTime            string `json:"updateTime,omitempty"`
	ActiveDocumentsCount  string `json:"activeDocumentsCount,omitempty"`
	PendingDocumentsCount string `json:"pendingDocumentsCount,omitempty"`
	FailedDocumentsCount  string `json:"failedDocumentsCount,omitempty"`
	SizeBytes             string `json:"sizeBytes,omitempty"`
}

// Document is one indexed file inside a store
type Document struct {
	Name           string                  `json:"name"`
	DisplayName    string                  `json:"displayName,omitempty"`
	State          string                  `json:"state,omitempty"`
	SizeBytes      string                  `json:"sizeBytes,omitempty"`
	MimeType       string                  `json:"mimeType,omitempty"`
	CreateTime     string                  `json:"createTime,omitempty"`
	CustomMetadata []models.CustomMetadata `json:"customMetadata,omitempty"`
}

// Status is the error carried by a finished operation
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// Operation tracks a long-running upload
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *Status         `json:"error,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

type listStoresResponse struct {
	FileSearchStores []FileSearchStore `json:"fileSearchStores"`
	NextPageToken    string            `json:"nextPageToken"`
}

type listDocumentsResponse struct {
	Documents     []Document `json:"documents"`
	NextPageToken string     `json:"nextPageToken"`
}

type createStoreRequest struct {
	DisplayName string `json:"displayName"`
}

// uploadMetadata is the JSON part of a multipart upload
type uploadMetadata struct {
	DisplayName    string                  `json:"displayName"`
	MimeType       string                  `json:"mimeType"`
	CustomMetadata []models.CustomMetadata `json:"customMetadata,omitempty"`
}

// Content is a turn of a conversation
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a piece of content. Thought parts carry model reasoning, not answer text.
type Part struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

// FileSearch restricts retrieval to the named stores
type FileSearch struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
}

// Tool enables a retrieval tool for a generation call
type Tool struct {
	FileSearch *FileSearch `json:"fileSearch,omitempty"`
}

// GenerationConfig holds sampling parameters
type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

// GenerateContentRequest is the body of models/{model}:generateContent
type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one generated response
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// PromptFeedback reports why a prompt was blocked
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// GenerateContentResponse is the reply of models/{model}:generateContent
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// Text concatenates the answer parts of the first candidate
func (r *GenerateContentResponse) Text() string {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		if !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
