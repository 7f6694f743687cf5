package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"emailwriter/internal/config"
	"emailwriter/internal/models"

	"github.com/rs/zerolog"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxWait      = 120 * time.Second

	// Largest page the API serves for stores and documents
	listPageSize = 20

	markdownMimeType = "text/markdown"
)

type uploadOptions struct {
	pollInterval time.Duration
	maxWait      time.Duration
}

// UploadOption tunes the completion polling of UploadMarkdown
type UploadOption func(*uploadOptions)

// WithPollInterval sets the delay between operation status checks
func WithPollInterval(d time.Duration) UploadOption {
	return func(o *uploadOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithMaxWait sets the total time an upload may spend pending
func WithMaxWait(d time.Duration) UploadOption {
	return func(o *uploadOptions) {
		if d >= 0 {
			o.maxWait = d
		}
	}
}

// FileSearchManager administers File Search stores and uploads documents
type FileSearchManager struct {
	api    *apiClient
	logger zerolog.Logger
	sleep  func(time.Duration)
}

// NewFileSearchManager creates a manager authenticated with cfg's API key
func NewFileSearchManager(cfg *config.Config, logger zerolog.Logger) *FileSearchManager {
	return &FileSearchManager{
		api:    newAPIClient(cfg, logger),
		logger: logger,
		sleep:  time.Sleep,
	}
}

// CreateStore creates a store and returns its resource name
// ("fileSearchStores/...")
func (m *FileSearchManager) CreateStore(ctx context.Context, displayName string) (string, error) {
	var store FileSearchStore
	if err := m.api.call(ctx, http.MethodPost, "fileSearchStores", nil, createStoreRequest{DisplayName: displayName}, &store); err != nil {
		return "", err
	}

	m.logger.Info().Str("store", store.Name).Str("display_name", displayName).Msg("File search store created")
	return store.Name, nil
}

// ListStores returns every store visible to the API key
func (m *FileSearchManager) ListStores(ctx context.Context) ([]FileSearchStore, error) {
	var stores []FileSearchStore
	pageToken := ""
	for {
		var page listStoresResponse
		if err := m.api.call(ctx, http.MethodGet, "fileSearchStores", pageQuery(pageToken), nil, &page); err != nil {
			return nil, err
		}
		stores = append(stores, page.FileSearchStores...)

		if page.NextPageToken == "" {
			return stores, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListDocuments returns every document of a store
func (m *FileSearchManager) ListDocuments(ctx context.Context, storeName string) ([]Document, error) {
	var docs []Document
	pageToken := ""
	for {
		var page listDocumentsResponse
		if err := m.api.call(ctx, http.MethodGet, storeName+"/documents", pageQuery(pageToken), nil, &page); err != nil {
			return nil, err
		}
		docs = append(docs, page.Documents...)

		if page.NextPageToken == "" {
			return docs, nil
		}
		pageToken = page.NextPageToken
	}
}

// DeleteDocument removes a document and its chunks. documentName may be the
// full resource name or the bare document id within storeName.
func (m *FileSearchManager) DeleteDocument(ctx context.Context, storeName, documentName string) error {
	name := documentName
	if !strings.Contains(name, "/") {
		name = storeName + "/documents/" + name
	}

	if err := m.api.call(ctx, http.MethodDelete, name, forceQuery(), nil, nil); err != nil {
		return err
	}

	m.logger.Info().Str("document", name).Msg("Document deleted")
	return nil
}

// DeleteStore removes a store together with its documents
func (m *FileSearchManager) DeleteStore(ctx context.Context, storeName string) error {
	if err := m.api.call(ctx, http.MethodDelete, storeName, forceQuery(), nil, nil); err != nil {
		return err
	}

	m.logger.Info().Str("store", storeName).Msg("File search store deleted")
	return nil
}

// UploadMarkdown uploads the Markdown file at path to storeName, attaching
// metadata as custom metadata, and waits until the import finishes.
// A pending operation past the max wait yields *TimeoutError; a finished
// operation carrying an error yields *UploadFailedError.
func (m *FileSearchManager) UploadMarkdown(ctx context.Context, storeName, path string, metadata *models.EmailMetadata, opts ...UploadOption) error {
	o := uploadOptions{pollInterval: DefaultPollInterval, maxWait: DefaultMaxWait}
	for _, opt := range opts {
		opt(&o)
	}

	fileName := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	meta := uploadMetadata{DisplayName: fileName, MimeType: markdownMimeType}
	if metadata != nil {
		meta.CustomMetadata = metadata.CustomMetadata()
	}

	op, err := m.startUpload(ctx, storeName, meta, data)
	if err != nil {
		return err
	}

	var elapsed time.Duration
	for !op.Done {
		if elapsed >= o.maxWait {
			return &TimeoutError{FileName: fileName, MaxWait: o.maxWait}
		}
		m.sleep(o.pollInterval)
		elapsed += o.pollInterval

		if op, err = m.getOperation(ctx, op.Name); err != nil {
			return err
		}
	}

	if op.Error != nil {
		return &UploadFailedError{FileName: fileName, Status: op.Error}
	}

	m.logger.Info().
		Str("file", fileName).
		Str("store", storeName).
		Dur("elapsed", elapsed).
		Msg("Document uploaded")
	return nil
}

// startUpload posts a multipart/related upload: a JSON metadata part
// followed by the file content
func (m *FileSearchManager) startUpload(ctx context.Context, storeName string, meta uploadMetadata, data []byte) (*Operation, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal upload metadata: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	parts := []struct {
		contentType string
		data        []byte
	}{
		{"application/json; charset=UTF-8", metaJSON},
		{meta.MimeType, data},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, fmt.Errorf("failed to create upload part: %w", err)
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, fmt.Errorf("failed to write upload part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload body: %w", err)
	}

	uploadURL := m.api.endpoint("upload/"+apiVersion, storeName+":uploadToFileSearchStore",
		url.Values{"uploadType": {"multipart"}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())
	req.Header.Set("X-Goog-Upload-Protocol", "multipart")

	var op Operation
	if err := m.api.send(req, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func (m *FileSearchManager) getOperation(ctx context.Context, name string) (*Operation, error) {
	var op Operation
	if err := m.api.call(ctx, http.MethodGet, name, nil, nil, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func pageQuery(pageToken string) url.Values {
	q := url.Values{"pageSize": {fmt.Sprint(listPageSize)}}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	return q
}

func forceQuery() url.Values {
	return url.Values{"force": {"true"}}
}
