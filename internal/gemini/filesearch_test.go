package gemini

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"emailwriter/internal/config"
	"emailwriter/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

const testAPIKey = "test-api-key"

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		GeminiAPIKey:        testAPIKey,
		GeminiModel:         "gemini-2.5-flash",
		GeminiBaseURL:       baseURL,
		FileSearchStoreName: "fileSearchStores/test-store",
	}
}

// sleepRecorder records requested sleeps without blocking
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
}

func (s *sleepRecorder) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum time.Duration
	for _, d := range s.sleeps {
		sum += d
	}
	return sum
}

func newTestManager(t *testing.T, handler http.HandlerFunc) (*FileSearchManager, *sleepRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	mgr := NewFileSearchManager(testConfig(srv.URL), zerolog.Nop())
	rec := &sleepRecorder{}
	mgr.sleep = rec.sleep
	return mgr, rec
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func writeMarkdown(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "email_001.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCreateStore(t *testing.T) {
	mgr, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/fileSearchStores", r.URL.Path)
		assert.Equal(t, testAPIKey, r.URL.Query().Get("key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"displayName": "email-patterns"}, body)

		writeJSON(t, w, FileSearchStore{Name: "fileSearchStores/email-patterns-abc123", DisplayName: "email-patterns"})
	})

	name, err := mgr.CreateStore(t.Context(), "email-patterns")
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/email-patterns-abc123", name)
}

func TestListStores_Paginates(t *testing.T) {
	var tokens []string
	mgr, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1beta/fileSearchStores", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("pageSize"))

		token := r.URL.Query().Get("pageToken")
		tokens = append(tokens, token)
		switch token {
		case "":
			writeJSON(t, w, listStoresResponse{
				FileSearchStores: []FileSearchStore{{Name: "fileSearchStores/a", DisplayName: "A"}},
				NextPageToken:    "page-2",
			})
		case "page-2":
			writeJSON(t, w, listStoresResponse{
				FileSearchStores: []FileSearchStore{{Name: "fileSearchStores/b", DisplayName: "B"}},
			})
		default:
			t.Errorf("unexpected page token %q", token)
		}
	})

	stores, err := mgr.ListStores(t.Context())
	require.NoError(t, err)

	want := []FileSearchStore{
		{Name: "fileSearchStores/a", DisplayName: "A"},
		{Name: "fileSearchStores/b", DisplayName: "B"},
	}
	if diff := cmp.Diff(want, stores); diff != "" {
		t.Errorf("ListStores mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"", "page-2"}, tokens)
}

func TestListStores_Empty(t *testing.T) {
	mgr, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{})
	})

	stores, err := mgr.ListStores(t.Context())
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestListDocuments(t *testing.T) {
	mgr, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/fileSearchStores/s1/documents", r.URL.Path)
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(t, w, listDocumentsResponse{
				Documents:     []Document{{Name: "fileSearchStores/s1/documents/d1", DisplayName: "email_001.md"}},
				NextPageToken: "next",
			})
			return
		}
		writeJSON(t, w, listDocumentsResponse{
			Documents: []Document{{Name: "fileSearchStores/s1/documents/d2", DisplayName: "email_002.md"}},
		})
	})

	docs, err := mgr.ListDocuments(t.Context(), "fileSearchStores/s1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "fileSearchStores/s1/documents/d1", docs[0].Name)
	assert.Equal(t, "fileSearchStores/s1/documents/d2", docs[1].Name)
}

func TestDeleteDocument(t *testing.T) {
	tests := []struct {
		name     string
		document string
		wantPath string
	}{
		{
			name:     "full resource name",
			document: "fileSearchStores/s1/documents/d1",
			wantPath: "/v1beta/fileSearchStores/s1/documents/d1",
		},
		{
			name:     "bare id",
			document: "d2",
			wantPath: "/v1beta/fileSearchStores/s1/documents/d2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mgr, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
				called = true
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "true", r.URL.Query().Get("force"))
				writeJSON(t, w, map[string]any{})
			})

			require.NoError(t, mgr.DeleteDocument(t.Context(), "fileSearchStores/s1", tt.document))
			assert.True(t, called)
		})
	}
}

func TestDeleteStore(t *testing.T) {
	mgr, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1beta/fileSearchStores/s1", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("force"))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, mgr.DeleteStore(t.Context(), "fileSearchStores/s1"))
}

func TestRemoteErrorIsGoogleAPIError(t *testing.T) {
	mgr, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"store not found","status":"NOT_FOUND"}}`)
	})

	err := mgr.DeleteStore(t.Context(), "fileSearchStores/missing")
	require.Error(t, err)

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
	assert.Equal(t, "store not found", apiErr.Message)
}

func TestUploadMarkdown_Success(t *testing.T) {
	date := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	metadata := &models.EmailMetadata{
		FileName:   "email_001.msg",
		Subject:    "RE: 주간 보고",
		Sender:     "me@example.com",
		Recipients: "team@example.com",
		Date:       &date,
		IsReply:    true,
	}
	path := writeMarkdown(t, "# Email Message\n\n본문")

	polls := 0
	mgr, rec := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			assert.Equal(t, "/upload/v1beta/fileSearchStores/s1:uploadToFileSearchStore", r.URL.Path)
			assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))
			assert.Equal(t, "multipart", r.Header.Get("X-Goog-Upload-Protocol"))
			assert.Equal(t, testAPIKey, r.URL.Query().Get("key"))

			mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			require.NoError(t, err)
			assert.Equal(t, "multipart/related", mediaType)

			mr := multipart.NewReader(r.Body, params["boundary"])

			metaPart, err := mr.NextPart()
			require.NoError(t, err)
			assert.Contains(t, metaPart.Header.Get("Content-Type"), "application/json")
			var meta uploadMetadata
			require.NoError(t, json.NewDecoder(metaPart).Decode(&meta))
			assert.Equal(t, "email_001.md", meta.DisplayName)
			assert.Equal(t, "text/markdown", meta.MimeType)
			assert.Equal(t, metadata.CustomMetadata(), meta.CustomMetadata)

			filePart, err := mr.NextPart()
			require.NoError(t, err)
			assert.Equal(t, "text/markdown", filePart.Header.Get("Content-Type"))
			content, err := io.ReadAll(filePart)
			require.NoError(t, err)
			assert.Equal(t, "# Email Message\n\n본문", string(content))

			writeJSON(t, w, Operation{Name: "fileSearchStores/s1/upload/operations/op1"})
		case r.Method == http.MethodGet:
			assert.Equal(t, "/v1beta/fileSearchStores/s1/upload/operations/op1", r.URL.Path)
			polls++
			writeJSON(t, w, Operation{Name: "fileSearchStores/s1/upload/operations/op1", Done: polls >= 2})
		}
	})

	err := mgr.UploadMarkdown(t.Context(), "fileSearchStores/s1", path, metadata, WithPollInterval(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, polls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, rec.sleeps)
}

func TestUploadMarkdown_DoneImmediately(t *testing.T) {
	path := writeMarkdown(t, "body")
	mgr, rec := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method, "no polling expected")
		writeJSON(t, w, Operation{Name: "op", Done: true})
	})

	require.NoError(t, mgr.UploadMarkdown(t.Context(), "fileSearchStores/s1", path, nil))
	assert.Empty(t, rec.sleeps)
}

func TestUploadMarkdown_Timeout(t *testing.T) {
	path := writeMarkdown(t, "body")

	polls := 0
	mgr, rec := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			polls++
		}
		writeJSON(t, w, Operation{Name: "fileSearchStores/s1/upload/operations/slow"})
	})

	err := mgr.UploadMarkdown(t.Context(), "fileSearchStores/s1", path, nil,
		WithPollInterval(time.Second), WithMaxWait(2*time.Second))

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "email_001.md", timeoutErr.FileName)
	assert.Equal(t, 2*time.Second, timeoutErr.MaxWait)
	assert.Equal(t, 2*time.Second, rec.total())
	assert.Equal(t, 2, polls)
}

func TestUploadMarkdown_OperationError(t *testing.T) {
	path := writeMarkdown(t, "body")
	mgr, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(t, w, Operation{Name: "fileSearchStores/s1/upload/operations/bad"})
			return
		}
		writeJSON(t, w, Operation{
			Name:  "fileSearchStores/s1/upload/operations/bad",
			Done:  true,
			Error: &Status{Code: 3, Message: "unsupported document"},
		})
	})

	err := mgr.UploadMarkdown(t.Context(), "fileSearchStores/s1", path, nil, WithPollInterval(time.Millisecond))

	var failed *UploadFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "email_001.md", failed.FileName)
	require.NotNil(t, failed.Status)
	assert.Equal(t, 3, failed.Status.Code)
	assert.Contains(t, err.Error(), "unsupported document")
}

func TestUploadMarkdown_MissingFile(t *testing.T) {
	called := false
	mgr, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	err := mgr.UploadMarkdown(t.Context(), "fileSearchStores/s1", filepath.Join(t.TempDir(), "missing.md"), nil)
	require.Error(t, err)
	assert.False(t, called)
}

func TestUploadOptions(t *testing.T) {
	o := uploadOptions{pollInterval: DefaultPollInterval, maxWait: DefaultMaxWait}
	WithPollInterval(0)(&o)
	WithMaxWait(-time.Second)(&o)
	assert.Equal(t, DefaultPollInterval, o.pollInterval)
	assert.Equal(t, DefaultMaxWait, o.maxWait)

	WithPollInterval(5 * time.Second)(&o)
	WithMaxWait(0)(&o)
	assert.Equal(t, 5*time.Second, o.pollInterval)
	assert.Equal(t, time.Duration(0), o.maxWait)
}
