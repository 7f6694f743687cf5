package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMetadata_RoundTrip(t *testing.T) {
	date := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		metadata EmailMetadata
	}{
		{
			name: "all fields",
			metadata: EmailMetadata{
				FileName:       "email_001.msg",
				Subject:        "프로젝트 진행 상황 공유",
				Sender:         "sender@example.com",
				Recipients:     "recipient@example.com",
				Date:           &date,
				IsReply:        true,
				HasAttachments: true,
				MarkdownPath:   "./data/converted_md/email_001.md",
			},
		},
		{
			name: "nil date",
			metadata: EmailMetadata{
				FileName:     "email_002.msg",
				Subject:      "안녕하세요",
				Sender:       "me@example.com",
				Recipients:   "you@example.com",
				MarkdownPath: "./data/email_002.md",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.metadata)
			require.NoError(t, err)

			var restored EmailMetadata
			require.NoError(t, json.Unmarshal(data, &restored))

			if diff := cmp.Diff(tt.metadata, restored); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmailMetadata_NilDateSerializesAsNull(t *testing.T) {
	data, err := json.Marshal(EmailMetadata{FileName: "a.msg"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":null`)
}

func TestEmailMetadata_CustomMetadata(t *testing.T) {
	date := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	t.Run("without date", func(t *testing.T) {
		m := EmailMetadata{Subject: "s", Sender: "a@x", Recipients: "b@x, c@x", IsReply: false}
		assert.Equal(t, []CustomMetadata{
			{Key: "subject", StringValue: "s"},
			{Key: "sender", StringValue: "a@x"},
			{Key: "recipients", StringValue: "b@x, c@x"},
			{Key: "is_reply", StringValue: "False"},
		}, m.CustomMetadata())
	})

	t.Run("with date", func(t *testing.T) {
		m := EmailMetadata{Subject: "RE: s", IsReply: true, Date: &date}
		entries := m.CustomMetadata()
		require.Len(t, entries, 5)
		assert.Equal(t, CustomMetadata{Key: "is_reply", StringValue: "True"}, entries[3])
		assert.Equal(t, CustomMetadata{Key: "date", StringValue: "2025-01-15T10:30:00Z"}, entries[4])
	})

	t.Run("empty fields still present", func(t *testing.T) {
		var m EmailMetadata
		keys := make([]string, 0)
		for _, e := range m.CustomMetadata() {
			keys = append(keys, e.Key)
		}
		assert.Equal(t, []string{"subject", "sender", "recipients", "is_reply"}, keys)
	})
}

func TestGenerateEmailRequest_RoundTrip(t *testing.T) {
	req := GenerateEmailRequest{
		FullBody:         "<html><body>전체 본문</body></html>",
		SelectedText:     "선택된 텍스트",
		ToRecipients:     "test@example.com",
		Subject:          "테스트 제목",
		IsReply:          true,
		AdditionalPrompt: "추가 지시사항",
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var restored GenerateEmailRequest
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, req, restored)
}

func TestGenerateEmailRequest_Defaults(t *testing.T) {
	var req GenerateEmailRequest
	require.NoError(t, json.Unmarshal([]byte(`{"full_body":"<p>본문</p>","selected_text":"키워드"}`), &req))

	assert.Equal(t, "<p>본문</p>", req.FullBody)
	assert.Equal(t, "키워드", req.SelectedText)
	assert.Empty(t, req.ToRecipients)
	assert.Empty(t, req.Subject)
	assert.False(t, req.IsReply)
	assert.Empty(t, req.AdditionalPrompt)
}

func TestGenerateEmailResponse_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		response GenerateEmailResponse
		wantJSON string
	}{
		{
			name:     "success",
			response: NewSuccessResponse("생성된 이메일 본문입니다."),
			wantJSON: `{"success":true,"generated_text":"생성된 이메일 본문입니다.","error_message":null}`,
		},
		{
			name:     "error",
			response: NewErrorResponse(errors.New("API 호출 실패")),
			wantJSON: `{"success":false,"generated_text":"","error_message":"API 호출 실패"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.response)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantJSON, string(data))

			var restored GenerateEmailResponse
			require.NoError(t, json.Unmarshal(data, &restored))
			if diff := cmp.Diff(tt.response, restored); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
