package models

import (
	"strconv"
	"strings"
	"time"
)

// EmailMetadata describes one converted email. It is built once per source
// file and uploaded alongside the Markdown document as custom metadata.
type EmailMetadata struct {
	FileName       string     `json:"file_name"`
	Subject        string     `json:"subject"`
	Sender         string     `json:"sender"`
	Recipients     string     `json:"recipients"` // Comma-joined
	Date           *time.Time `json:"date"`
	IsReply        bool       `json:"is_reply"`
	HasAttachments bool       `json:"has_attachments"`
	MarkdownPath   string     `json:"markdown_path"` // Set after conversion
}

// CustomMetadata is a single key/value entry attached to an uploaded document
type CustomMetadata struct {
	Key         string `json:"key"`
	StringValue string `json:"stringValue"`
}

// CustomMetadata returns the document metadata uploaded with the email.
// Subject, sender, recipients and is_reply are always present; date only when known.
func (m *EmailMetadata) CustomMetadata() []CustomMetadata {
	entries := []CustomMetadata{
		{Key: "subject", StringValue: m.Subject},
		{Key: "sender", StringValue: m.Sender},
		{Key: "recipients", StringValue: m.Recipients},
		{Key: "is_reply", StringValue: boolString(m.IsReply)},
	}

	if m.Date != nil {
		entries = append(entries, CustomMetadata{
			Key:         "date",
			StringValue: m.Date.Format(time.RFC3339),
		})
	}

	return entries
}

// boolString renders booleans as "True"/"False" so values stay comparable
// with documents uploaded by earlier tooling
func boolString(b bool) string {
	s := strconv.FormatBool(b)
	return strings.ToUpper(s[:1]) + s[1:]
}
