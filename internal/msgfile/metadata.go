package msgfile

import (
	"path/filepath"
	"strings"

	"emailwriter/internal/models"

	"golang.org/x/text/cases"
)

// Reply prefixes, compared after case folding
var replyPrefixes = []string{"re:", "답장:", "회신:"}

var folder = cases.Fold()

// Content is everything the converter needs from one source file
type Content struct {
	Metadata models.EmailMetadata
	Body     string
	HTMLBody string
}

// IsReplySubject reports whether subject marks a reply.
// Leading whitespace is ignored; "RE:", "Re:" and "re:" all match.
func IsReplySubject(subject string) bool {
	s := folder.String(strings.TrimSpace(subject))
	for _, p := range replyPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Metadata builds the descriptive record for the message. MarkdownPath is
// left empty and set by the converter once the document is written.
func (m *Message) Metadata(fileName string) models.EmailMetadata {
	subject := m.Subject()
	return models.EmailMetadata{
		FileName:       fileName,
		Subject:        subject,
		Sender:         m.Sender(),
		Recipients:     m.To(),
		Date:           m.Date(),
		IsReply:        IsReplySubject(subject),
		HasAttachments: m.AttachmentCount() > 0,
	}
}

// Read opens the .msg file at path and returns its metadata and bodies
func Read(path string) (*Content, error) {
	msg, err := Open(path)
	if err != nil {
		return nil, err
	}

	return &Content{
		Metadata: msg.Metadata(filepath.Base(path)),
		Body:     msg.Body(),
		HTMLBody: msg.HTMLBody(),
	}, nil
}

// ExtractMetadata reads only the metadata of the .msg file at path
func ExtractMetadata(path string) (*models.EmailMetadata, error) {
	content, err := Read(path)
	if err != nil {
		return nil, err
	}
	return &content.Metadata, nil
}
