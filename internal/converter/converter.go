// Package converter turns Outlook .msg files into Markdown documents
// ready for upload to a File Search store.
package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"emailwriter/internal/models"
	"emailwriter/internal/msgfile"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/rs/zerolog"
)

// SourceExt is the extension of files picked up by ConvertBatch
const SourceExt = ".msg"

// ConversionError wraps a failure to convert one source file
type ConversionError struct {
	File string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to convert %s: %v", e.File, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Converter converts .msg files to Markdown
type Converter struct {
	read   func(path string) (*msgfile.Content, error)
	logger zerolog.Logger
}

// New creates a converter reading .msg files from disk
func New(logger zerolog.Logger) *Converter {
	return &Converter{
		read:   msgfile.Read,
		logger: logger,
	}
}

// ConvertSingle converts one .msg file into outputDir/<stem>.md and
// returns its metadata with MarkdownPath set
func (c *Converter) ConvertSingle(msgPath, outputDir string) (*models.EmailMetadata, error) {
	content, err := c.read(msgPath)
	if err != nil {
		return nil, &ConversionError{File: msgPath, Err: err}
	}

	doc, err := Render(content)
	if err != nil {
		return nil, &ConversionError{File: msgPath, Err: err}
	}

	stem := strings.TrimSuffix(filepath.Base(msgPath), filepath.Ext(msgPath))
	mdPath := filepath.Join(outputDir, stem+".md")
	if err := os.WriteFile(mdPath, []byte(doc), 0644); err != nil {
		return nil, &ConversionError{File: msgPath, Err: fmt.Errorf("failed to write markdown: %w", err)}
	}

	metadata := content.Metadata
	metadata.MarkdownPath = mdPath
	return &metadata, nil
}

// ConvertBatch converts every *.msg directly under inputDir. Files that fail
// are logged and skipped; the result holds only successes, in name order.
func (c *Converter) ConvertBatch(inputDir, outputDir string) ([]*models.EmailMetadata, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(inputDir, "*"+SourceExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", SourceExt, err)
	}

	results := make([]*models.EmailMetadata, 0, len(files))
	for _, file := range files {
		metadata, err := c.ConvertSingle(file, outputDir)
		if err != nil {
			c.logger.Warn().Err(err).Str("file", file).Msg("Skipping file")
			continue
		}
		c.logger.Debug().Str("file", file).Str("markdown_path", metadata.MarkdownPath).Msg("Converted")
		results = append(results, metadata)
	}

	c.logger.Info().
		Int("converted", len(results)).
		Int("failed", len(files)-len(results)).
		Str("input_dir", inputDir).
		Msg("Batch conversion finished")

	return results, nil
}

// Render produces the Markdown document for one email. The plain body is
// preferred; the HTML body is converted when no plain body exists.
func Render(content *msgfile.Content) (string, error) {
	body := strings.TrimSpace(content.Body)
	if body == "" && strings.TrimSpace(content.HTMLBody) != "" {
		md, err := htmltomarkdown.ConvertString(content.HTMLBody)
		if err != nil {
			return "", fmt.Errorf("failed to convert html body: %w", err)
		}
		body = strings.TrimSpace(md)
	}

	m := content.Metadata
	var b strings.Builder
	b.WriteString("# Email Message\n\n")
	fmt.Fprintf(&b, "**From:** %s\n", m.Sender)
	fmt.Fprintf(&b, "**To:** %s\n", m.Recipients)
	fmt.Fprintf(&b, "**Subject:** %s\n", m.Subject)
	if m.Date != nil {
		fmt.Fprintf(&b, "**Date:** %s\n", m.Date.Format("2006-01-02 15:04:05 -0700"))
	}
	b.WriteString("\n## Content\n\n")
	b.WriteString(body)
	b.WriteString("\n")

	return b.String(), nil
}
