// Package generator orchestrates email drafting: HTML body cleanup, prompt
// assembly and the retrieval-augmented generation call.
package generator

import (
	"context"

	"emailwriter/internal/config"
	"emailwriter/internal/models"
	"emailwriter/internal/prompt"
)

// TextGenerator produces text for a prompt using the configured File Search store
type TextGenerator interface {
	GenerateWithFileSearch(ctx context.Context, prompt string) (string, error)
}

// EmailGenerator drives the full generation flow for one request
type EmailGenerator struct {
	builder *prompt.Builder
	client  TextGenerator
}

// New creates an email generator
func New(cfg *config.Config, client TextGenerator) *EmailGenerator {
	return &EmailGenerator{
		builder: prompt.NewBuilder(cfg),
		client:  client,
	}
}

// BuildPrompt converts the request body to plain text and assembles the prompt
func (g *EmailGenerator) BuildPrompt(req *models.GenerateEmailRequest) string {
	return g.builder.Build(prompt.Input{
		ContextBody:      HTMLToText(req.FullBody),
		SelectedText:     req.SelectedText,
		Subject:          req.Subject,
		ToRecipients:     req.ToRecipients,
		IsReply:          req.IsReply,
		AdditionalPrompt: req.AdditionalPrompt,
	})
}

// Generate returns the drafted email text. Errors from the model are returned unchanged.
func (g *EmailGenerator) Generate(ctx context.Context, req *models.GenerateEmailRequest) (string, error) {
	return g.client.GenerateWithFileSearch(ctx, g.BuildPrompt(req))
}
