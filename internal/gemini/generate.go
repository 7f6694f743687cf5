package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"emailwriter/internal/config"
	"emailwriter/internal/prompt"

	"github.com/rs/zerolog"
)

// Temperature used for every draft
const Temperature = 0.7

// GenerationClient drafts text with the File Search tool bound to one store
type GenerationClient struct {
	api       *apiClient
	model     string
	storeName string
	logger    zerolog.Logger
}

// NewGenerationClient creates a client for cfg's model and store
func NewGenerationClient(cfg *config.Config, logger zerolog.Logger) *GenerationClient {
	return &GenerationClient{
		api:       newAPIClient(cfg, logger),
		model:     strings.TrimPrefix(cfg.GeminiModel, "models/"),
		storeName: cfg.FileSearchStoreName,
		logger:    logger,
	}
}

// GenerateWithFileSearch sends userPrompt with the fixed system instruction and
// returns the text of the first candidate. No request is sent when no store is
// configured.
func (g *GenerationClient) GenerateWithFileSearch(ctx context.Context, userPrompt string) (string, error) {
	if g.storeName == "" {
		return "", ErrStoreNotConfigured
	}

	req := GenerateContentRequest{
		Contents: []Content{{
			Role:  "user",
			Parts: []Part{{Text: userPrompt}},
		}},
		SystemInstruction: &Content{Parts: []Part{{Text: prompt.SystemInstruction}}},
		Tools: []Tool{{
			FileSearch: &FileSearch{FileSearchStoreNames: []string{g.storeName}},
		}},
		GenerationConfig: &GenerationConfig{Temperature: Temperature},
	}

	var resp GenerateContentResponse
	if err := g.api.call(ctx, http.MethodPost, "models/"+g.model+":generateContent", nil, req, &resp); err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", emptyResponseError(&resp)
	}

	g.logger.Debug().
		Str("model", g.model).
		Int("prompt_chars", len([]rune(userPrompt))).
		Int("response_chars", len([]rune(text))).
		Msg("Draft generated")
	return text, nil
}

func emptyResponseError(resp *GenerateContentResponse) error {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("model returned no text: prompt blocked (%s)", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		return fmt.Errorf("model returned no text: finish reason %s", resp.Candidates[0].FinishReason)
	}
	return errors.New("model returned no text")
}
