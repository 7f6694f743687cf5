// Package prompt assembles the instruction text sent to the generative model.
package prompt

import (
	"strings"

	"emailwriter/internal/config"
)

// DefaultMaxContextLength caps the mail body embedded in a prompt when the
// configuration does not provide a positive value
const DefaultMaxContextLength = 8000

// SystemInstruction is passed alongside every prompt, never concatenated into it.
const SystemInstruction = `당신은 이메일 작성 도우미입니다.
사용자가 이전에 작성한 이메일들의 톤, 문체, 구조를 참고하여
자연스러운 이메일을 작성해주세요.

핵심 규칙:
1. File Search를 통해 검색된 기존 이메일들의 문체와 톤을 최대한 유지하세요.
2. 수신자와 상황에 맞는 적절한 인사말과 마무리를 사용하세요.
3. 한국어 비즈니스 이메일의 관례를 따르세요.
4. 간결하고 명확한 문장을 사용하세요.
5. 생성된 이메일 본문만 출력하세요 (제목, 설명, 마크다운 포맷 등 불필요).
6. 기존 이메일에서 자주 사용하는 표현, 인사말, 마무리 패턴을 적극 활용하세요.`

const (
	ReplyFraming    = "다음은 회신할 원본 메일입니다. 이 맥락을 참고하여 회신을 작성하세요."
	NewMailFraming  = "다음 정보를 바탕으로 새 이메일을 작성하세요."
	SearchGuidance  = "이전에 작성한 이메일들을 검색하여 문체와 패턴을 참고하세요."
	contextLabel    = "--- 메일 본문 (맥락) ---"
	keyPointsLabel  = "--- 작성 요지/키워드 ---"
	additionalLabel = "--- 추가 지시사항 ---"
	recipientsLabel = "수신자: "
	subjectLabel    = "제목: "
)

// Input holds the request fields a prompt is built from
type Input struct {
	ContextBody      string
	SelectedText     string
	Subject          string
	ToRecipients     string
	IsReply          bool
	AdditionalPrompt string
}

// Builder turns request fields into a prompt. It holds no mutable state.
type Builder struct {
	maxContextLength int
}

// NewBuilder creates a builder using the configured context cap
func NewBuilder(cfg *config.Config) *Builder {
	maxLen := DefaultMaxContextLength
	if cfg != nil && cfg.MaxContextLength > 0 {
		maxLen = cfg.MaxContextLength
	}
	return &Builder{maxContextLength: maxLen}
}

// MaxContextLength returns the number of context characters kept
func (b *Builder) MaxContextLength() int {
	return b.maxContextLength
}

// Build returns the prompt for in. Sections are joined with newlines.
func (b *Builder) Build(in Input) string {
	parts := make([]string, 0, 7)

	if in.IsReply {
		parts = append(parts, ReplyFraming)
	} else {
		parts = append(parts, NewMailFraming)
	}

	if in.ContextBody != "" {
		parts = append(parts, "\n"+contextLabel+"\n"+truncate(in.ContextBody, b.maxContextLength))
	}

	if in.ToRecipients != "" {
		parts = append(parts, "\n"+recipientsLabel+in.ToRecipients)
	}

	if in.Subject != "" {
		parts = append(parts, subjectLabel+in.Subject)
	}

	// Key points are never capped
	parts = append(parts, "\n"+keyPointsLabel+"\n"+in.SelectedText)

	parts = append(parts, "\n"+SearchGuidance)

	if in.AdditionalPrompt != "" {
		parts = append(parts, "\n"+additionalLabel+"\n"+in.AdditionalPrompt)
	}

	return strings.Join(parts, "\n")
}

// truncate keeps the first n characters of s
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
