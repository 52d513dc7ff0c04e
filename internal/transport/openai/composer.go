package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	domsearch "github.com/kailas-cloud/vouchex/internal/domain/search"
)

// maxComposerHits caps how many hits go into the prompt context.
const maxComposerHits = 5

const composerSystemPrompt = "Bạn là trợ lý tư vấn ưu đãi. " +
	"Chỉ dùng thông tin trong danh sách voucher được cung cấp, không bịa thêm. " +
	"Trả lời ngắn gọn bằng tiếng Việt, nêu tên voucher phù hợp nhất và lý do."

// Composer turns ranked voucher hits into a short Vietnamese answer via an
// OpenAI-compatible chat API.
type Composer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// ComposerConfig holds the chat provider settings.
type ComposerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewComposer creates an OpenAI-compatible answer composer.
func NewComposer(cfg *ComposerConfig) *Composer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Composer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Compose generates a grounded answer for the query.
func (c *Composer) Compose(
	ctx context.Context, query string, hits []domsearch.Result,
) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: composerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(query, hits)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion response")
	}

	c.logger.Debug("answer composed",
		zap.String("model", c.model),
		zap.Int("hits", len(hits)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildUserPrompt renders the query plus a numbered voucher context block.
func buildUserPrompt(query string, hits []domsearch.Result) string {
	if len(hits) > maxComposerHits {
		hits = hits[:maxComposerHits]
	}

	var b strings.Builder
	b.WriteString("Câu hỏi: ")
	b.WriteString(query)
	b.WriteString("\n\nDanh sách voucher:\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. %s", i+1, h.Name)
		if h.Location != "" {
			fmt.Fprintf(&b, " (%s)", h.Location)
		}
		if h.ServiceType != "" {
			fmt.Fprintf(&b, " [%s]", h.ServiceType)
		}
		if h.Excerpt != "" {
			b.WriteString(": ")
			b.WriteString(h.Excerpt)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
