package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// callAnthropic is the alternate provider behind the same yes/no contract.
// MaxTokens stays tiny: the prompt constrains the reply to one word.
func (c *Classifier) callAnthropic(ctx context.Context, category, keyword string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(c.APIKey))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model()),
		MaxTokens:   16,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(category, keyword))),
		},
	})
	if err != nil {
		var apierr *anthropic.Error
		if errors.As(err, &apierr) {
			return "", fmt.Errorf("%w: %v", errAPI, err)
		}
		return "", fmt.Errorf("Anthropic request failed: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in Anthropic response", errAPI)
}
