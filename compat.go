package luminar

import (
	"context"

	"github.com/luminar-ai/luminar-go/types"
)

// Score enqueues a score.
//
// Deprecated: use Scores().Create.
func (c *Client) Score(score *types.Score) error {
	return c.scores.Create(score)
}

// GetPrompt resolves the production version of a prompt.
//
// Deprecated: use Prompts().Get.
func (c *Client) GetPrompt(ctx context.Context, name string) (*types.Prompt, error) {
	return c.prompts.Get(ctx, name, nil)
}
