package types

import (
	"encoding/json"
	"strings"
)

// PromptType distinguishes single-string templates from chat templates.
type PromptType string

const (
	PromptTypeText PromptType = "text"
	PromptTypeChat PromptType = "chat"
)

// PromptMessage is one message of a chat prompt template.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is a named, versioned prompt template managed on the platform.
// Templates use {{variable}} placeholders; see Compile.
type Prompt struct {
	Name     string          `json:"name"`
	Version  int             `json:"version"`
	Labels   []string        `json:"labels,omitempty"`
	Type     PromptType      `json:"type"`
	Prompt   string          `json:"prompt,omitempty"`
	Messages []PromptMessage `json:"messages,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`

	// IsFallback marks a prompt returned from a caller-supplied fallback
	// rather than the platform. Fallback prompts are never cached as
	// authoritative entries.
	IsFallback bool `json:"-"`
}

// Compile substitutes {{variable}} placeholders in a text prompt.
// Unknown placeholders are left untouched so the caller can spot them.
func (p *Prompt) Compile(vars map[string]string) string {
	return substitute(p.Prompt, vars)
}

// CompileMessages substitutes placeholders across all chat messages.
func (p *Prompt) CompileMessages(vars map[string]string) []PromptMessage {
	out := make([]PromptMessage, len(p.Messages))
	for i, m := range p.Messages {
		out[i] = PromptMessage{Role: m.Role, Content: substitute(m.Content, vars)}
	}
	return out
}

func substitute(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
